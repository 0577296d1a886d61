package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/logging"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/store"
)

// SyncState represents the current state of the inbox poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poll state shown in the header.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// InboxResultMsg is a tea.Msg sent when an inbox poll completes.
type InboxResultMsg struct {
	Entries  []model.MailboxEntry
	NewCount int
	Err      error
	AuthErr  *AuthErrorMsg
}

// AuthErrorMsg is sent along with a result when the backend rejects the
// session.
type AuthErrorMsg struct {
	Message string
}

// InboxLister fetches a mailbox folder.
type InboxLister interface {
	List(ctx context.Context, folder model.Folder) ([]model.MailboxEntry, error)
}

// SeenTracker remembers which received messages were already reported and
// whether the first poll has happened.
type SeenTracker interface {
	MarkSeen(ctx context.Context, ids []int64) ([]int64, error)
	CountSeen(ctx context.Context) (int, error)
	GetUIState(ctx context.Context, key string) (string, bool, error)
	SetUIState(ctx context.Context, key, value string) error
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

const defaultInterval = 120 * time.Second

// Poller polls the received folder in the background and reports how many
// messages arrived since the last poll.
type Poller struct {
	lister    InboxLister
	seen      SeenTracker
	interval  time.Duration
	log       *logrus.Entry
	status    SyncStatus
	resultCh  chan InboxResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	stopped   bool
}

// New creates a Poller. A non-positive interval uses the default of two
// minutes.
func New(lister InboxLister, seen SeenTracker, interval time.Duration, log *logrus.Entry) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Poller{
		lister:    lister,
		seen:      seen,
		interval:  interval,
		log:       log,
		resultCh:  make(chan InboxResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutine and waits for
// its first result. Starting twice, or after Stop, returns nil.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	close(p.stopCh)
	p.running = false
	p.stopped = true
}

// Refresh triggers an immediate poll.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A poll is already pending.
	}
	return nil
}

// Status returns the current poll status.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial fetch immediately
	p.sendResult(p.Poll(context.Background()))

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.sendResult(p.Poll(context.Background()))
		case <-p.triggerCh:
			p.sendResult(p.Poll(context.Background()))
		}
	}
}

// Poll fetches the received folder once and records the ids as seen.
// The first successful poll sets the baseline, even for an empty inbox:
// its messages are recorded and NewCount is zero.
func (p *Poller) Poll(ctx context.Context) InboxResultMsg {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	entries, err := p.lister.List(ctx, model.FolderReceived)
	if err != nil {
		p.setStatus(SyncError, err)
		p.log.WithError(err).Warn("inbox poll failed")

		if api.IsAuthError(err) {
			return InboxResultMsg{
				Err: err,
				AuthErr: &AuthErrorMsg{
					Message: "session expired: run `mailcal session set` and restart",
				},
			}
		}
		return InboxResultMsg{Err: err}
	}

	newCount, err := p.markSeen(ctx, entries)
	if err != nil {
		p.setStatus(SyncError, err)
		p.log.WithError(err).Warn("recording seen messages failed")
		return InboxResultMsg{Entries: entries, Err: err}
	}

	p.setStatus(SyncIdle, nil)
	p.log.WithFields(logrus.Fields{
		"entries": len(entries),
		"new":     newCount,
	}).Debug("inbox polled")

	return InboxResultMsg{Entries: entries, NewCount: newCount}
}

func (p *Poller) markSeen(ctx context.Context, entries []model.MailboxEntry) (int, error) {
	if p.seen == nil {
		return 0, nil
	}

	baselined, err := p.hasBaseline(ctx)
	if err != nil {
		return 0, err
	}

	var fresh []int64
	if len(entries) > 0 {
		ids := make([]int64, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		if fresh, err = p.seen.MarkSeen(ctx, ids); err != nil {
			return 0, err
		}
	}

	if !baselined {
		if err := p.seen.SetUIState(ctx, store.KeyInboxBaseline, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return len(fresh), nil
}

// hasBaseline reports whether a first poll was already recorded. Stores
// that predate the marker count as baselined once they hold seen ids.
func (p *Poller) hasBaseline(ctx context.Context) (bool, error) {
	_, ok, err := p.seen.GetUIState(ctx, store.KeyInboxBaseline)
	if err != nil || ok {
		return ok, err
	}
	known, err := p.seen.CountSeen(ctx)
	if err != nil {
		return false, err
	}
	return known > 0, nil
}

func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = time.Now()
	}
}

// sendResult sends a result on the result channel without blocking.
func (p *Poller) sendResult(msg InboxResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling an InboxResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
