package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/compose"
	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/logging"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/store"
	appsync "github.com/nhle/mailcal/internal/sync"
	"github.com/nhle/mailcal/internal/ui"
	"github.com/nhle/mailcal/internal/ui/command"
	"github.com/nhle/mailcal/internal/ui/composer"
	settingsview "github.com/nhle/mailcal/internal/ui/config"
	"github.com/nhle/mailcal/internal/ui/drafts"
	helpview "github.com/nhle/mailcal/internal/ui/help"
	"github.com/nhle/mailcal/internal/ui/mailbox"
	"github.com/nhle/mailcal/internal/ui/month"
	"github.com/nhle/mailcal/internal/ui/reader"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewCalendar ViewState = iota
	ViewMailbox
	ViewReader
	ViewCompose
	ViewDrafts
	ViewHelp
	ViewCommand
	ViewSettings
)

// Options holds the dependencies of the root model.
type Options struct {
	Backend api.Backend
	Store   store.Store

	// Poller reports new received messages. It may be nil.
	Poller *appsync.Poller

	Log *logrus.Entry

	// Now returns the current time; it defaults to time.Now.
	Now func() time.Time

	// ExportDir is where exported messages are written.
	ExportDir string

	// Settings are the values shown in the settings view.
	Settings settingsview.Settings

	// SaveSettings tests and persists edited settings and returns a short
	// description of the connection test. Without it settings are
	// read-only.
	SaveSettings func(ctx context.Context, s settingsview.Settings) (string, error)
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the backend and the local store.
type Model struct {
	currentView  ViewState
	previousView ViewState

	// composeReturn is the view to go back to when composing ends.
	composeReturn ViewState

	// settingsReturn is the view to go back to when the settings close.
	settingsReturn ViewState

	layout    ui.Layout
	backend   api.Backend
	store     store.Store
	poller    *appsync.Poller
	log       *logrus.Entry
	now       func() time.Time
	exportDir string
	keys      *keys.KeyMap

	saveSettings func(context.Context, settingsview.Settings) (string, error)

	calendarView month.Model
	mailboxView  mailbox.Model
	readerView   reader.Model
	composeView  composer.Model
	draftsView   drafts.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settingsview.Model

	// pendingCompose waits for the recipient list before the form opens.
	pendingCompose *composer.Request

	ready            bool
	newCount         int
	status           string
	err              error
	authErrorMessage string
}

// New creates the root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Log == nil {
		opts.Log = logging.Discard()
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	return Model{
		currentView:  ViewCalendar,
		backend:      opts.Backend,
		store:        opts.Store,
		poller:       opts.Poller,
		log:          opts.Log,
		now:          opts.Now,
		exportDir:    opts.ExportDir,
		keys:         k,
		saveSettings: opts.SaveSettings,
		calendarView: month.New(opts.Backend, k, opts.Now, 80, 24),
		mailboxView:  mailbox.New(opts.Backend, k, 80, 24),
		readerView:   reader.New(k, 80, 24),
		composeView:  composer.New(k, opts.Now, time.Local, 80, 24),
		draftsView:   drafts.New(opts.Backend, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settingsview.New(k, opts.Settings, 80, 24),
	}
}

// Init restores the last displayed month and folder, loads the cursor day
// and starts polling.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.restoreState()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w := m.layout.ContentWidth()
		h := m.layout.ContentHeight()
		m.calendarView.SetSize(w, h)
		m.mailboxView.SetSize(w, h)
		m.readerView.SetSize(w, h)
		m.composeView.SetSize(w, h)
		m.draftsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case stateRestoredMsg:
		if msg.ref != nil {
			m.calendarView.SetReference(*msg.ref)
		}
		if msg.folder != "" {
			m.mailboxView.SetFolder(msg.folder)
		}
		cmd := m.calendarView.LoadDay(m.calendarView.CursorDate())
		return m, cmd

	case appsync.InboxResultMsg:
		return m.handleInboxResult(msg)

	// Results are routed to their view even when it is not active.
	case month.DayLoadedMsg:
		var cmd tea.Cmd
		m.calendarView, cmd = m.calendarView.Update(msg)
		return m, cmd

	case month.WithdrawResultMsg:
		var cmd tea.Cmd
		m.calendarView, cmd = m.calendarView.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		m.status = fmt.Sprintf("Message %d withdrawn", msg.ID)
		return m, tea.Batch(cmd, m.recordActivity(model.ActivityWithdrawn, msg.ID, ""))

	case month.ReferenceChangedMsg:
		return m, m.saveUIState(store.KeyCalendarReference, msg.Ref.String())

	case mailbox.EntriesLoadedMsg:
		var cmd tea.Cmd
		m.mailboxView, cmd = m.mailboxView.Update(msg)
		return m, cmd

	case mailbox.ActionMsg:
		return m.handleMailboxAction(msg)

	case reader.LoadedMsg:
		var cmd tea.Cmd
		m.readerView, cmd = m.readerView.Update(msg)
		return m, cmd

	case reader.BackMsg:
		m.currentView = ViewMailbox
		return m, nil

	case forwardReadyMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		out := compose.Forward(msg.entry.Email, msg.body.Text)
		return m.startCompose(composer.Request{
			Title:  "Forward",
			Quoted: out.Text,
		})

	case recipientsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		if m.pendingCompose == nil {
			return m, nil
		}
		req := *m.pendingCompose
		m.pendingCompose = nil
		req.Recipients = msg.recipients
		if msg.fromCache {
			m.status = "Backend unreachable: using cached recipients"
		}
		m.currentView = ViewCompose
		cmd := m.composeView.Start(req)
		return m, cmd

	case composer.SendMsg:
		return m, m.send(msg.Outgoing)

	case composer.SaveDraftMsg:
		return m, m.saveDraft(msg.Text, msg.DraftID)

	case composer.CancelMsg:
		m.currentView = m.composeReturn
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.composeView.SetError(msg.err)
			return m, nil
		}
		m.status = "Message scheduled for " + msg.out.DeliveryAt.Format("2006-01-02 15:04")
		m.currentView = m.composeReturn
		cmd := m.reloadAfterSend(msg.out)
		return m, cmd

	case draftSavedMsg:
		if msg.err != nil {
			m.composeView.SetError(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Draft %d saved", msg.id)
		m.currentView = ViewDrafts
		return m, m.draftsView.Load()

	case drafts.LoadedMsg:
		var cmd tea.Cmd
		m.draftsView, cmd = m.draftsView.Update(msg)
		return m, cmd

	case drafts.EditMsg:
		return m.startCompose(composer.Request{
			Title:       "Edit Draft",
			Text:        render.PlainText(msg.Draft.Text),
			RecipientID: msg.Draft.RecipientID,
			DraftID:     msg.Draft.ID,
		})

	case drafts.DeleteMsg:
		return m, m.deleteDraft(msg.Draft.ID)

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case settingsview.SubmitMsg:
		return m, m.submitSettings(msg.Settings)

	case settingsview.ResultMsg:
		var cmd tea.Cmd
		m.settingsView, cmd = m.settingsView.Update(msg)
		if msg.Err == nil && m.settingsView.Mode() == settingsview.ModeResult {
			m.status = "Settings saved"
		}
		return m, cmd

	case settingsview.DoneMsg:
		m.currentView = m.settingsReturn
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(msg)

	case tea.KeyMsg:
		next, cmd, handled := m.handleGlobalKey(msg)
		if handled {
			return next, cmd
		}
		m = next
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work across views. It reports whether
// the key was consumed.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}

	// Text entry views receive every other key.
	switch m.currentView {
	case ViewCompose, ViewSettings:
		return m, nil, false
	case ViewCommand:
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil, true
		}
		return m, nil, false
	case ViewMailbox:
		if m.mailboxView.Filtering() {
			return m, nil, false
		}
	case ViewDrafts:
		if m.draftsView.Filtering() {
			return m, nil, false
		}
	}

	m.status = ""
	m.err = nil

	switch msg.String() {
	case "q":
		if m.currentView == ViewCalendar || m.currentView == ViewMailbox || m.currentView == ViewDrafts {
			return m, m.quit(), true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "esc":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true

	case "1":
		m.currentView = ViewCalendar
		return m, nil, true

	case "2":
		cmd := m.showMailbox()
		return m, cmd, true

	case "3":
		m.currentView = ViewDrafts
		return m, m.draftsView.Load(), true

	case "c":
		if m.currentView == ViewReader {
			break
		}
		next, cmd := m.startCompose(composer.Request{})
		return next, cmd, true

	case "R":
		next, cmd := m.refresh()
		return next, cmd, true

	case "S":
		cmd := m.openSettings()
		return m, cmd, true
	}

	return m, nil, false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewCalendar:
		m.calendarView, cmd = m.calendarView.Update(msg)
	case ViewMailbox:
		before := m.mailboxView.Folder()
		m.mailboxView, cmd = m.mailboxView.Update(msg)
		if folder := m.mailboxView.Folder(); folder != before {
			if folder == model.FolderReceived {
				m.newCount = 0
			}
			cmd = tea.Batch(cmd, m.saveUIState(store.KeyMailboxFolder, string(folder)))
		}
	case ViewReader:
		m.readerView, cmd = m.readerView.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewDrafts:
		m.draftsView, cmd = m.draftsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// handleInboxResult updates the new message counter and the auth error
// banner, then waits for the next poll.
func (m Model) handleInboxResult(msg appsync.InboxResultMsg) (tea.Model, tea.Cmd) {
	if msg.AuthErr != nil {
		m.authErrorMessage = msg.AuthErr.Message
	} else if msg.Err == nil {
		m.authErrorMessage = ""
	}

	var cmds []tea.Cmd
	if m.viewingReceived() {
		m.newCount = 0
		if msg.NewCount > 0 {
			cmds = append(cmds, m.mailboxView.Load())
		}
	} else {
		m.newCount += msg.NewCount
	}

	if m.poller != nil {
		cmds = append(cmds, m.poller.WaitForNextResult())
	}
	return m, tea.Batch(cmds...)
}

func (m Model) viewingReceived() bool {
	return (m.currentView == ViewMailbox || m.currentView == ViewReader) &&
		m.mailboxView.Folder() == model.FolderReceived
}

// handleMailboxAction routes an action requested from the mailbox list.
func (m Model) handleMailboxAction(msg mailbox.ActionMsg) (tea.Model, tea.Cmd) {
	entry := msg.Entry

	switch msg.Action {
	case mailbox.ActionOpen:
		m.currentView = ViewReader
		m.readerView.SetLoading(entry)
		return m, m.open(entry)

	case mailbox.ActionReply:
		out := compose.Reply(entry)
		var to int64
		if len(out.RecipientIDs) > 0 {
			to = out.RecipientIDs[0]
		}
		return m.startCompose(composer.Request{
			Title:       "Reply to " + entry.DisplayName(),
			RecipientID: to,
		})

	case mailbox.ActionForward:
		return m, m.fetchForForward(entry)

	case mailbox.ActionDelete:
		return m, m.deleteReceived(entry.ID)

	case mailbox.ActionExport:
		return m, m.export(entry)
	}

	return m, nil
}

// handleActionDone reports the outcome of a side effect and reloads the
// affected view.
func (m Model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}
	m.status = msg.status

	switch msg.kind {
	case model.ActivityDeleted:
		return m, m.mailboxView.Load()
	case model.ActivityDraftDeleted:
		return m, m.draftsView.Load()
	}
	return m, nil
}

// startCompose opens the compose form once the recipient list is loaded.
func (m Model) startCompose(req composer.Request) (Model, tea.Cmd) {
	if m.currentView != ViewCompose {
		m.composeReturn = m.currentView
		if m.composeReturn == ViewHelp || m.composeReturn == ViewCommand {
			m.composeReturn = m.previousView
		}
	}
	m.pendingCompose = &req
	return m, m.loadRecipients()
}

// openSettings shows the settings form with the current values.
func (m *Model) openSettings() tea.Cmd {
	if m.currentView != ViewSettings {
		m.settingsReturn = m.currentView
		if m.settingsReturn == ViewHelp || m.settingsReturn == ViewCommand {
			m.settingsReturn = m.previousView
		}
	}
	m.currentView = ViewSettings
	return m.settingsView.Start()
}

// showMailbox switches to the mailbox and reloads the current folder.
func (m *Model) showMailbox() tea.Cmd {
	m.currentView = ViewMailbox
	if m.mailboxView.Folder() == model.FolderReceived {
		m.newCount = 0
	}
	return tea.Batch(
		m.mailboxView.Load(),
		m.saveUIState(store.KeyMailboxFolder, string(m.mailboxView.Folder())),
	)
}

// refresh polls the inbox now and reloads the active view.
func (m Model) refresh() (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.poller != nil {
		cmds = append(cmds, m.poller.Refresh())
	}
	switch m.currentView {
	case ViewCalendar:
		cmds = append(cmds, m.calendarView.LoadDay(m.calendarView.CursorDate()))
	case ViewMailbox:
		cmds = append(cmds, m.mailboxView.Load())
	case ViewDrafts:
		cmds = append(cmds, m.draftsView.Load())
	}
	return m, tea.Batch(cmds...)
}

// reloadAfterSend refreshes what a sent message may have changed.
func (m *Model) reloadAfterSend(out model.Outgoing) tea.Cmd {
	cmds := []tea.Cmd{m.recordActivity(model.ActivitySent, 0, fmt.Sprintf("to %v at %s", out.RecipientIDs, out.DeliveryAt.Format(time.RFC3339)))}
	switch m.currentView {
	case ViewCalendar:
		cmds = append(cmds, m.calendarView.LoadDay(m.calendarView.CursorDate()))
	case ViewMailbox:
		cmds = append(cmds, m.mailboxView.Load())
	case ViewDrafts:
		cmds = append(cmds, m.draftsView.Load())
	}
	return tea.Batch(cmds...)
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(c command.CommandMsg) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.CmdCalendar:
		m.currentView = ViewCalendar
		return m, nil
	case command.CmdGoto:
		ref, err := calendar.ParseReference(c.Arg)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.currentView = ViewCalendar
		m.calendarView.SetReference(ref)
		return m, m.saveUIState(store.KeyCalendarReference, ref.String())
	case command.CmdToday:
		m.currentView = ViewCalendar
		before := m.calendarView.Reference()
		m.calendarView.SetReference(calendar.ReferenceFor(m.now()))
		cmds := []tea.Cmd{m.calendarView.LoadDay(m.calendarView.CursorDate())}
		if ref := m.calendarView.Reference(); ref != before {
			cmds = append(cmds, m.saveUIState(store.KeyCalendarReference, ref.String()))
		}
		return m, tea.Batch(cmds...)
	case command.CmdInbox:
		m.mailboxView.SetFolder(model.FolderReceived)
		cmd := m.showMailbox()
		return m, cmd
	case command.CmdSent:
		m.mailboxView.SetFolder(model.FolderSent)
		cmd := m.showMailbox()
		return m, cmd
	case command.CmdDrafts:
		m.currentView = ViewDrafts
		return m, m.draftsView.Load()
	case command.CmdCompose:
		return m.startCompose(composer.Request{})
	case command.CmdRefresh:
		return m.refresh()
	case command.CmdHelp:
		m.currentView = ViewHelp
		return m, nil
	case command.CmdSettings:
		cmd := m.openSettings()
		return m, cmd
	case command.CmdQuit:
		return m, m.quit()
	}
	return m, nil
}

func (m Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	return tea.Quit
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	badge := ""
	if m.newCount > 0 {
		badge = fmt.Sprintf(" [%d new] ", m.newCount)
	}
	header := m.layout.RenderHeader("mailcal · "+m.viewTitle(), badge, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.errorText())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCalendar:
		return m.calendarView.View()
	case ViewMailbox:
		return m.mailboxView.View()
	case ViewReader:
		return m.readerView.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewDrafts:
		return m.draftsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

func (m Model) viewTitle() string {
	switch m.currentView {
	case ViewCalendar:
		return m.calendarView.Reference().Title()
	case ViewMailbox, ViewReader:
		if m.mailboxView.Folder() == model.FolderSent {
			return "Sent"
		}
		return "Received"
	case ViewCompose:
		return "Compose"
	case ViewDrafts:
		return "Drafts"
	case ViewHelp:
		return "Help"
	case ViewSettings:
		return "Settings"
	default:
		return "Command"
	}
}

// syncStatus returns a short string describing the inbox poll.
func (m Model) syncStatus() string {
	if m.poller == nil {
		return "offline"
	}
	s := m.poller.Status()
	switch s.State {
	case appsync.SyncRunning:
		return "checking inbox"
	case appsync.SyncError:
		return "⚠ backend unreachable"
	}
	if s.LastSync.IsZero() {
		return "idle"
	}
	return "checked " + s.LastSync.Format("15:04")
}

// errorText returns the error shown in the status bar, if any.
func (m Model) errorText() string {
	if m.err != nil {
		return m.err.Error()
	}
	if m.authErrorMessage != "" {
		return m.authErrorMessage
	}
	var err error
	switch m.currentView {
	case ViewCalendar:
		err = m.calendarView.Err()
	case ViewMailbox:
		err = m.mailboxView.Err()
	case ViewDrafts:
		err = m.draftsView.Err()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewReader:
		return "esc back | j/k scroll"
	case ViewCompose:
		return "enter next | ctrl+s save draft | esc cancel"
	case ViewSettings:
		return "enter next | esc back"
	case ViewMailbox:
		return "tab received/sent | enter open | r reply | f forward | d delete | x export | / filter"
	case ViewDrafts:
		return "enter edit | d delete | / filter | 1 calendar | 2 mailbox"
	default:
		return "hjkl move | [ ] month | t today | enter load day | tab messages | w withdraw | 2 mailbox | c compose | ? help"
	}
}
