package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/store"
	appsync "github.com/nhle/mailcal/internal/sync"
	"github.com/nhle/mailcal/internal/ui/command"
	"github.com/nhle/mailcal/internal/ui/composer"
	settingsview "github.com/nhle/mailcal/internal/ui/config"
	"github.com/nhle/mailcal/tests/testutil"
)

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.Local)

type harness struct {
	m       Model
	backend *testutil.FakeBackend
	store   *store.SQLiteStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := testutil.NewFakeBackend()
	b.Folders[model.FolderReceived] = []model.MailboxEntry{
		{ID: 1, Folder: model.FolderReceived, CounterpartID: 7, FirstName: "Ada", Email: "ada@example.com", Text: "<p>hello</p>"},
	}
	b.Bodies[1] = &model.MessageBody{ID: 1, Text: "<p>Hello there</p>"}
	b.RecipientList = []model.Recipient{{ID: 7, Email: "ada@example.com"}, {ID: 8, Email: "bob@example.com"}}

	s := testutil.NewTestStore(t)
	return &harness{
		m: New(Options{
			Backend:   b,
			Store:     s,
			Now:       func() time.Time { return fixedNow },
			ExportDir: t.TempDir(),
		}),
		backend: b,
		store:   s,
	}
}

// start sizes the terminal and runs Init.
func (h *harness) start() {
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	h.run(h.m.Init())
}

func (h *harness) send(msg tea.Msg) {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	h.run(cmd)
}

func (h *harness) key(s string) {
	switch s {
	case "enter":
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "tab":
		h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "esc":
		h.send(tea.KeyMsg{Type: tea.KeyEsc})
	default:
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	}
}

// run executes cmd and feeds resulting messages back into the model.
// Commands that do not return promptly, such as cursor blinks, are dropped.
func (h *harness) run(cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 200; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := exec(c).(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			next, cmd := h.m.Update(msg)
			h.m = next.(Model)
			queue = append(queue, cmd)
		}
	}
}

func exec(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func (h *harness) activityKinds(t *testing.T) []string {
	t.Helper()
	acts, err := h.store.GetActivity(context.Background(), 0)
	require.NoError(t, err)
	kinds := make([]string, len(acts))
	for i, a := range acts {
		kinds[i] = a.Kind
	}
	return kinds
}

func TestInitRestoresSavedState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.SetUIState(ctx, store.KeyCalendarReference, "2024-02"))
	require.NoError(t, h.store.SetUIState(ctx, store.KeyMailboxFolder, "sent"))
	h.backend.Days[testutil.DayKey(2024, time.February, 15)] = []model.DayMessage{
		{ID: 30, Counterpart: "bob@example.com", DeliveryAt: time.Date(2024, 2, 15, 9, 5, 0, 0, time.Local), Body: "<p>Happy birthday</p>"},
	}

	h.start()

	assert.Equal(t, calendar.ReferenceDate{Year: 2024, Month: time.February}, h.m.calendarView.Reference())
	assert.Equal(t, model.FolderSent, h.m.mailboxView.Folder())
	view := h.m.View()
	assert.Contains(t, view, "Sent at 09:05")
	assert.Contains(t, view, "Happy birthday")
}

func TestMonthChangeIsSaved(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("]")

	v, ok, err := h.store.GetUIState(context.Background(), store.KeyCalendarReference)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-07", v)
}

func TestWithdrawReloadsDayAndRecordsActivity(t *testing.T) {
	h := newHarness(t)
	h.backend.Days[testutil.DayKey(2024, time.June, 15)] = []model.DayMessage{
		{ID: 31, Counterpart: "bob@example.com", DeliveryAt: time.Date(2024, 6, 15, 18, 0, 0, 0, time.Local), Body: "later", Future: true, Deletable: true},
	}
	h.start()
	assert.Contains(t, h.m.View(), "Will be sent at 18:00")

	h.key("tab")
	h.key("w")

	assert.Equal(t, []int64{31}, h.backend.Withdrawn)
	assert.Contains(t, h.m.View(), "No messages sent for the day: 15/6/2024")
	assert.Contains(t, h.m.View(), "Message 31 withdrawn")
	assert.Equal(t, []string{model.ActivityWithdrawn}, h.activityKinds(t))
}

func TestOpenMarksReadAndShowsBody(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("2")
	assert.Equal(t, ViewMailbox, h.m.currentView)
	h.key("enter")

	assert.Equal(t, ViewReader, h.m.currentView)
	assert.Equal(t, []int64{1}, h.backend.Read)
	assert.Contains(t, h.m.View(), "Hello there")

	h.key("esc")
	assert.Equal(t, ViewMailbox, h.m.currentView)
}

func TestReplySendsToCounterpart(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("2")
	h.key("r")
	require.Equal(t, ViewCompose, h.m.currentView)
	assert.Contains(t, h.m.View(), "Reply to Ada")

	out := model.Outgoing{
		Text:         "<p>thanks</p>",
		DeliveryAt:   fixedNow.Add(time.Hour),
		RecipientIDs: []int64{7},
	}
	h.send(composer.SendMsg{Outgoing: out})

	require.Len(t, h.backend.SentMsgs, 1)
	assert.Equal(t, out, h.backend.SentMsgs[0])
	assert.Equal(t, ViewMailbox, h.m.currentView)
	assert.Contains(t, h.m.View(), "Message scheduled for 2024-06-15 13:00")
	assert.Equal(t, []string{model.ActivitySent}, h.activityKinds(t))

	cached, err := h.store.GetRecipients(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}

func TestComposeFallsBackToCachedRecipients(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.ReplaceRecipients(context.Background(), []model.Recipient{{ID: 9, Email: "cached@example.com"}}))
	h.start()

	h.backend.Err = errors.New("connection refused")
	h.key("c")

	require.Equal(t, ViewCompose, h.m.currentView)
	view := h.m.View()
	assert.Contains(t, view, "using cached recipients")
	assert.Contains(t, view, "cached@example.com")
}

func TestCancelComposeReturns(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("c")
	require.Equal(t, ViewCompose, h.m.currentView)
	h.key("esc")
	assert.Equal(t, ViewCalendar, h.m.currentView)
}

func TestDeleteReceived(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("2")
	h.key("d")

	assert.Equal(t, []int64{1}, h.backend.Deleted)
	assert.Contains(t, h.m.View(), "Message 1 deleted")
	_, ok := h.m.mailboxView.SelectedEntry()
	assert.False(t, ok)
	assert.Equal(t, []string{model.ActivityDeleted}, h.activityKinds(t))
}

func TestExportWritesFile(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.key("2")
	h.key("x")

	path := filepath.Join(h.m.exportDir, "mailcal-received-1.eml")
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Contains(t, h.m.View(), "Exported to")
	assert.Equal(t, []string{model.ActivityExported}, h.activityKinds(t))
}

func TestSaveDraftReplacesEditedDraft(t *testing.T) {
	h := newHarness(t)
	h.backend.DraftList = []model.Draft{{ID: 5, Text: "<p>old</p>"}}
	h.start()

	h.send(composer.SaveDraftMsg{Text: "<p>new</p>", DraftID: 5})

	assert.Equal(t, []string{"<p>new</p>"}, h.backend.Saved)
	assert.Equal(t, []int64{5}, h.backend.Removed)
	assert.Equal(t, ViewDrafts, h.m.currentView)
	d, ok := h.m.draftsView.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(101), d.ID)

	h.key("d")
	assert.Equal(t, []int64{5, 101}, h.backend.Removed)
	assert.Equal(t, []string{model.ActivityDraftDeleted, model.ActivityDraftSaved}, h.activityKinds(t))
}

func TestNewCountBadge(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.send(appsync.InboxResultMsg{NewCount: 3})
	assert.Contains(t, h.m.View(), "[3 new]")

	h.key("2")
	assert.NotContains(t, h.m.View(), "new]")
}

func TestAuthErrorShownInStatusBar(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.send(appsync.InboxResultMsg{Err: errors.New("401"), AuthErr: &appsync.AuthErrorMsg{Message: "session expired"}})
	assert.Contains(t, h.m.View(), "session expired")

	h.send(appsync.InboxResultMsg{})
	assert.NotContains(t, h.m.View(), "session expired")
}

func TestCommandGoto(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.send(command.CommandMsg{Name: command.CmdGoto, Arg: "2023-11"})
	assert.Equal(t, calendar.ReferenceDate{Year: 2023, Month: time.November}, h.m.calendarView.Reference())

	v, _, err := h.store.GetUIState(context.Background(), store.KeyCalendarReference)
	require.NoError(t, err)
	assert.Equal(t, "2023-11", v)

	h.send(command.CommandMsg{Name: command.CmdGoto, Arg: "soon"})
	assert.Contains(t, h.m.View(), `invalid month "soon"`)
}

func TestQuit(t *testing.T) {
	h := newHarness(t)
	h.start()

	_, cmd := h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestSettingsSaveAndReturn(t *testing.T) {
	h := newHarness(t)
	var saved []settingsview.Settings
	h.m.saveSettings = func(_ context.Context, s settingsview.Settings) (string, error) {
		saved = append(saved, s)
		return "2 recipients reachable", nil
	}
	h.start()

	h.key("2")
	h.key("S")
	require.Equal(t, ViewSettings, h.m.currentView)
	assert.Contains(t, h.m.View(), "Poll interval")

	want := settingsview.Settings{BaseURL: "https://mail.example.com", PollIntervalSec: 60, LogLevel: "info"}
	h.send(settingsview.SubmitMsg{Settings: want})
	assert.Equal(t, []settingsview.Settings{want}, saved)

	h.key("esc")
	assert.Equal(t, ViewMailbox, h.m.currentView)
}

func TestSettingsWithoutSaverAreReadOnly(t *testing.T) {
	h := newHarness(t)
	h.start()

	h.send(command.CommandMsg{Name: command.CmdSettings})
	require.Equal(t, ViewSettings, h.m.currentView)

	h.send(settingsview.SubmitMsg{Settings: settingsview.Settings{BaseURL: "http://x"}})
	h.key("esc")
	assert.Equal(t, ViewCalendar, h.m.currentView)
}
