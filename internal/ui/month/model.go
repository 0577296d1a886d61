package month

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/theme"
)

// DayLoadedMsg carries the messages of a calendar day.
type DayLoadedMsg struct {
	Date     time.Time
	Messages []model.DayMessage
	Err      error
}

// WithdrawResultMsg is sent after a withdraw request completes.
type WithdrawResultMsg struct {
	ID   int64
	Date time.Time
	Err  error
}

// ReferenceChangedMsg is sent when the displayed month changes.
type ReferenceChangedMsg struct {
	Ref calendar.ReferenceDate
}

type focus int

const (
	focusGrid focus = iota
	focusDay
)

// Model is the calendar view: a month grid on the left and the messages
// of the loaded day on the right.
type Model struct {
	backend api.Backend
	keys    *keys.KeyMap
	now     func() time.Time

	ref    calendar.ReferenceDate
	grid   calendar.Grid
	cursor int
	focus  focus

	loadedDate time.Time
	messages   []model.DayMessage
	msgIndex   int
	loading    bool
	err        error

	width  int
	height int
}

// New creates a calendar view showing the current month with the cursor
// on today.
func New(backend api.Backend, k *keys.KeyMap, now func() time.Time, width, height int) Model {
	if now == nil {
		now = time.Now
	}
	m := Model{
		backend: backend,
		keys:    k,
		now:     now,
		width:   width,
		height:  height,
	}
	today := now()
	m.setCursor(today)
	return m
}

// Init returns nil; a day is loaded only on request.
func (m Model) Init() tea.Cmd {
	return nil
}

// Reference returns the displayed month.
func (m Model) Reference() calendar.ReferenceDate {
	return m.ref
}

// CursorDate returns the selected day at midnight local time.
func (m Model) CursorDate() time.Time {
	return time.Date(m.ref.Year, m.ref.Month, m.cursor, 0, 0, 0, 0, time.Local)
}

// SetReference shows ref, keeping the cursor day when it exists in that
// month.
func (m *Model) SetReference(ref calendar.ReferenceDate) {
	day := m.cursor
	if dim := calendar.DaysInMonth(ref.Year, ref.Month); day > dim {
		day = dim
	}
	if day < 1 {
		day = 1
	}
	m.setCursor(time.Date(ref.Year, ref.Month, day, 0, 0, 0, 0, time.Local))
}

// setCursor moves the cursor to d, rebuilding the grid when the month
// changes.
func (m *Model) setCursor(d time.Time) {
	ref := calendar.ReferenceFor(d)
	if ref != m.ref || len(m.grid.Cells) == 0 {
		m.ref = ref
		m.grid = calendar.BuildGridAt(ref.Year, ref.Month, m.now())
	}
	m.cursor = d.Day()
}

// Update handles messages for the calendar view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DayLoadedMsg:
		if !msg.Date.Equal(m.loadedDate) {
			// A newer request superseded this one.
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		m.messages = msg.Messages
		if m.msgIndex >= len(m.messages) {
			m.msgIndex = max(len(m.messages)-1, 0)
		}
		return m, nil

	case WithdrawResultMsg:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		if msg.Date.Equal(m.loadedDate) {
			return m, m.LoadDay(m.loadedDate)
		}
		return m, nil

	case tea.KeyMsg:
		if m.focus == focusDay {
			return m.handleDayKeys(msg)
		}
		return m.handleGridKeys(msg)
	}

	return m, nil
}

func (m Model) handleGridKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	before := m.ref

	switch {
	case key.Matches(msg, m.keys.Left):
		m.setCursor(m.CursorDate().AddDate(0, 0, -1))
	case key.Matches(msg, m.keys.Right):
		m.setCursor(m.CursorDate().AddDate(0, 0, 1))
	case key.Matches(msg, m.keys.Up):
		m.setCursor(m.CursorDate().AddDate(0, 0, -calendar.DaysPerWeek))
	case key.Matches(msg, m.keys.Down):
		m.setCursor(m.CursorDate().AddDate(0, 0, calendar.DaysPerWeek))
	case key.Matches(msg, m.keys.PrevMonth):
		m.SetReference(calendar.AdvanceMonth(m.ref, -1))
	case key.Matches(msg, m.keys.NextMonth):
		m.SetReference(calendar.AdvanceMonth(m.ref, 1))
	case key.Matches(msg, m.keys.Today):
		m.setCursor(m.now())
	case key.Matches(msg, m.keys.Select):
		return m, m.LoadDay(m.CursorDate())
	case key.Matches(msg, m.keys.Focus):
		if len(m.messages) > 0 {
			m.focus = focusDay
		}
		return m, nil
	default:
		return m, nil
	}

	if m.ref != before {
		ref := m.ref
		return m, func() tea.Msg { return ReferenceChangedMsg{Ref: ref} }
	}
	return m, nil
}

func (m Model) handleDayKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Focus), key.Matches(msg, m.keys.Back):
		m.focus = focusGrid
	case key.Matches(msg, m.keys.Up):
		if m.msgIndex > 0 {
			m.msgIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.msgIndex < len(m.messages)-1 {
			m.msgIndex++
		}
	case key.Matches(msg, m.keys.Withdraw):
		sel, ok := m.SelectedMessage()
		if !ok {
			return m, nil
		}
		if !sel.Deletable {
			m.err = fmt.Errorf("message %d can no longer be withdrawn", sel.ID)
			return m, nil
		}
		return m, m.withdraw(sel.ID, m.loadedDate)
	}
	return m, nil
}

// SelectedMessage returns the highlighted message of the loaded day.
func (m Model) SelectedMessage() (model.DayMessage, bool) {
	if m.msgIndex < 0 || m.msgIndex >= len(m.messages) {
		return model.DayMessage{}, false
	}
	return m.messages[m.msgIndex], true
}

// LoadDay returns a command that fetches the messages for date.
func (m *Model) LoadDay(date time.Time) tea.Cmd {
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
	if !date.Equal(m.loadedDate) {
		m.msgIndex = 0
	}
	m.loadedDate = date
	m.loading = true
	m.err = nil

	b := m.backend
	return func() tea.Msg {
		msgs, err := b.DayMessages(
			context.Background(),
			date.Year(), date.Month(), date.Day(),
		)
		return DayLoadedMsg{Date: date, Messages: msgs, Err: err}
	}
}

func (m Model) withdraw(id int64, date time.Time) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		err := b.Withdraw(context.Background(), id)
		return WithdrawResultMsg{ID: id, Date: date, Err: err}
	}
}

// Err returns the last load or withdraw error.
func (m Model) Err() error {
	return m.err
}

// View renders the calendar view.
func (m Model) View() string {
	gridView := theme.BorderStyle.
		Padding(0, 1).
		Render(render.Grid(m.grid, m.cursor))

	dayWidth := m.width - lipgloss.Width(gridView) - 2
	if dayWidth < 20 {
		dayWidth = 20
	}
	dayView := theme.PanelStyle.
		Width(dayWidth).
		Render(m.renderDay())

	return lipgloss.JoinHorizontal(lipgloss.Top, gridView, " ", dayView)
}

func (m Model) renderDay() string {
	if m.loadedDate.IsZero() {
		return theme.HelpStyle.Render("Press enter to load the selected day.")
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := titleStyle.Render(m.loadedDate.Format("Monday 2 January 2006"))

	if m.loading {
		return title + "\n\n" + theme.DimmedStyle.Render("Loading...")
	}
	if m.err != nil && len(m.messages) == 0 {
		return title + "\n\n" + theme.ErrorStyle.Render(m.err.Error())
	}
	if len(m.messages) == 0 {
		y, mo, d := m.loadedDate.Date()
		return title + "\n\n" + theme.DimmedStyle.Render(render.EmptyDayText(y, int(mo), d))
	}

	sections := []string{title, ""}
	for i, msg := range m.messages {
		heading := theme.DeliveryStyle(msg.Future).Render(render.DayMessageHeading(msg))
		if msg.Deletable {
			heading += theme.DimmedStyle.Render("  (w to withdraw)")
		}
		lines := []string{
			heading,
			"To: " + msg.Counterpart,
			render.Preview(msg.Body, 200),
		}
		block := strings.Join(lines, "\n")
		if m.focus == focusDay && i == m.msgIndex {
			block = theme.SelectedItemStyle.Render(block)
		} else {
			block = theme.ListItemStyle.Render(block)
		}
		sections = append(sections, block, "")
	}
	if m.err != nil {
		sections = append(sections, theme.ErrorStyle.Render(m.err.Error()))
	}
	return strings.Join(sections, "\n")
}

// SetSize updates the calendar view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
