package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/theme"
)

// Command names understood by the palette.
const (
	CmdCalendar = "calendar"
	CmdGoto     = "goto"
	CmdToday    = "today"
	CmdInbox    = "inbox"
	CmdSent     = "sent"
	CmdDrafts   = "drafts"
	CmdCompose  = "compose"
	CmdRefresh  = "refresh"
	CmdSettings = "settings"
	CmdHelp     = "help"
	CmdQuit     = "quit"
)

var known = []string{
	CmdCalendar, CmdGoto, CmdToday, CmdInbox, CmdSent,
	CmdDrafts, CmdCompose, CmdRefresh, CmdSettings, CmdHelp, CmdQuit,
}

// aliases map short forms to command names.
var aliases = map[string]string{
	"cal":     CmdCalendar,
	"mailbox": CmdInbox,
	"q":       CmdQuit,
	"new":     CmdCompose,
	"config":  CmdSettings,
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Arg  string
}

// Parse splits input into a command name and its argument.
func Parse(input string) (CommandMsg, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return CommandMsg{}, fmt.Errorf("empty command")
	}

	name := strings.ToLower(fields[0])
	if a, ok := aliases[name]; ok {
		name = a
	}
	found := false
	for _, k := range known {
		if k == name {
			found = true
			break
		}
	}
	if !found {
		return CommandMsg{}, fmt.Errorf("unknown command %q", fields[0])
	}

	cmd := CommandMsg{Name: name}
	if len(fields) > 1 {
		cmd.Arg = strings.Join(fields[1:], " ")
	}
	if name == CmdGoto && cmd.Arg == "" {
		return CommandMsg{}, fmt.Errorf("goto needs a month, e.g. goto 2024-02")
	}
	return cmd, nil
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	err    error
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "calendar, goto 2024-02, inbox, drafts, compose..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(known)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			parsed, err := Parse(value)
			if err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.input.Reset()
			return m, func() tea.Msg {
				return parsed
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	parts := []string{title, m.input.View()}
	if m.err != nil {
		parts = append(parts, "", theme.ErrorStyle.Render(m.err.Error()))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input and clears a stale error.
func (m *Model) Focus() tea.Cmd {
	m.err = nil
	m.input.Reset()
	return m.input.Focus()
}
