// Package config is the settings view: backend address, session cookie,
// poll interval and log level. Changes are tested against the backend
// before they are saved.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/theme"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeForm       Mode = iota // Editing
	ModeValidating             // Testing connection
	ModeResult                 // Show test/save result
)

// Settings are the values the view edits.
type Settings struct {
	BaseURL string

	// Session is a new session cookie value. Empty keeps the stored one.
	Session string

	PollIntervalSec int
	LogLevel        string
}

// SubmitMsg asks the application to test and save s.
type SubmitMsg struct {
	Settings Settings
}

// ResultMsg carries the outcome of a SubmitMsg.
type ResultMsg struct {
	// Detail describes what the connection test found.
	Detail string
	Err    error
}

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

var logLevels = []string{"debug", "info", "warn", "error"}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL  string
	session  string
	interval string
	level    string
}

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	current Settings

	// submitted is what is being tested; it becomes current on success.
	submitted Settings

	detail  string
	err     error
	spinner spinner.Model

	keys          *keys.KeyMap
	width, height int
}

// New creates a settings view showing current.
func New(k *keys.KeyMap, current Settings, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	current.Session = ""
	return Model{
		mode:    ModeForm,
		fb:      &formBindings{},
		current: current,
		spinner: sp,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Start opens the form with the current values.
func (m *Model) Start() tea.Cmd {
	m.fb.baseURL = m.current.BaseURL
	m.fb.session = "" // Never pre-fill credentials
	m.fb.interval = strconv.Itoa(m.current.PollIntervalSec)
	m.fb.level = m.current.LogLevel
	if m.fb.level == "" {
		m.fb.level = "info"
	}
	m.detail = ""
	m.err = nil
	return m.openForm()
}

func (m *Model) openForm() tea.Cmd {
	m.mode = ModeForm
	m.form = m.buildForm()
	return m.form.Init()
}

// Current returns the settings last saved.
func (m Model) Current() Settings {
	return m.current
}

// Mode returns the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.mode = ModeResult
		m.detail = msg.Detail
		m.err = msg.Err
		if msg.Err == nil {
			m.current = m.submitted
			m.current.Session = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			// Only allow escape during validation
			if key.Matches(msg, m.keys.Back) {
				m.mode = ModeForm
				return m, done
			}
			return m, nil
		case ModeResult:
			return m.handleResultKeys(msg)
		case ModeForm:
			if key.Matches(msg, m.keys.Back) {
				return m, done
			}
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, done
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.err != nil {
			return m.submit()
		}
	case "e":
		if m.err != nil {
			cmd := m.openForm()
			return m, cmd
		}
	case "enter", "esc":
		return m, done
	}
	return m, nil
}

func (m Model) submit() (Model, tea.Cmd) {
	s, err := m.settings()
	if err != nil {
		m.err = err
		cmd := m.openForm()
		return m, cmd
	}
	m.submitted = s
	m.mode = ModeValidating
	m.err = nil
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return SubmitMsg{Settings: s} },
	)
}

// settings reads the form values.
func (m Model) settings() (Settings, error) {
	interval, err := strconv.Atoi(strings.TrimSpace(m.fb.interval))
	if err != nil || interval <= 0 {
		return Settings{}, fmt.Errorf("poll interval must be a positive number of seconds")
	}
	return Settings{
		BaseURL:         strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/"),
		Session:         strings.TrimSpace(m.fb.session),
		PollIntervalSec: interval,
		LogLevel:        m.fb.level,
	}, nil
}

func done() tea.Msg { return DoneMsg{} }

// View renders the settings view based on the current mode.
func (m Model) View() string {
	switch m.mode {
	case ModeValidating:
		return m.viewValidating()
	case ModeResult:
		return m.viewResult()
	default:
		return m.viewForm()
	}
}

func (m Model) viewForm() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Settings") + "\n"
	if m.err != nil {
		content += theme.ErrorStyle.Render(m.err.Error()) + "\n\n"
	}
	content += m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(content)
}

func (m Model) viewValidating() string {
	content := fmt.Sprintf(
		"%s Testing connection to %s...\n\nPress esc to cancel.",
		m.spinner.View(), m.submitted.BaseURL,
	)
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(content)
}

func (m Model) viewResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var content string
	if m.err != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Connection failed, settings not saved") + "\n\n" +
			m.err.Error() + "\n\n" +
			hint.Render("r retry | e edit | enter/esc back")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		content = okStyle.Render("Settings saved") + "\n\n"
		if m.detail != "" {
			content += m.detail + "\n"
		}
		content += "Restart mailcal to use a changed server or poll interval.\n\n" +
			hint.Render("enter/esc back")
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) buildForm() *huh.Form {
	levels := make([]huh.Option[string], len(logLevels))
	for i, l := range logLevels {
		levels[i] = huh.NewOption(l, l)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server").
				Description("Backend URL (e.g., https://mail.example.com)").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Session").
				Description("Session cookie value; leave blank to keep the stored one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.session),
			huh.NewInput().
				Title("Poll interval").
				Description("Seconds between inbox checks").
				Value(&m.fb.interval).
				Validate(validateInterval),
			huh.NewSelect[string]().
				Title("Log level").
				Options(levels...).
				Value(&m.fb.level),
		),
	).WithWidth(m.formWidth())
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateInterval(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("interval is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("interval must be a positive number")
	}
	return nil
}
