package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/theme"
)

// BackMsg signals the parent to navigate back to the mailbox.
type BackMsg struct{}

// LoadedMsg carries an opened message.
type LoadedMsg struct {
	Entry model.MailboxEntry
	Body  *model.MessageBody
	Err   error
}

// Model is the message reader: a scrollable plain-text rendering of one
// message.
type Model struct {
	entry    model.MailboxEntry
	body     *model.MessageBody
	err      error
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new reader view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reader view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the reader view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.SetMessage(msg.Entry, msg.Body, msg.Err)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Entry returns the message being shown.
func (m Model) Entry() (model.MailboxEntry, *model.MessageBody) {
	return m.entry, m.body
}

// SetLoading shows a placeholder for entry until its body arrives.
func (m *Model) SetLoading(entry model.MailboxEntry) {
	m.entry = entry
	m.body = nil
	m.err = nil
	m.loading = true
}

// SetMessage shows entry with body, or err if opening failed.
func (m *Model) SetMessage(entry model.MailboxEntry, body *model.MessageBody, err error) {
	m.entry = entry
	m.body = body
	m.err = err
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// View renders the reader view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Opening message...")
	}
	return m.viewport.View()
}

func (m Model) renderContent() string {
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	label := "From:"
	if m.entry.Folder == model.FolderSent {
		label = "To:  "
	}

	var sections []string
	sections = append(sections, fmt.Sprintf(
		"%s  %s %s",
		metaStyle.Render(label),
		valStyle.Render(m.entry.DisplayName()),
		metaStyle.Render("<"+m.entry.Email+">"),
	))
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Id:  "),
		valStyle.Render(fmt.Sprintf("%d", m.entry.ID)),
	))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	switch {
	case m.err != nil:
		sections = append(sections, theme.ErrorStyle.Render(m.err.Error()))
	case m.body == nil || strings.TrimSpace(render.PlainText(m.body.Text)) == "":
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No text"))
	default:
		text := render.PlainText(m.body.Text)
		if m.width > 8 {
			text = lipgloss.NewStyle().Width(min(m.width-4, 100)).Render(text)
		}
		sections = append(sections, text)
	}

	if m.body != nil && m.body.Media != "" {
		sections = append(sections, "", metaStyle.Render("Attachment: "+m.body.Media+" (open it in the web client)"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the reader view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if !m.loading && (m.body != nil || m.err != nil) {
		m.viewport.SetContent(m.renderContent())
	}
}
