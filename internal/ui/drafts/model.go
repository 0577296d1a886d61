package drafts

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/theme"
)

// LoadedMsg carries the saved drafts and the profiles of their recipients.
type LoadedMsg struct {
	Drafts     []model.Draft
	Recipients map[int64]model.User
	Err        error
}

// EditMsg asks the parent to open a draft in the composer.
type EditMsg struct {
	Draft model.Draft
}

// DeleteMsg asks the parent to delete a draft.
type DeleteMsg struct {
	Draft model.Draft
}

// Item wraps a draft for the list. Recipient is nil when the draft has no
// recipient or the profile could not be fetched.
type Item struct {
	Draft     model.Draft
	Recipient *model.User
}

// FilterValue returns the draft text.
func (i Item) FilterValue() string { return render.PlainText(i.Draft.Text) }

// Title returns the first line of the draft.
func (i Item) Title() string {
	if p := render.Preview(i.Draft.Text, 70); p != "" {
		return p
	}
	return "(empty)"
}

// Description returns the draft id and its recipient.
func (i Item) Description() string {
	desc := fmt.Sprintf("Draft #%d", i.Draft.ID)
	switch {
	case i.Recipient != nil:
		desc += " · To: " + i.Recipient.Label()
	case i.Draft.RecipientID > 0:
		desc += fmt.Sprintf(" · To: user %d", i.Draft.RecipientID)
	}
	return desc
}

// Model is the drafts view.
type Model struct {
	list    list.Model
	backend api.Backend
	keys    *keys.KeyMap
	err     error
	width   int
	height  int
}

// New creates a drafts view.
func New(backend api.Backend, k *keys.KeyMap, width, height int) Model {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = d.Styles.SelectedTitle.
		Foreground(theme.ColorBlue).
		BorderForeground(theme.ColorBlue)
	d.Styles.SelectedDesc = d.Styles.SelectedDesc.
		Foreground(theme.ColorGray).
		BorderForeground(theme.ColorBlue)

	l := list.New([]list.Item{}, d, width, height-2)
	l.Title = "Drafts"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("draft", "drafts")
	l.DisableQuitKeybindings()

	return Model{
		list:    l,
		backend: backend,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init loads the drafts.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a command that fetches the drafts, then each distinct
// recipient's profile. A failed profile lookup leaves that recipient
// unresolved.
func (m Model) Load() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx := context.Background()
		drafts, err := b.Drafts(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}

		users := make(map[int64]model.User)
		for _, d := range drafts {
			if d.RecipientID <= 0 {
				continue
			}
			if _, done := users[d.RecipientID]; done {
				continue
			}
			u, err := b.User(ctx, d.RecipientID)
			if err != nil {
				continue
			}
			users[d.RecipientID] = *u
		}
		return LoadedMsg{Drafts: drafts, Recipients: users}
	}
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages for the drafts view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Drafts))
		for i, d := range msg.Drafts {
			item := Item{Draft: d}
			if u, ok := msg.Recipients[d.RecipientID]; ok {
				item.Recipient = &u
			}
			items[i] = item
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Select):
			if d, ok := m.Selected(); ok {
				return m, func() tea.Msg { return EditMsg{Draft: d} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if d, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteMsg{Draft: d} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted draft.
func (m Model) Selected() (model.Draft, bool) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Draft{}, false
	}
	return item.Draft, true
}

// Err returns the last load error.
func (m Model) Err() error {
	return m.err
}

// View renders the drafts view.
func (m Model) View() string {
	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), theme.ErrorStyle.Render(m.err.Error()))
	}
	return m.list.View()
}

// SetSize updates the drafts view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
