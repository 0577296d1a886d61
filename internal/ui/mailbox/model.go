package mailbox

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcal/internal/api"
	"github.com/nhle/mailcal/internal/keys"
	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/theme"
)

// EntriesLoadedMsg carries the entries of a folder.
type EntriesLoadedMsg struct {
	Folder  model.Folder
	Entries []model.MailboxEntry
	Err     error
}

// Action identifies what the user asked to do with an entry.
type Action int

const (
	ActionOpen Action = iota
	ActionReply
	ActionForward
	ActionDelete
	ActionExport
)

// ActionMsg asks the parent to act on an entry.
type ActionMsg struct {
	Action Action
	Entry  model.MailboxEntry
}

// Model is the mailbox view: the received or sent list.
type Model struct {
	list    list.Model
	backend api.Backend
	keys    *keys.KeyMap
	folder  model.Folder
	err     error
	width   int
	height  int
}

// New creates a mailbox view showing the received folder.
func New(backend api.Backend, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.HeaderStyle
	l.DisableQuitKeybindings()

	m := Model{
		list:    l,
		backend: backend,
		keys:    k,
		width:   width,
		height:  height,
	}
	m.setFolder(model.FolderReceived)
	return m
}

// Init loads the current folder.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Folder returns the folder being shown.
func (m Model) Folder() model.Folder {
	return m.folder
}

// SetFolder switches to folder without loading it.
func (m *Model) SetFolder(folder model.Folder) {
	m.setFolder(folder)
}

func (m *Model) setFolder(folder model.Folder) {
	m.folder = folder
	if folder == model.FolderSent {
		m.list.Title = "Sent"
	} else {
		m.list.Title = "Received"
	}
}

// Load returns a command that fetches the current folder.
func (m Model) Load() tea.Cmd {
	b := m.backend
	folder := m.folder
	return func() tea.Msg {
		entries, err := b.List(context.Background(), folder)
		return EntriesLoadedMsg{Folder: folder, Entries: entries, Err: err}
	}
}

// Filtering reports whether the list's filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Update handles messages for the mailbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EntriesLoadedMsg:
		if msg.Folder != m.folder {
			return m, nil
		}
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Entries))
		for i, e := range msg.Entries {
			items[i] = EntryItem{Entry: e}
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.SwitchFolder):
			m.setFolder(m.folder.Other())
			m.list.ResetFilter()
			return m, tea.Batch(m.list.SetItems(nil), m.Load())
		case key.Matches(msg, m.keys.Select):
			return m, m.emit(ActionOpen)
		case key.Matches(msg, m.keys.Reply):
			if m.folder == model.FolderReceived {
				return m, m.emit(ActionReply)
			}
			return m, nil
		case key.Matches(msg, m.keys.Forward):
			return m, m.emit(ActionForward)
		case key.Matches(msg, m.keys.Delete):
			if m.folder == model.FolderReceived {
				return m, m.emit(ActionDelete)
			}
			return m, nil
		case key.Matches(msg, m.keys.Export):
			return m, m.emit(ActionExport)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) emit(action Action) tea.Cmd {
	entry, ok := m.SelectedEntry()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		return ActionMsg{Action: action, Entry: entry}
	}
}

// SelectedEntry returns the highlighted entry.
func (m Model) SelectedEntry() (model.MailboxEntry, bool) {
	item, ok := m.list.SelectedItem().(EntryItem)
	if !ok {
		return model.MailboxEntry{}, false
	}
	return item.Entry, true
}

// Err returns the last load error.
func (m Model) Err() error {
	return m.err
}

// View renders the mailbox view.
func (m Model) View() string {
	if m.err != nil && len(m.list.Items()) == 0 {
		return m.list.View() + "\n" + theme.ErrorStyle.Render(m.err.Error())
	}
	return m.list.View()
}

// SetSize updates the mailbox view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
