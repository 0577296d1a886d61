package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Calendar
	PrevMonth key.Binding
	NextMonth key.Binding
	Today     key.Binding
	Focus     key.Binding
	Withdraw  key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Views
	Calendar key.Binding
	Mailbox  key.Binding
	Drafts   key.Binding
	Compose  key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Settings view
	Settings key.Binding

	// Mailbox actions
	SwitchFolder key.Binding
	Reply        key.Binding
	Forward      key.Binding
	Delete       key.Binding
	Export       key.Binding

	// Compose
	SaveDraft key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down / next week"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up / previous week"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous day"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next day"),
		),
		PrevMonth: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous month"),
		),
		NextMonth: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next month"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "grid / day list"),
		),
		Withdraw: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "withdraw"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Calendar: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "calendar"),
		),
		Mailbox: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mailbox"),
		),
		Drafts: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "drafts"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compose"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Settings: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "settings"),
		),
		SwitchFolder: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "received / sent"),
		),
		Reply: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reply"),
		),
		Forward: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "forward"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export .eml"),
		),
		SaveDraft: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save draft"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Calendar, k.Mailbox, k.Drafts, k.Compose,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.PrevMonth, k.NextMonth, k.Today, k.Focus, k.Withdraw},
		{k.SwitchFolder, k.Reply, k.Forward, k.Delete, k.Export},
		{k.Calendar, k.Mailbox, k.Drafts, k.Compose, k.SaveDraft},
		{k.Command, k.Help, k.Refresh, k.Settings},
	}
}

// Section is a titled group of bindings shown in the help overlay.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Sections returns the bindings grouped by the view they apply to.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Global", Bindings: []key.Binding{k.Calendar, k.Mailbox, k.Drafts, k.Compose, k.Command, k.Refresh, k.Settings, k.Help, k.Quit}},
		{Title: "Calendar", Bindings: []key.Binding{k.Left, k.Right, k.Up, k.Down, k.PrevMonth, k.NextMonth, k.Today, k.Select, k.Focus, k.Withdraw}},
		{Title: "Mailbox", Bindings: []key.Binding{k.SwitchFolder, k.Select, k.Reply, k.Forward, k.Delete, k.Export, k.Back}},
		{Title: "Compose", Bindings: []key.Binding{k.SaveDraft, k.Back}},
	}
}
