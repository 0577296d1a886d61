package mailbox

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mailcal/internal/model"
	"github.com/nhle/mailcal/internal/render"
	"github.com/nhle/mailcal/internal/theme"
)

// EntryItem wraps a model.MailboxEntry so it can be used in a bubbles/list.
type EntryItem struct {
	Entry model.MailboxEntry
}

// FilterValue returns the string used for fuzzy filtering.
func (i EntryItem) FilterValue() string {
	return i.Entry.DisplayName() + " " + i.Entry.Email
}

// Title returns the counterpart's name.
func (i EntryItem) Title() string { return i.Entry.DisplayName() }

// Description returns the first line of the message.
func (i EntryItem) Description() string {
	return render.Preview(i.Entry.Text, 60)
}

// ItemDelegate implements list.ItemDelegate for mailbox rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single mailbox row: folder badge, counterpart, address
// and a preview of the text.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(EntryItem)
	if !ok {
		return
	}
	e := it.Entry

	badge := "FROM"
	if e.Folder == model.FolderSent {
		badge = "TO"
	}
	badge = theme.FolderStyle(string(e.Folder)).Render(fmt.Sprintf("%-4s", badge))

	width := m.Width() - 40
	if width < 10 {
		width = 10
	}

	line := fmt.Sprintf(
		"%s %-20s %s %s",
		badge,
		truncate(e.DisplayName(), 20),
		theme.DimmedStyle.Render("<"+e.Email+">"),
		render.Preview(e.Text, width),
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
