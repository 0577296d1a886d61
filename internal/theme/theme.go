package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps the reader and day list content areas.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders error lines in the status bar and views.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// NewBadgeStyle marks the unseen message counter in the header.
var NewBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// MonthTitleStyle renders the month heading above a calendar grid.
var MonthTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue)

// WeekdayStyle renders the Sun..Sat header row.
var WeekdayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGray)

var DayStyle = lipgloss.NewStyle().
	Foreground(ColorWhite)

// FillerDayStyle renders days of the neighbouring months.
var FillerDayStyle = lipgloss.NewStyle().
	Foreground(ColorSubtle)

var TodayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// CursorDayStyle highlights the selected day.
var CursorDayStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue)

// DeliveryStyle colors a day message by whether it is still pending.
func DeliveryStyle(future bool) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if future {
		return base.Foreground(ColorOrange)
	}
	return base.Foreground(ColorGreen)
}

// FolderStyle returns a color-coded label style for a mailbox folder.
func FolderStyle(folder string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch folder {
	case "received":
		return base.Foreground(ColorBlue)
	case "sent":
		return base.Foreground(ColorMagenta)
	case "drafts":
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}
