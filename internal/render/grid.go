package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mailcal/internal/calendar"
	"github.com/nhle/mailcal/internal/theme"
)

var weekdayNames = [calendar.DaysPerWeek]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// gridWidth is the printed width of one week: seven two-column cells
// separated by single spaces.
const gridWidth = calendar.DaysPerWeek*3 - 1

// Grid draws g as a month title, a weekday header, and one line per week.
// Filler days are dimmed, today is highlighted, and cursorDay (a day of
// the grid's month, or 0 for none) is inverted.
func Grid(g calendar.Grid, cursorDay int) string {
	var b strings.Builder

	title := theme.MonthTitleStyle.
		Width(gridWidth).
		Align(lipgloss.Center).
		Render(g.Ref.Title())
	b.WriteString(title)
	b.WriteByte('\n')

	header := make([]string, len(weekdayNames))
	for i, name := range weekdayNames {
		header[i] = theme.WeekdayStyle.Render(name)
	}
	b.WriteString(strings.Join(header, " "))

	for _, week := range g.Weeks() {
		b.WriteByte('\n')
		cells := make([]string, len(week))
		for i, cell := range week {
			cells[i] = renderCell(cell, cursorDay)
		}
		b.WriteString(strings.Join(cells, " "))
	}
	return b.String()
}

func renderCell(cell calendar.Cell, cursorDay int) string {
	label := fmt.Sprintf("%2d", cell.Day)

	if !cell.Selectable() {
		return theme.FillerDayStyle.Render(label)
	}

	style := theme.DayStyle
	if cell.Today {
		style = theme.TodayStyle
	}
	if cell.Day == cursorDay {
		style = theme.CursorDayStyle
	}
	return style.Render(label)
}
