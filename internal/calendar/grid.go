package calendar

import (
	"time"
)

// CellKind distinguishes days of the displayed month from filler days.
type CellKind int

const (
	// PreviousMonthFiller pads the first week with the tail of the
	// previous month.
	PreviousMonthFiller CellKind = iota
	// CurrentMonthDay is a day of the displayed month.
	CurrentMonthDay
	// NextMonthFiller pads the last week with the start of the next month.
	NextMonthFiller
)

func (k CellKind) String() string {
	switch k {
	case PreviousMonthFiller:
		return "previous"
	case CurrentMonthDay:
		return "current"
	case NextMonthFiller:
		return "next"
	default:
		return "unknown"
	}
}

// Cell is a single day in a Grid. Year and Month are those of the day the
// cell represents, so filler cells carry the adjacent month.
type Cell struct {
	Kind  CellKind
	Year  int
	Month time.Month
	Day   int
	Today bool
}

// Selectable reports whether the cell may trigger a message lookup.
// Filler cells are shown for alignment only.
func (c Cell) Selectable() bool {
	return c.Kind == CurrentMonthDay
}

// Date returns the cell's day at midnight in loc.
func (c Cell) Date(loc *time.Location) time.Time {
	return time.Date(c.Year, c.Month, c.Day, 0, 0, 0, 0, loc)
}

// Grid is the week-aligned, Sunday-first sequence of cells for one month.
type Grid struct {
	Ref      ReferenceDate
	Cells    []Cell
	Leading  int
	Trailing int
}

// BuildGrid computes the grid for month of year, marking today's cell
// using the local clock.
func BuildGrid(year int, month time.Month) Grid {
	return BuildGridAt(year, month, time.Now())
}

// BuildGridAt computes the grid for month of year and marks the cell
// matching today's calendar date, if the month is today's month.
func BuildGridAt(year int, month time.Month, today time.Time) Grid {
	ref := ReferenceDate{Year: year, Month: month}
	lastDay := DaysInMonth(year, month)
	firstWeekday := WeekdayIndex(year, month, 1)
	lastWeekday := WeekdayIndex(year, month, lastDay)

	prev := AdvanceMonth(ref, -1)
	next := AdvanceMonth(ref, 1)
	prevLastDay := DaysInMonth(prev.Year, prev.Month)

	trailing := DaysPerWeek - 1 - lastWeekday
	cells := make([]Cell, 0, firstWeekday+lastDay+trailing)

	for d := prevLastDay - firstWeekday + 1; d <= prevLastDay; d++ {
		cells = append(cells, Cell{
			Kind:  PreviousMonthFiller,
			Year:  prev.Year,
			Month: prev.Month,
			Day:   d,
		})
	}

	ty, tm, td := today.Date()
	isThisMonth := ty == year && tm == month
	for d := 1; d <= lastDay; d++ {
		cells = append(cells, Cell{
			Kind:  CurrentMonthDay,
			Year:  year,
			Month: month,
			Day:   d,
			Today: isThisMonth && d == td,
		})
	}

	for d := 1; d <= trailing; d++ {
		cells = append(cells, Cell{
			Kind:  NextMonthFiller,
			Year:  next.Year,
			Month: next.Month,
			Day:   d,
		})
	}

	return Grid{
		Ref:      ref,
		Cells:    cells,
		Leading:  firstWeekday,
		Trailing: trailing,
	}
}

// Weeks splits the grid into rows of DaysPerWeek cells.
func (g Grid) Weeks() [][]Cell {
	weeks := make([][]Cell, 0, len(g.Cells)/DaysPerWeek)
	for i := 0; i+DaysPerWeek <= len(g.Cells); i += DaysPerWeek {
		weeks = append(weeks, g.Cells[i:i+DaysPerWeek])
	}
	return weeks
}

// DaysInMonth returns the number of CurrentMonthDay cells.
func (g Grid) DaysInMonth() int {
	return len(g.Cells) - g.Leading - g.Trailing
}

// Index returns the position of day of the displayed month within Cells,
// or -1 if day is not in the month.
func (g Grid) Index(day int) int {
	if day < 1 || day > g.DaysInMonth() {
		return -1
	}
	return g.Leading + day - 1
}

// TodayCell returns the cell marked as today, if any.
func (g Grid) TodayCell() (Cell, bool) {
	for _, c := range g.Cells {
		if c.Today {
			return c, true
		}
	}
	return Cell{}, false
}
