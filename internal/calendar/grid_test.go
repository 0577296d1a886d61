package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countKind(g Grid, kind CellKind) int {
	n := 0
	for _, c := range g.Cells {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

func countToday(g Grid) int {
	n := 0
	for _, c := range g.Cells {
		if c.Today {
			n++
		}
	}
	return n
}

// A fixed "today" far from any month under test.
var farAway = time.Date(1750, time.January, 1, 12, 0, 0, 0, time.UTC)

func TestBuildGridLeapFebruary(t *testing.T) {
	g := BuildGridAt(2024, time.February, farAway)

	require.Len(t, g.Cells, 35)
	assert.Equal(t, 4, g.Leading)
	assert.Equal(t, 2, g.Trailing)
	assert.Equal(t, 29, countKind(g, CurrentMonthDay))

	// Leading fillers are the last four days of January, ascending.
	for i, want := range []int{28, 29, 30, 31} {
		c := g.Cells[i]
		assert.Equal(t, PreviousMonthFiller, c.Kind)
		assert.Equal(t, time.January, c.Month)
		assert.Equal(t, 2024, c.Year)
		assert.Equal(t, want, c.Day)
	}

	// Trailing fillers start March at 1.
	assert.Equal(t, Cell{Kind: NextMonthFiller, Year: 2024, Month: time.March, Day: 1}, g.Cells[33])
	assert.Equal(t, Cell{Kind: NextMonthFiller, Year: 2024, Month: time.March, Day: 2}, g.Cells[34])
}

func TestBuildGridExactFourWeeks(t *testing.T) {
	// February 2015 starts on a Sunday and ends on a Saturday.
	g := BuildGridAt(2015, time.February, farAway)

	assert.Len(t, g.Cells, 28)
	assert.Equal(t, 0, g.Leading)
	assert.Equal(t, 0, g.Trailing)
	assert.Equal(t, 1, g.Cells[0].Day)
	assert.Equal(t, CurrentMonthDay, g.Cells[0].Kind)
}

func TestBuildGridYearBoundaries(t *testing.T) {
	jan := BuildGridAt(2022, time.January, farAway)
	// 1 January 2022 is a Saturday, so the grid starts on 26 December 2021.
	require.Equal(t, 6, jan.Leading)
	first := jan.Cells[0]
	assert.Equal(t, 2021, first.Year)
	assert.Equal(t, time.December, first.Month)
	assert.Equal(t, 26, first.Day)

	dec := BuildGridAt(2021, time.December, farAway)
	// 31 December 2021 is a Friday: one filler from January 2022.
	require.Equal(t, 1, dec.Trailing)
	last := dec.Cells[len(dec.Cells)-1]
	assert.Equal(t, 2022, last.Year)
	assert.Equal(t, time.January, last.Month)
	assert.Equal(t, 1, last.Day)
}

func TestBuildGridInvariantsAllMonths(t *testing.T) {
	for year := 1899; year <= 2101; year++ {
		for month := time.January; month <= time.December; month++ {
			g := BuildGridAt(year, month, farAway)

			if len(g.Cells)%DaysPerWeek != 0 {
				t.Fatalf("%d-%02d: grid length %d not a multiple of 7", year, month, len(g.Cells))
			}
			if got, want := countKind(g, CurrentMonthDay), DaysInMonth(year, month); got != want {
				t.Fatalf("%d-%02d: %d current days, want %d", year, month, got, want)
			}
			if got := countKind(g, PreviousMonthFiller); got != WeekdayIndex(year, month, 1) {
				t.Fatalf("%d-%02d: %d leading fillers", year, month, got)
			}
			lastWeekday := WeekdayIndex(year, month, DaysInMonth(year, month))
			if got := countKind(g, NextMonthFiller); got != 6-lastWeekday {
				t.Fatalf("%d-%02d: %d trailing fillers", year, month, got)
			}
			if g.Cells[0].Kind == CurrentMonthDay && g.Cells[0].Day != 1 {
				t.Fatalf("%d-%02d: grid does not start on day 1", year, month)
			}
			if n := countToday(g); n != 0 {
				t.Fatalf("%d-%02d: %d today cells for a different month", year, month, n)
			}
		}
	}
}

func TestBuildGridToday(t *testing.T) {
	today := time.Date(2026, time.October, 17, 9, 30, 0, 0, time.Local)

	g := BuildGridAt(2026, time.October, today)
	require.Equal(t, 1, countToday(g))
	c, ok := g.TodayCell()
	require.True(t, ok)
	assert.Equal(t, 17, c.Day)
	assert.Equal(t, CurrentMonthDay, c.Kind)

	// Same month number in another year is not today.
	assert.Equal(t, 0, countToday(BuildGridAt(2025, time.October, today)))
	// Neighbouring months have no today cell either.
	assert.Equal(t, 0, countToday(BuildGridAt(2026, time.November, today)))
}

func TestGridWeeksAndIndex(t *testing.T) {
	g := BuildGridAt(2024, time.February, farAway)

	weeks := g.Weeks()
	require.Len(t, weeks, 5)
	for _, w := range weeks {
		assert.Len(t, w, DaysPerWeek)
	}
	assert.Equal(t, 29, g.DaysInMonth())

	idx := g.Index(1)
	require.Equal(t, 4, idx)
	assert.Equal(t, 1, g.Cells[idx].Day)
	assert.Equal(t, 29, g.Cells[g.Index(29)].Day)
	assert.Equal(t, -1, g.Index(0))
	assert.Equal(t, -1, g.Index(30))
}

func TestCellSelectable(t *testing.T) {
	g := BuildGridAt(2024, time.February, farAway)
	assert.False(t, g.Cells[0].Selectable())
	assert.True(t, g.Cells[g.Index(10)].Selectable())
	assert.False(t, g.Cells[len(g.Cells)-1].Selectable())
}
