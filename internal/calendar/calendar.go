// Package calendar computes the month grid shown by the calendar view.
//
// Grids are Sunday-first and always cover whole weeks: days of the
// previous month pad the first week and days of the next month pad the
// last one.
package calendar

import (
	"fmt"
	"time"
)

// DaysPerWeek is the width of a grid row.
const DaysPerWeek = 7

// ReferenceDate identifies the month currently displayed. It is a value:
// navigation returns a new ReferenceDate rather than mutating shared state.
type ReferenceDate struct {
	Year  int
	Month time.Month
}

// ReferenceFor returns the ReferenceDate of the month containing t.
func ReferenceFor(t time.Time) ReferenceDate {
	return ReferenceDate{Year: t.Year(), Month: t.Month()}
}

// Today returns the ReferenceDate of the current month in local time.
func Today() ReferenceDate {
	return ReferenceFor(time.Now())
}

// String formats the reference as YYYY-MM.
func (r ReferenceDate) String() string {
	return fmt.Sprintf("%04d-%02d", r.Year, int(r.Month))
}

// Title formats the reference as "February 2024".
func (r ReferenceDate) Title() string {
	return fmt.Sprintf("%s %d", r.Month, r.Year)
}

// ParseReference parses a YYYY-MM string.
func ParseReference(s string) (ReferenceDate, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return ReferenceDate{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return ReferenceFor(t), nil
}

// Advance returns the reference delta months away.
func (r ReferenceDate) Advance(delta int) ReferenceDate {
	return AdvanceMonth(r, delta)
}

// FirstDay returns midnight UTC on the 1st of the referenced month.
func (r ReferenceDate) FirstDay() time.Time {
	mustValidMonth(r.Month)
	return time.Date(r.Year, r.Month, 1, 0, 0, 0, 0, time.UTC)
}

// AdvanceMonth adds delta months to ref, rolling the year over at month
// boundaries. The computation is anchored on the 1st of the month so that
// month lengths never cause a month to be skipped.
func AdvanceMonth(ref ReferenceDate, delta int) ReferenceDate {
	return ReferenceFor(ref.FirstDay().AddDate(0, delta, 0))
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	mustValidMonth(month)
	switch month {
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// WeekdayIndex returns the 0-based weekday (0 = Sunday) of the given date.
func WeekdayIndex(year int, month time.Month, day int) int {
	return int(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Weekday())
}

func mustValidMonth(month time.Month) {
	if month < time.January || month > time.December {
		panic(fmt.Sprintf("calendar: month %d out of range", int(month)))
	}
}
