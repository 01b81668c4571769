package book

import (
	"fmt"
	"time"
)

// Layouts for the calendar string types. Both sort lexicographically, so
// range filters (>= start, <= end) are correct under plain string comparison.
const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Day is a calendar day in "YYYY-MM-DD" form.
type Day string

// YearMonth is a calendar month in "YYYY-MM" form.
type YearMonth string

// ParseDay validates s as a calendar day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	// time.Parse normalizes (e.g. 2025-02-30 -> March); reject anything that
	// does not round-trip exactly.
	if t.Format(dayLayout) != s {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Day(s), nil
}

// ParseYearMonth validates s as a calendar month.
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil || t.Format(monthLayout) != s {
		return "", fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return YearMonth(s), nil
}

// DayOf formats t as a Day in t's location.
func DayOf(t time.Time) Day { return Day(t.Format(dayLayout)) }

// Month returns the YearMonth the day falls in.
func (d Day) Month() YearMonth { return YearMonth(d[:7]) }

func (d Day) String() string { return string(d) }

// Time returns the day at midnight UTC.
func (d Day) Time() time.Time {
	t, _ := time.Parse(dayLayout, string(d))
	return t
}

func (ym YearMonth) String() string { return string(ym) }

// Bounds returns the first and last calendar day of the month. The last day
// is computed from the month's actual length, not a fixed day count.
func (ym YearMonth) Bounds() (first, last Day) {
	t, _ := time.Parse(monthLayout, string(ym))
	end := t.AddDate(0, 1, -1)
	return DayOf(t), DayOf(end)
}

// Contains reports whether d falls in the month.
func (ym YearMonth) Contains(d Day) bool { return d.Month() == ym }
