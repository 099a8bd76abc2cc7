package types

import (
	"fmt"
	"time"
)

// CivilDate is a local calendar date with no time-of-day or zone component.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// CivilDateOf returns the civil date of t projected into t's own location.
func CivilDateOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// String formats the date as YYYY-MM-DD.
func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseCivilDate parses a YYYY-MM-DD string.
func ParseCivilDate(s string) (CivilDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("invalid civil date %q: %w", s, err)
	}
	return CivilDateOf(t), nil
}

// Before reports whether d is strictly earlier than other.
func (d CivilDate) Before(other CivilDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d is strictly later than other.
func (d CivilDate) After(other CivilDate) bool {
	return other.Before(d)
}

// AddDays returns the civil date n days after d, computed in a fixed
// location since civil dates carry no zone of their own.
func (d CivilDate) AddDays(n int) CivilDate {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return CivilDateOf(t)
}

// DaysUntil returns the number of days from d to other (may be negative).
func (d CivilDate) DaysUntil(other CivilDate) int {
	dt := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	ot := time.Date(other.Year, other.Month, other.Day, 0, 0, 0, 0, time.UTC)
	return int(ot.Sub(dt).Hours() / 24)
}

// MonthDay is a (month, day) pair with the year ignored, used for
// applicability windows that repeat annually.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ordinal returns a value usable for lexical (month, day) comparison.
func (md MonthDay) ordinal() int {
	return int(md.Month)*100 + md.Day
}

// Before reports whether md is earlier in the year than other.
func (md MonthDay) Before(other MonthDay) bool {
	return md.ordinal() < other.ordinal()
}

// InWindow reports whether md falls within [start, end] inclusive, where a
// window with end < start wraps around the new year boundary (e.g. Oct 1 -
// May 31 covers both Dec 31 and Jan 1).
func (md MonthDay) InWindow(start, end MonthDay) bool {
	o, s, e := md.ordinal(), start.ordinal(), end.ordinal()
	if s <= e {
		return s <= o && o <= e
	}
	return o >= s || o <= e
}
