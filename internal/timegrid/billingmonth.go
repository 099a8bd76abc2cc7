package timegrid

import (
	"time"

	"github.com/raterudder/billcore/internal/types"
)

// daysInMonth returns the number of calendar days in (year, month).
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// closingDay returns the last day of (year, month) included in the
// billing month that closes in that calendar month, clamped to the
// month's actual length.
func closingDay(year int, month time.Month, billingDay int) int {
	d := daysInMonth(year, month)
	if billingDay > d {
		return d
	}
	return billingDay
}

// billingMonthEnd returns the first local instant NOT included in the
// billing month that closes in (year, month): 00:00 local on the day
// after that month's closing day.
func billingMonthEnd(year int, month time.Month, billingDay int, loc *time.Location) time.Time {
	close := closingDay(year, month, billingDay)
	return time.Date(year, month, close+1, 0, 0, 0, 0, loc)
}

// BillingMonthFor returns the billing month key containing localStart,
// the key whose half-open local range
// [prevClosingDay+1 00:00, thisClosingDay+1 00:00) contains localStart,
// keyed by the calendar month of the closing day.
func BillingMonthFor(localStart time.Time, billingDay int, loc *time.Location) types.BillingMonthKey {
	y, m, _ := localStart.Date()
	// The billing month closing in localStart's own calendar month is the
	// only candidate that can ever need to be pushed forward: its lower
	// bound (the previous month's billingMonthEnd) is always <= the 1st
	// of this month, which is always <= localStart.
	for i := 0; i < 3; i++ {
		end := billingMonthEnd(y, m, billingDay, loc)
		if localStart.Before(end) {
			return types.BillingMonthKey{Year: y, Month: int(m)}
		}
		y, m = nextMonth(y, m)
	}
	// unreachable in practice; fall back to the calendar month.
	y, m, _ = localStart.Date()
	return types.BillingMonthKey{Year: y, Month: int(m)}
}

func nextMonth(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

func prevMonth(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// Bounds returns the inclusive local calendar date range of the billing
// month key, independent of any request clipping.
func Bounds(key types.BillingMonthKey, billingDay int) (start, end types.CivilDate) {
	py, pm := prevMonth(key.Year, time.Month(key.Month))
	startClose := closingDay(py, pm, billingDay)
	start = types.CivilDate{Year: py, Month: pm, Day: startClose}.AddDays(1)
	endClose := closingDay(key.Year, time.Month(key.Month), billingDay)
	end = types.CivilDate{Year: key.Year, Month: time.Month(key.Month), Day: endClose}
	return start, end
}

// CalendarDays returns the number of calendar days in the billing month.
func CalendarDays(key types.BillingMonthKey, billingDay int) int {
	start, end := Bounds(key, billingDay)
	return start.DaysUntil(end) + 1
}

// FullMonthIntervalCount returns the number of step-sized intervals
// that would exist across the ENTIRE billing month, regardless of how
// much of it the current request actually covers. CustomerAllocator's
// monthly rule uses this as its denominator so that a request that only
// partially covers a billing month prorates automatically instead of
// always summing to the full charge amount (see DESIGN.md).
func FullMonthIntervalCount(key types.BillingMonthKey, billingDay int, loc *time.Location, step time.Duration) int {
	start, end := Bounds(key, billingDay)
	endExclusive := end.AddDays(1)
	utcStart := time.Date(start.Year, start.Month, start.Day, 0, 0, 0, 0, loc)
	utcEnd := time.Date(endExclusive.Year, endExclusive.Month, endExclusive.Day, 0, 0, 0, 0, loc)
	return int(utcEnd.Sub(utcStart) / step)
}
