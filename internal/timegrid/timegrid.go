// Package timegrid builds and labels the interval index a billing
// computation walks: for a requested local-date range it produces one
// row per usage interval with both its UTC and local timestamps, its
// day-class, and the billing month it belongs to.
package timegrid

import (
	"fmt"
	"time"

	"github.com/raterudder/billcore/internal/types"
)

// Interval is a single labeled row of the grid.
type Interval struct {
	UTCStart        time.Time
	UTCEnd          time.Time
	LocalStart      time.Time
	LocalEnd        time.Time
	DayClass        types.DayClass
	BillingMonthKey types.BillingMonthKey
}

// Grid is the ordered, labeled interval index for one billing
// computation. It is owned by a single computation and discarded after
// result emission.
type Grid struct {
	Intervals []Interval
	Loc       *time.Location
	Step      time.Duration
}

// Build constructs the TimeGrid covering [period.StartLocalDate,
// period.EndLocalDate] inclusive, at the customer's cadence, labeling
// each interval's day class against holidays and its billing month
// against profile.BillingDay.
func Build(profile types.CustomerProfile, period types.RequestPeriod, holidays map[types.CivilDate]bool) (*Grid, error) {
	if err := types.ValidateCustomerProfile(profile); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		return nil, types.NewError(types.KindZoneUnknown, fmt.Sprintf("unknown timezone %q", profile.Timezone), err)
	}

	step := time.Duration(profile.BillingIntervalMinutes) * time.Minute
	if step <= 0 || (24*time.Hour)%step != 0 {
		return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("billing interval %s does not divide 24h evenly", step), nil)
	}

	start := period.StartLocalDate
	endExclusive := period.EndLocalDate.AddDays(1)
	if !start.Before(endExclusive) {
		return nil, types.NewError(types.KindInputValidation, "request_period start must be on or before end", nil)
	}

	utcStart := time.Date(start.Year, start.Month, start.Day, 0, 0, 0, 0, loc)
	utcEnd := time.Date(endExclusive.Year, endExclusive.Month, endExclusive.Day, 0, 0, 0, 0, loc)

	total := utcEnd.Sub(utcStart)
	if total <= 0 || total%step != 0 {
		return nil, types.NewError(types.KindInconsistency, fmt.Sprintf("requested period does not divide evenly into %s steps (got %s)", step, total), nil)
	}
	count := int(total / step)

	intervals := make([]Interval, 0, count)
	for i := 0; i < count; i++ {
		s := utcStart.Add(time.Duration(i) * step)
		e := s.Add(step)
		localStart := s.In(loc)
		localEnd := e.In(loc)

		dayClass := classifyDay(localStart, holidays)
		key := BillingMonthFor(localStart, profile.BillingDay, loc)

		intervals = append(intervals, Interval{
			UTCStart:        s,
			UTCEnd:          e,
			LocalStart:      localStart,
			LocalEnd:        localEnd,
			DayClass:        dayClass,
			BillingMonthKey: key,
		})
	}

	return &Grid{Intervals: intervals, Loc: loc, Step: step}, nil
}

// classifyDay assigns weekday/weekend/holiday classification: holidays
// override the weekday/weekend split.
func classifyDay(localStart time.Time, holidays map[types.CivilDate]bool) types.DayClass {
	date := types.CivilDateOf(localStart)
	if holidays[date] {
		return types.DayClassHoliday
	}
	switch localStart.Weekday() {
	case time.Saturday, time.Sunday:
		return types.DayClassWeekend
	default:
		return types.DayClassWeekday
	}
}
