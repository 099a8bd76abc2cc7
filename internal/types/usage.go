package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// UsageInterval is a single observed interval of customer usage.
// Energy is kWh consumed during the interval; PeakDemandKW is the
// instantaneous maximum demand observed within the interval.
type UsageInterval struct {
	IntervalStartUTC time.Time
	IntervalEndUTC   time.Time
	EnergyKWH        decimal.Decimal
	PeakDemandKW     decimal.Decimal
}

// Step returns the interval's duration.
func (u UsageInterval) Step() time.Duration {
	return u.IntervalEndUTC.Sub(u.IntervalStartUTC)
}

// GapStrategy names the repair strategy applied to missing intervals.
type GapStrategy string

const (
	GapStrategyExtrapolateLast   GapStrategy = "extrapolate_last"
	GapStrategyLinearInterpolate GapStrategy = "linear_interpolate"
)

// GapStats summarizes the gaps repaired within a single billing month.
type GapStats struct {
	AbsentCount int
	LongestGap  time.Duration
}

// GapReport summarizes gaps per billing month across the whole computation.
type GapReport struct {
	PerMonth map[BillingMonthKey]GapStats
}

// TotalAbsent sums the absent-interval counts across all months.
func (r GapReport) TotalAbsent() int {
	total := 0
	for _, s := range r.PerMonth {
		total += s.AbsentCount
	}
	return total
}
