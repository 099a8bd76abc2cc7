package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApplicabilityRule gates a charge to the intervals matching a period of
// day, a month/day window, and a day-class.
type ApplicabilityRule struct {
	Name string // optional; used for named-rule references in tariff YAML

	// PeriodStartTimeLocal/PeriodEndTimeLocal are offsets from local
	// midnight. A half-open window: [start, end). Equal non-zero values
	// are rejected at validation; 00:00-00:00 means all-day.
	PeriodStartTimeLocal time.Duration
	PeriodEndTimeLocal   time.Duration

	// AppliesStartMD/AppliesEndMD bound the annual (month, day) window.
	// Both nil means year-round. AppliesEndMD.Before(AppliesStartMD)
	// wraps the year boundary.
	AppliesStartMD *MonthDay
	AppliesEndMD   *MonthDay

	AppliesWeekdays bool
	AppliesWeekends bool
	AppliesHolidays bool
}

// SpansEntireDay reports whether the rule's period-of-day covers all 24
// hours (the 00:00-00:00 all-day sentinel).
func (r ApplicabilityRule) SpansEntireDay() bool {
	return r.PeriodStartTimeLocal == 0 && r.PeriodEndTimeLocal == 0
}

// DayClassApplies reports whether the rule's day-class flags admit the
// given classification.
func (r ApplicabilityRule) DayClassApplies(c DayClass) bool {
	switch c {
	case DayClassHoliday:
		return r.AppliesHolidays
	case DayClassWeekend:
		return r.AppliesWeekends
	case DayClassWeekday:
		return r.AppliesWeekdays
	default:
		return false
	}
}

// EnergyCharge bills per kWh consumed while any of its rules match.
type EnergyCharge struct {
	ID            string
	Name          string
	RateUSDPerKWH decimal.Decimal
	Rules         []ApplicabilityRule
}

// PeakType selects the scope over which a demand charge's peak is found.
type PeakType string

const (
	PeakTypeDaily   PeakType = "daily"
	PeakTypeMonthly PeakType = "monthly"
)

// DemandCharge bills the peak demand within each scope (day or month) at
// a fixed $/kW rate, while any of its rules match.
type DemandCharge struct {
	ID           string
	Name         string
	RateUSDPerKW decimal.Decimal
	PeakType     PeakType
	Rules        []ApplicabilityRule
}

// ChargeType selects how a customer charge's fixed amount is spread over
// the billing month.
type ChargeType string

const (
	ChargeTypeDaily   ChargeType = "daily"
	ChargeTypeMonthly ChargeType = "monthly"
)

// CustomerCharge is a fixed daily or monthly fee. It carries no
// applicability rules and is always active.
type CustomerCharge struct {
	ID         string
	Name       string
	AmountUSD  decimal.Decimal
	ChargeType ChargeType
}

// Tariff is the immutable, declarative description of a utility's rate
// plan: its energy, demand, and customer charges.
type Tariff struct {
	Utility         string
	Name            string
	EnergyCharges   []EnergyCharge
	DemandCharges   []DemandCharge
	CustomerCharges []CustomerCharge
}
