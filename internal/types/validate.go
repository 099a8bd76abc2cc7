package types

import (
	"fmt"
	"time"
)

// maxRatePrecision is the maximum number of fractional decimal digits a
// monetary rate may carry on ingest.
const maxRatePrecision = 5

func fracDigits(exp int32) int32 {
	if exp >= 0 {
		return 0
	}
	return -exp
}

// ValidateApplicabilityRule checks the invariants of a single rule.
func ValidateApplicabilityRule(r ApplicabilityRule) error {
	if r.PeriodStartTimeLocal == r.PeriodEndTimeLocal && r.PeriodStartTimeLocal != 0 {
		return NewError(KindInputValidation, fmt.Sprintf("rule %q: period_start_time_local == period_end_time_local and non-zero; use the 00:00-00:00 all-day sentinel instead", r.Name), nil)
	}
	if r.PeriodEndTimeLocal < r.PeriodStartTimeLocal {
		return NewError(KindInputValidation, fmt.Sprintf("rule %q: period_end_time_local before period_start_time_local; express an overnight window as two rules instead of one that wraps midnight", r.Name), nil)
	}
	if r.PeriodStartTimeLocal < 0 || r.PeriodStartTimeLocal > 24*time.Hour ||
		r.PeriodEndTimeLocal < 0 || r.PeriodEndTimeLocal > 24*time.Hour {
		return NewError(KindInputValidation, fmt.Sprintf("rule %q: period times must fall within a single day", r.Name), nil)
	}
	if (r.AppliesStartMD == nil) != (r.AppliesEndMD == nil) {
		return NewError(KindInputValidation, fmt.Sprintf("rule %q: applies_start_md and applies_end_md must both be present or both absent", r.Name), nil)
	}
	return nil
}

func validateRate(label string, rate interface{ Exponent() int32 }) error {
	if fracDigits(rate.Exponent()) > maxRatePrecision {
		return NewError(KindInputValidation, fmt.Sprintf("%s: rate precision exceeds %d fractional digits", label, maxRatePrecision), nil)
	}
	return nil
}

// ValidateEnergyCharge checks an EnergyCharge's invariants, including
// each of its rules.
func ValidateEnergyCharge(c EnergyCharge) error {
	if c.RateUSDPerKWH.IsNegative() {
		return NewError(KindInputValidation, fmt.Sprintf("energy charge %q: rate must be >= 0", c.ID), nil)
	}
	if err := validateRate(fmt.Sprintf("energy charge %q", c.ID), c.RateUSDPerKWH); err != nil {
		return err
	}
	for _, r := range c.Rules {
		if err := ValidateApplicabilityRule(r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDemandCharge checks a DemandCharge's invariants.
func ValidateDemandCharge(c DemandCharge) error {
	if c.RateUSDPerKW.IsNegative() {
		return NewError(KindInputValidation, fmt.Sprintf("demand charge %q: rate must be >= 0", c.ID), nil)
	}
	if err := validateRate(fmt.Sprintf("demand charge %q", c.ID), c.RateUSDPerKW); err != nil {
		return err
	}
	if c.PeakType != PeakTypeDaily && c.PeakType != PeakTypeMonthly {
		return NewError(KindInputValidation, fmt.Sprintf("demand charge %q: peak_type must be daily or monthly, got %q", c.ID, c.PeakType), nil)
	}
	for _, r := range c.Rules {
		if err := ValidateApplicabilityRule(r); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCustomerCharge checks a CustomerCharge's invariants.
func ValidateCustomerCharge(c CustomerCharge) error {
	if c.AmountUSD.IsNegative() {
		return NewError(KindInputValidation, fmt.Sprintf("customer charge %q: amount must be >= 0", c.ID), nil)
	}
	if err := validateRate(fmt.Sprintf("customer charge %q", c.ID), c.AmountUSD); err != nil {
		return err
	}
	if c.ChargeType != ChargeTypeDaily && c.ChargeType != ChargeTypeMonthly {
		return NewError(KindInputValidation, fmt.Sprintf("customer charge %q: charge_type must be daily or monthly, got %q", c.ID, c.ChargeType), nil)
	}
	return nil
}

// ValidateTariff checks the Tariff-level invariants: at least one charge
// total, and unique names per charge family.
func ValidateTariff(t Tariff) error {
	if len(t.EnergyCharges) == 0 && len(t.DemandCharges) == 0 && len(t.CustomerCharges) == 0 {
		return NewError(KindInputValidation, fmt.Sprintf("tariff %q/%q: must declare at least one charge", t.Utility, t.Name), nil)
	}

	seenEnergy := make(map[string]bool)
	for _, c := range t.EnergyCharges {
		if err := ValidateEnergyCharge(c); err != nil {
			return err
		}
		if seenEnergy[c.Name] {
			return NewError(KindInputValidation, fmt.Sprintf("tariff %q: duplicate energy charge name %q", t.Name, c.Name), nil)
		}
		seenEnergy[c.Name] = true
	}

	seenDemand := make(map[string]bool)
	for _, c := range t.DemandCharges {
		if err := ValidateDemandCharge(c); err != nil {
			return err
		}
		if seenDemand[c.Name] {
			return NewError(KindInputValidation, fmt.Sprintf("tariff %q: duplicate demand charge name %q", t.Name, c.Name), nil)
		}
		seenDemand[c.Name] = true
	}

	seenCustomer := make(map[string]bool)
	for _, c := range t.CustomerCharges {
		if err := ValidateCustomerCharge(c); err != nil {
			return err
		}
		if seenCustomer[c.Name] {
			return NewError(KindInputValidation, fmt.Sprintf("tariff %q: duplicate customer charge name %q", t.Name, c.Name), nil)
		}
		seenCustomer[c.Name] = true
	}

	return nil
}

// ValidateCustomerProfile checks the profile invariants:
// the billing interval must divide both 60 and 1440 evenly, and the
// billing day must be a plausible day-of-month.
func ValidateCustomerProfile(p CustomerProfile) error {
	if p.BillingIntervalMinutes <= 0 || 60%p.BillingIntervalMinutes != 0 || 1440%p.BillingIntervalMinutes != 0 {
		return NewError(KindInputValidation, fmt.Sprintf("billing_interval_minutes %d must evenly divide 60 and 1440", p.BillingIntervalMinutes), nil)
	}
	if p.BillingDay < 1 || p.BillingDay > 31 {
		return NewError(KindInputValidation, fmt.Sprintf("billing_day %d must be in [1,31]", p.BillingDay), nil)
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return NewError(KindZoneUnknown, fmt.Sprintf("unknown timezone %q", p.Timezone), err)
	}
	return nil
}

// ValidateUsageSeries checks the per-record invariants that
// require seeing the whole series: a constant step equal to
// stepMinutes, non-negative energy/demand, and unique interval starts.
func ValidateUsageSeries(usage []UsageInterval, stepMinutes int) error {
	expectedStep := time.Duration(stepMinutes) * time.Minute
	seen := make(map[time.Time]bool, len(usage))
	for _, u := range usage {
		if !u.IntervalEndUTC.Equal(u.IntervalStartUTC.Add(expectedStep)) {
			return NewError(KindInconsistency, fmt.Sprintf("usage interval at %s: step %s does not match customer cadence %s", u.IntervalStartUTC, u.Step(), expectedStep), nil)
		}
		if u.EnergyKWH.IsNegative() {
			return NewError(KindInputValidation, fmt.Sprintf("usage interval at %s: energy must be >= 0", u.IntervalStartUTC), nil)
		}
		if u.PeakDemandKW.IsNegative() {
			return NewError(KindInputValidation, fmt.Sprintf("usage interval at %s: peak_demand must be >= 0", u.IntervalStartUTC), nil)
		}
		if seen[u.IntervalStartUTC] {
			return NewError(KindInputValidation, fmt.Sprintf("duplicate usage interval at %s", u.IntervalStartUTC), nil)
		}
		seen[u.IntervalStartUTC] = true
	}
	return nil
}
