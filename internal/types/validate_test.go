package types

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateApplicabilityRule(t *testing.T) {
	t.Run("all-day sentinel is valid", func(t *testing.T) {
		err := ValidateApplicabilityRule(ApplicabilityRule{})
		assert.NoError(t, err)
	})

	t.Run("equal non-zero endpoints are rejected", func(t *testing.T) {
		err := ValidateApplicabilityRule(ApplicabilityRule{
			PeriodStartTimeLocal: 4 * time.Hour,
			PeriodEndTimeLocal:   4 * time.Hour,
		})
		require.Error(t, err)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindInputValidation, be.Kind)
	})

	t.Run("one md bound without the other is rejected", func(t *testing.T) {
		start := MonthDay{Month: time.October, Day: 1}
		err := ValidateApplicabilityRule(ApplicabilityRule{AppliesStartMD: &start})
		require.Error(t, err)
	})

	t.Run("reversed period (end before start) is rejected", func(t *testing.T) {
		err := ValidateApplicabilityRule(ApplicabilityRule{
			PeriodStartTimeLocal: 20 * time.Hour,
			PeriodEndTimeLocal:   6 * time.Hour,
		})
		require.Error(t, err)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindInputValidation, be.Kind)
	})
}

func TestValidateCustomerProfile(t *testing.T) {
	t.Run("valid profile", func(t *testing.T) {
		err := ValidateCustomerProfile(CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 60, BillingDay: 31})
		assert.NoError(t, err)
	})

	t.Run("interval must divide 60 and 1440", func(t *testing.T) {
		err := ValidateCustomerProfile(CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 7, BillingDay: 31})
		require.Error(t, err)
	})

	t.Run("unknown timezone", func(t *testing.T) {
		err := ValidateCustomerProfile(CustomerProfile{Timezone: "Not/A_Zone", BillingIntervalMinutes: 60, BillingDay: 31})
		require.Error(t, err)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindZoneUnknown, be.Kind)
	})

	t.Run("billing day out of range", func(t *testing.T) {
		err := ValidateCustomerProfile(CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 60, BillingDay: 32})
		require.Error(t, err)
	})
}

func TestValidateTariff(t *testing.T) {
	t.Run("requires at least one charge", func(t *testing.T) {
		err := ValidateTariff(Tariff{Utility: "demo", Name: "empty"})
		require.Error(t, err)
	})

	t.Run("rejects duplicate charge names within a family", func(t *testing.T) {
		c := EnergyCharge{ID: "e1", Name: "flat", RateUSDPerKWH: decimal.NewFromFloat(0.1)}
		c2 := EnergyCharge{ID: "e2", Name: "flat", RateUSDPerKWH: decimal.NewFromFloat(0.2)}
		err := ValidateTariff(Tariff{Utility: "demo", Name: "t", EnergyCharges: []EnergyCharge{c, c2}})
		require.Error(t, err)
	})

	t.Run("rejects negative rates", func(t *testing.T) {
		c := EnergyCharge{ID: "e1", Name: "flat", RateUSDPerKWH: decimal.NewFromFloat(-0.1)}
		err := ValidateTariff(Tariff{Utility: "demo", Name: "t", EnergyCharges: []EnergyCharge{c}})
		require.Error(t, err)
	})

	t.Run("accepts a minimal valid tariff", func(t *testing.T) {
		c := EnergyCharge{ID: "e1", Name: "flat", RateUSDPerKWH: decimal.NewFromFloat(0.1)}
		err := ValidateTariff(Tariff{Utility: "demo", Name: "t", EnergyCharges: []EnergyCharge{c}})
		assert.NoError(t, err)
	})
}

func TestValidateUsageSeries(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	step := time.Hour

	t.Run("consistent series is valid", func(t *testing.T) {
		usage := []UsageInterval{
			{IntervalStartUTC: base, IntervalEndUTC: base.Add(step)},
			{IntervalStartUTC: base.Add(step), IntervalEndUTC: base.Add(2 * step)},
		}
		assert.NoError(t, ValidateUsageSeries(usage, 60))
	})

	t.Run("step mismatch is an inconsistency", func(t *testing.T) {
		usage := []UsageInterval{{IntervalStartUTC: base, IntervalEndUTC: base.Add(30 * time.Minute)}}
		err := ValidateUsageSeries(usage, 60)
		require.Error(t, err)
		var be *Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, KindInconsistency, be.Kind)
	})

	t.Run("duplicate interval start is rejected", func(t *testing.T) {
		usage := []UsageInterval{
			{IntervalStartUTC: base, IntervalEndUTC: base.Add(step)},
			{IntervalStartUTC: base, IntervalEndUTC: base.Add(step)},
		}
		err := ValidateUsageSeries(usage, 60)
		require.Error(t, err)
	})

	t.Run("negative energy is rejected", func(t *testing.T) {
		usage := []UsageInterval{{IntervalStartUTC: base, IntervalEndUTC: base.Add(step), EnergyKWH: decimal.NewFromInt(-1)}}
		err := ValidateUsageSeries(usage, 60)
		require.Error(t, err)
	})
}
