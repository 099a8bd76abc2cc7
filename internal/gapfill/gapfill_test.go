package gapfill

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/billcore/internal/timegrid"
	"github.com/raterudder/billcore/internal/types"
)

func buildHourlyGrid(t *testing.T, days int) *timegrid.Grid {
	t.Helper()
	profile := types.CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 60, BillingDay: 31}
	period := types.RequestPeriod{
		StartLocalDate: types.CivilDate{Year: 2024, Month: time.January, Day: 1},
		EndLocalDate:   types.CivilDate{Year: 2024, Month: time.January, Day: days},
	}
	grid, err := timegrid.Build(profile, period, nil)
	require.NoError(t, err)
	return grid
}

func TestFillExtrapolateLast(t *testing.T) {
	grid := buildHourlyGrid(t, 1)

	t.Run("fills from the preceding interval", func(t *testing.T) {
		usage := []types.UsageInterval{
			{IntervalStartUTC: grid.Intervals[0].UTCStart, IntervalEndUTC: grid.Intervals[0].UTCEnd, EnergyKWH: decimal.NewFromInt(2)},
		}
		result, err := Fill(grid, usage, types.GapStrategyExtrapolateLast)
		require.NoError(t, err)
		for _, u := range result.Series {
			assert.True(t, u.EnergyKWH.Equal(decimal.NewFromInt(2)))
		}
		assert.False(t, result.Filled[0])
		assert.True(t, result.Filled[1])
	})

	t.Run("leading gap borrows the first present value", func(t *testing.T) {
		last := grid.Intervals[len(grid.Intervals)-1]
		usage := []types.UsageInterval{
			{IntervalStartUTC: last.UTCStart, IntervalEndUTC: last.UTCEnd, EnergyKWH: decimal.NewFromInt(5)},
		}
		result, err := Fill(grid, usage, types.GapStrategyExtrapolateLast)
		require.NoError(t, err)
		assert.True(t, result.Series[0].EnergyKWH.Equal(decimal.NewFromInt(5)))
	})

	t.Run("no observations at all is missing data", func(t *testing.T) {
		_, err := Fill(grid, nil, types.GapStrategyExtrapolateLast)
		require.Error(t, err)
		var be *types.Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, types.KindMissingData, be.Kind)
	})
}

func TestFillLinearInterpolate(t *testing.T) {
	grid := buildHourlyGrid(t, 1)

	t.Run("interpolates a two-sided gap", func(t *testing.T) {
		first := grid.Intervals[0]
		third := grid.Intervals[2]
		usage := []types.UsageInterval{
			{IntervalStartUTC: first.UTCStart, IntervalEndUTC: first.UTCEnd, EnergyKWH: decimal.NewFromInt(0)},
			{IntervalStartUTC: third.UTCStart, IntervalEndUTC: third.UTCEnd, EnergyKWH: decimal.NewFromInt(4)},
		}
		result, err := Fill(grid, usage, types.GapStrategyLinearInterpolate)
		require.NoError(t, err)
		assert.True(t, result.Series[1].EnergyKWH.Equal(decimal.NewFromInt(2)))
		assert.True(t, result.Filled[1])
	})

	t.Run("one-sided gap repeats the known end", func(t *testing.T) {
		last := grid.Intervals[len(grid.Intervals)-1]
		usage := []types.UsageInterval{
			{IntervalStartUTC: last.UTCStart, IntervalEndUTC: last.UTCEnd, EnergyKWH: decimal.NewFromInt(7)},
		}
		result, err := Fill(grid, usage, types.GapStrategyLinearInterpolate)
		require.NoError(t, err)
		assert.True(t, result.Series[0].EnergyKWH.Equal(decimal.NewFromInt(7)))
	})
}

func TestGapReport(t *testing.T) {
	grid := buildHourlyGrid(t, 1)
	usage := []types.UsageInterval{
		{IntervalStartUTC: grid.Intervals[0].UTCStart, IntervalEndUTC: grid.Intervals[0].UTCEnd},
		{IntervalStartUTC: grid.Intervals[1].UTCStart, IntervalEndUTC: grid.Intervals[1].UTCEnd},
	}
	result, err := Fill(grid, usage, types.GapStrategyExtrapolateLast)
	require.NoError(t, err)

	key := types.BillingMonthKey{Year: 2024, Month: 1}
	stats := result.Report.PerMonth[key]
	assert.Equal(t, len(grid.Intervals)-2, stats.AbsentCount)
	assert.Equal(t, time.Duration(len(grid.Intervals)-2)*time.Hour, stats.LongestGap)
	assert.Equal(t, stats.AbsentCount, result.Report.TotalAbsent())
}
