package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/billcore/internal/types"
)

func TestBuild(t *testing.T) {
	t.Run("full January at hourly cadence produces 744 intervals", func(t *testing.T) {
		profile := types.CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 60, BillingDay: 31}
		period := types.RequestPeriod{
			StartLocalDate: types.CivilDate{Year: 2024, Month: time.January, Day: 1},
			EndLocalDate:   types.CivilDate{Year: 2024, Month: time.January, Day: 31},
		}
		grid, err := Build(profile, period, nil)
		require.NoError(t, err)
		assert.Len(t, grid.Intervals, 744)
		assert.True(t, grid.Intervals[0].UTCStart.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, types.BillingMonthKey{Year: 2024, Month: 1}, grid.Intervals[0].BillingMonthKey)
	})

	t.Run("holiday overrides weekday classification", func(t *testing.T) {
		profile := types.CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 60, BillingDay: 31}
		period := types.RequestPeriod{
			StartLocalDate: types.CivilDate{Year: 2024, Month: time.January, Day: 1},
			EndLocalDate:   types.CivilDate{Year: 2024, Month: time.January, Day: 1},
		}
		holidays := map[types.CivilDate]bool{{Year: 2024, Month: time.January, Day: 1}: true}
		grid, err := Build(profile, period, holidays)
		require.NoError(t, err)
		for _, iv := range grid.Intervals {
			assert.Equal(t, types.DayClassHoliday, iv.DayClass)
		}
	})

	t.Run("spring-forward day has a 23-hour UTC span with no duplicated local intervals", func(t *testing.T) {
		profile := types.CustomerProfile{Timezone: "America/Los_Angeles", BillingIntervalMinutes: 5, BillingDay: 31}
		period := types.RequestPeriod{
			StartLocalDate: types.CivilDate{Year: 2024, Month: time.March, Day: 10},
			EndLocalDate:   types.CivilDate{Year: 2024, Month: time.March, Day: 10},
		}
		grid, err := Build(profile, period, nil)
		require.NoError(t, err)
		assert.Len(t, grid.Intervals, 23*12)

		peakCount := 0
		for _, iv := range grid.Intervals {
			h, m := iv.LocalStart.Hour(), iv.LocalStart.Minute()
			_ = m
			if h >= 16 && h < 21 {
				peakCount++
			}
		}
		assert.Equal(t, 60, peakCount)
	})

	t.Run("rejects a step that does not divide the requested period evenly", func(t *testing.T) {
		profile := types.CustomerProfile{Timezone: "UTC", BillingIntervalMinutes: 7, BillingDay: 31}
		period := types.RequestPeriod{
			StartLocalDate: types.CivilDate{Year: 2024, Month: time.January, Day: 1},
			EndLocalDate:   types.CivilDate{Year: 2024, Month: time.January, Day: 1},
		}
		_, err := Build(profile, period, nil)
		require.Error(t, err)
	})

	t.Run("unknown timezone is rejected", func(t *testing.T) {
		profile := types.CustomerProfile{Timezone: "Nowhere/Imaginary", BillingIntervalMinutes: 60, BillingDay: 31}
		period := types.RequestPeriod{
			StartLocalDate: types.CivilDate{Year: 2024, Month: time.January, Day: 1},
			EndLocalDate:   types.CivilDate{Year: 2024, Month: time.January, Day: 1},
		}
		_, err := Build(profile, period, nil)
		require.Error(t, err)
		var be *types.Error
		require.ErrorAs(t, err, &be)
		assert.Equal(t, types.KindZoneUnknown, be.Kind)
	})
}
