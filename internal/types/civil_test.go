package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCivilDate(t *testing.T) {
	t.Run("parse and format round trip", func(t *testing.T) {
		d, err := ParseCivilDate("2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, CivilDate{Year: 2024, Month: time.February, Day: 29}, d)
		assert.Equal(t, "2024-02-29", d.String())
	})

	t.Run("AddDays rolls across month and year boundaries", func(t *testing.T) {
		d := CivilDate{Year: 2024, Month: time.December, Day: 31}
		assert.Equal(t, CivilDate{Year: 2025, Month: time.January, Day: 1}, d.AddDays(1))

		d = CivilDate{Year: 2024, Month: time.February, Day: 28}
		assert.Equal(t, CivilDate{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1))
	})

	t.Run("Before and After", func(t *testing.T) {
		early := CivilDate{Year: 2024, Month: time.January, Day: 1}
		late := CivilDate{Year: 2024, Month: time.January, Day: 2}
		assert.True(t, early.Before(late))
		assert.True(t, late.After(early))
		assert.False(t, early.Before(early))
	})

	t.Run("DaysUntil", func(t *testing.T) {
		start := CivilDate{Year: 2024, Month: time.January, Day: 1}
		end := CivilDate{Year: 2024, Month: time.January, Day: 31}
		assert.Equal(t, 30, start.DaysUntil(end))
		assert.Equal(t, -30, end.DaysUntil(start))
	})
}

func TestMonthDayInWindow(t *testing.T) {
	t.Run("non-wrapping window", func(t *testing.T) {
		start := MonthDay{Month: time.June, Day: 1}
		end := MonthDay{Month: time.August, Day: 31}
		assert.True(t, MonthDay{Month: time.July, Day: 15}.InWindow(start, end))
		assert.False(t, MonthDay{Month: time.September, Day: 1}.InWindow(start, end))
	})

	t.Run("wrapping window covers both sides of the new year", func(t *testing.T) {
		start := MonthDay{Month: time.October, Day: 1}
		end := MonthDay{Month: time.May, Day: 31}
		assert.True(t, MonthDay{Month: time.December, Day: 31}.InWindow(start, end))
		assert.True(t, MonthDay{Month: time.January, Day: 1}.InWindow(start, end))
		assert.False(t, MonthDay{Month: time.July, Day: 15}.InWindow(start, end))
	})

	t.Run("boundary dates are inclusive", func(t *testing.T) {
		start := MonthDay{Month: time.October, Day: 1}
		end := MonthDay{Month: time.May, Day: 31}
		assert.True(t, start.InWindow(start, end))
		assert.True(t, end.InWindow(start, end))
	})
}
