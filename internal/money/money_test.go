package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestShare(t *testing.T) {
	t.Run("splits evenly", func(t *testing.T) {
		got := Share(decimal.NewFromInt(10), 4)
		want := decimal.NewFromFloat(2.5)
		assert.True(t, got.Equal(want), "got %s", got)
	})

	t.Run("n <= 0 returns zero", func(t *testing.T) {
		assert.True(t, Share(decimal.NewFromInt(10), 0).IsZero())
		assert.True(t, Share(decimal.NewFromInt(10), -1).IsZero())
	})

	t.Run("carries InternalScale fractional digits for an indivisible split", func(t *testing.T) {
		got := Share(decimal.NewFromInt(1), 3)
		assert.Equal(t, int32(InternalScale), got.Exponent()*-1)
	})
}

func TestRoundFinalUsesBankersRounding(t *testing.T) {
	// 0.125 rounds to the nearest even hundredth: 0.12, not 0.13.
	got := RoundFinal(decimal.NewFromFloat(0.125))
	assert.True(t, got.Equal(decimal.NewFromFloat(0.12)), "got %s", got)

	got = RoundFinal(decimal.NewFromFloat(0.135))
	assert.True(t, got.Equal(decimal.NewFromFloat(0.14)), "got %s", got)
}

func TestSum(t *testing.T) {
	t.Run("empty slice is zero", func(t *testing.T) {
		assert.True(t, Sum(nil).IsZero())
	})

	t.Run("adds without intermediate rounding", func(t *testing.T) {
		values := []decimal.Decimal{
			decimal.NewFromFloat(0.1),
			decimal.NewFromFloat(0.2),
			decimal.NewFromFloat(0.3),
		}
		got := Sum(values)
		assert.True(t, got.Equal(decimal.NewFromFloat(0.6)), "got %s", got)
	})
}
