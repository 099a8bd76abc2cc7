// Package money centralizes the fixed-precision decimal conventions
// used throughout billcore: every rate, cost, and total is a
// decimal.Decimal, never a float64, so that the monthly sum stays
// associative and reproducible bit-for-bit.
package money

import "github.com/shopspring/decimal"

// InternalScale is the number of fractional digits carried through
// intermediate divisions (demand-tie splits, per-interval proration
// shares). It comfortably exceeds the minimum precision floor needed
// so that summing many shares back together never drifts the final
// 2-decimal total.
const InternalScale = 20

// FinalScale is the number of fractional digits a reported total or
// line item is rounded to.
const FinalScale = 2

// Share divides total into n equal parts at InternalScale precision.
// Used whenever a charge amount or scope total is spread across a set
// of qualifying intervals.
func Share(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(n)), InternalScale)
}

// RoundFinal rounds a decimal to FinalScale fractional digits using
// round-half-to-even.
func RoundFinal(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(FinalScale)
}

// Sum adds a slice of decimals without any intermediate rounding.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
