// Package allocate implements the three charge-allocation algorithms:
// energy, customer, and demand. Each family is a free
// function over (grid, usage, mask, charge) rather than a method on a
// shared interface — the three algorithms have nothing in common beyond
// "emit a cost series", so a tagged dispatch beats an inheritance
// hierarchy here.
package allocate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/raterudder/billcore/internal/money"
	"github.com/raterudder/billcore/internal/timegrid"
	"github.com/raterudder/billcore/internal/types"
)

func zeros(n int) []decimal.Decimal {
	cost := make([]decimal.Decimal, n)
	for i := range cost {
		cost[i] = decimal.Zero
	}
	return cost
}

// Energy allocates cost[i] = mask[i] * energy[i] * rate. No
// cross-interval coupling.
func Energy(grid *timegrid.Grid, series []types.UsageInterval, mask []bool, charge types.EnergyCharge) []decimal.Decimal {
	cost := zeros(len(grid.Intervals))
	for i, ok := range mask {
		if ok {
			cost[i] = series[i].EnergyKWH.Mul(charge.RateUSDPerKWH)
		}
	}
	return cost
}

// Customer dispatches a CustomerCharge to its daily or monthly
// allocation rule. Customer charges ignore masks; they are always
// active.
func Customer(grid *timegrid.Grid, billingDay int, charge types.CustomerCharge) []decimal.Decimal {
	switch charge.ChargeType {
	case types.ChargeTypeMonthly:
		return customerMonthly(grid, billingDay, charge)
	default:
		return customerDaily(grid, charge)
	}
}

// customerMonthly spreads amount_usd over the FULL billing month's
// interval count, not just the intervals the request happens to cover,
// crediting only the intervals present in grid. A fully-covered month
// therefore sums to exactly amount_usd, while a partially-requested
// month prorates automatically because only its covered intervals are
// credited. In a fully-covered month the last interval takes whatever
// the InternalScale-rounded shares leave over, so the sum is exact.
func customerMonthly(grid *timegrid.Grid, billingDay int, charge types.CustomerCharge) []decimal.Decimal {
	cost := zeros(len(grid.Intervals))
	for key, idxs := range groupByMonth(grid) {
		n := timegrid.FullMonthIntervalCount(key, billingDay, grid.Loc, grid.Step)
		share := money.Share(charge.AmountUSD, n)
		for _, i := range idxs {
			cost[i] = share
		}
		if n > 0 && len(idxs) == n {
			cost[idxs[n-1]] = charge.AmountUSD.Sub(share.Mul(decimal.NewFromInt(int64(n - 1))))
		}
	}
	return cost
}

// customerDaily spreads amount_usd over each local calendar day's
// intervals actually present in the request, so a day partially covered
// at the request boundary contributes only its covered share.
func customerDaily(grid *timegrid.Grid, charge types.CustomerCharge) []decimal.Decimal {
	cost := zeros(len(grid.Intervals))
	for _, idxs := range groupByDay(grid) {
		share := money.Share(charge.AmountUSD, len(idxs))
		for _, i := range idxs {
			cost[i] = share
		}
	}
	return cost
}

// Demand dispatches a DemandCharge to its daily or monthly peak-scope
// allocation. ctx is checked between scopes; a cancelled context
// aborts with no partial cost series.
func Demand(ctx context.Context, grid *timegrid.Grid, series []types.UsageInterval, mask []bool, charge types.DemandCharge, billingDay int) ([]decimal.Decimal, error) {
	cost := zeros(len(grid.Intervals))
	var err error
	switch charge.PeakType {
	case types.PeakTypeMonthly:
		err = demandMonthly(ctx, grid, series, mask, charge, billingDay, cost)
	default:
		err = demandDaily(ctx, grid, series, mask, charge, cost)
	}
	if err != nil {
		return nil, err
	}
	return cost, nil
}

func demandMonthly(ctx context.Context, grid *timegrid.Grid, series []types.UsageInterval, mask []bool, charge types.DemandCharge, billingDay int, cost []decimal.Decimal) error {
	for key, idxs := range groupByMonth(grid) {
		if err := ctx.Err(); err != nil {
			return types.NewError(types.KindCancelled, "cancelled during monthly demand allocation", err)
		}
		days := make(map[types.CivilDate]bool)
		for _, i := range idxs {
			days[types.CivilDateOf(grid.Intervals[i].LocalStart)] = true
		}
		calDays := timegrid.CalendarDays(key, billingDay)
		f := decimal.NewFromInt(int64(len(days))).DivRound(decimal.NewFromInt(int64(calDays)), money.InternalScale)
		applyScope(series, mask, charge.RateUSDPerKW, idxs, f, cost)
	}
	return nil
}

func demandDaily(ctx context.Context, grid *timegrid.Grid, series []types.UsageInterval, mask []bool, charge types.DemandCharge, cost []decimal.Decimal) error {
	fullDayCount := int(24 * time.Hour / grid.Step)
	for _, idxs := range groupByDay(grid) {
		if err := ctx.Err(); err != nil {
			return types.NewError(types.KindCancelled, "cancelled during daily demand allocation", err)
		}
		f := decimal.NewFromInt(1)
		if len(idxs) < fullDayCount {
			f = decimal.NewFromInt(int64(len(idxs))).DivRound(decimal.NewFromInt(int64(fullDayCount)), money.InternalScale)
		}
		applyScope(series, mask, charge.RateUSDPerKW, idxs, f, cost)
	}
	return nil
}

// applyScope finds the scope's peak among mask-qualifying intervals,
// splits the scope's monetary contribution equally across every
// interval tied at that peak, and leaves the rest at zero. A scope with
// no qualifying interval contributes nothing.
func applyScope(series []types.UsageInterval, mask []bool, rate decimal.Decimal, idxs []int, f decimal.Decimal, cost []decimal.Decimal) {
	var peak decimal.Decimal
	found := false
	for _, i := range idxs {
		if !mask[i] {
			continue
		}
		d := series[i].PeakDemandKW
		if !found || d.GreaterThan(peak) {
			peak = d
			found = true
		}
	}
	if !found {
		return
	}

	var tied []int
	for _, i := range idxs {
		if mask[i] && series[i].PeakDemandKW.Equal(peak) {
			tied = append(tied, i)
		}
	}

	total := peak.Mul(rate).Mul(f)
	share := money.Share(total, len(tied))
	for _, i := range tied {
		cost[i] = share
	}
}

func groupByMonth(grid *timegrid.Grid) map[types.BillingMonthKey][]int {
	groups := make(map[types.BillingMonthKey][]int)
	for i, iv := range grid.Intervals {
		groups[iv.BillingMonthKey] = append(groups[iv.BillingMonthKey], i)
	}
	return groups
}

func groupByDay(grid *timegrid.Grid) map[types.CivilDate][]int {
	groups := make(map[types.CivilDate][]int)
	for i, iv := range grid.Intervals {
		d := types.CivilDateOf(iv.LocalStart)
		groups[d] = append(groups[d], i)
	}
	return groups
}
