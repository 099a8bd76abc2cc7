// Package billing implements the compute_bill entry point: it wires
// the time grid, gap filler, applicability evaluator, and charge
// allocators together and assembles their output into a
// BillComputation. The orchestration style — a stateless struct with
// one entry method, structured logging at each stage, early-return
// error handling — follows pkg/controller/controller.go.
package billing

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/raterudder/billcore/internal/allocate"
	"github.com/raterudder/billcore/internal/applicability"
	"github.com/raterudder/billcore/internal/gapfill"
	"github.com/raterudder/billcore/internal/log"
	"github.com/raterudder/billcore/internal/money"
	"github.com/raterudder/billcore/internal/timegrid"
	"github.com/raterudder/billcore/internal/types"
)

// Request bundles every input compute_bill needs.
type Request struct {
	Profile     types.CustomerProfile
	Tariff      types.Tariff
	Holidays    []types.Holiday
	Usage       []types.UsageInterval
	Period      types.RequestPeriod
	GapStrategy types.GapStrategy
}

// Engine runs billing computations. It holds no state of its own; every
// field is an immutable input shared safely across concurrent
// computations.
type Engine struct{}

// ComputeBill is the compute_bill entry point. It returns a
// distinguished Cancelled error and no partial result if ctx is
// cancelled mid-computation.
func (Engine) ComputeBill(ctx context.Context, req Request) (*types.BillComputation, error) {
	logger := log.Ctx(ctx)

	if err := types.ValidateTariff(req.Tariff); err != nil {
		return nil, err
	}

	holidaySet := types.HolidaySet(req.Holidays, req.Tariff.Utility)
	grid, err := timegrid.Build(req.Profile, req.Period, holidaySet)
	if err != nil {
		logger.Error("failed to build time grid", "error", err)
		return nil, err
	}
	logger.Info("built time grid", "intervals", len(grid.Intervals))

	filled, err := gapfill.Fill(grid, req.Usage, req.GapStrategy)
	if err != nil {
		logger.Error("failed to fill usage gaps", "error", err)
		return nil, err
	}
	if filled.Report.TotalAbsent() > 0 {
		logger.Warn("repaired usage gaps", "absent_intervals", filled.Report.TotalAbsent())
	}

	if err := types.ValidateUsageSeries(filled.Series, req.Profile.BillingIntervalMinutes); err != nil {
		return nil, err
	}

	costMatrix := make(map[types.CostMatrixKey]decimal.Decimal)
	chargeIDs := make([]string, 0, len(req.Tariff.EnergyCharges)+len(req.Tariff.DemandCharges)+len(req.Tariff.CustomerCharges))

	for _, charge := range req.Tariff.EnergyCharges {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "cancelled before energy charge "+charge.ID, err)
		}
		mask := applicability.EvaluateCharge(grid, charge.Rules)
		cost := allocate.Energy(grid, filled.Series, mask, charge)
		recordCost(costMatrix, grid, charge.ID, cost)
		chargeIDs = append(chargeIDs, charge.ID)
	}

	for _, charge := range req.Tariff.DemandCharges {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "cancelled before demand charge "+charge.ID, err)
		}
		mask := applicability.EvaluateCharge(grid, charge.Rules)
		cost, err := allocate.Demand(ctx, grid, filled.Series, mask, charge, req.Profile.BillingDay)
		if err != nil {
			return nil, err
		}
		recordCost(costMatrix, grid, charge.ID, cost)
		chargeIDs = append(chargeIDs, charge.ID)
	}

	for _, charge := range req.Tariff.CustomerCharges {
		if err := ctx.Err(); err != nil {
			return nil, types.NewError(types.KindCancelled, "cancelled before customer charge "+charge.ID, err)
		}
		cost := allocate.Customer(grid, req.Profile.BillingDay, charge)
		recordCost(costMatrix, grid, charge.ID, cost)
		chargeIDs = append(chargeIDs, charge.ID)
	}

	months := assembleMonths(grid, filled.Report, costMatrix, chargeIDs)
	grandTotal := money.RoundFinal(sumMonthTotalsUnrounded(months))

	logger.Info("computed bill", "months", len(months), "grand_total_usd", grandTotal.String())

	return types.NewBillComputation(months, grandTotal, filled.Report, costMatrix), nil
}

func recordCost(costMatrix map[types.CostMatrixKey]decimal.Decimal, grid *timegrid.Grid, chargeID string, cost []decimal.Decimal) {
	for i, iv := range grid.Intervals {
		if cost[i].IsZero() {
			continue
		}
		costMatrix[types.CostMatrixKey{IntervalStartUTC: iv.UTCStart, ChargeID: chargeID}] = cost[i]
	}
}

// assembleMonths groups the cost matrix by billing month and produces
// one BillResult per month covered by grid, ordered ascending.
func assembleMonths(grid *timegrid.Grid, gaps types.GapReport, costMatrix map[types.CostMatrixKey]decimal.Decimal, chargeIDs []string) []types.BillResult {
	type monthAccum struct {
		indices   []int
		lineItems map[string]decimal.Decimal
	}
	accum := make(map[types.BillingMonthKey]*monthAccum)

	for i, iv := range grid.Intervals {
		a, ok := accum[iv.BillingMonthKey]
		if !ok {
			a = &monthAccum{lineItems: make(map[string]decimal.Decimal)}
			accum[iv.BillingMonthKey] = a
		}
		a.indices = append(a.indices, i)
	}

	for _, a := range accum {
		for _, chargeID := range chargeIDs {
			total := decimal.Zero
			for _, i := range a.indices {
				iv := grid.Intervals[i]
				if v, ok := costMatrix[types.CostMatrixKey{IntervalStartUTC: iv.UTCStart, ChargeID: chargeID}]; ok {
					total = total.Add(v)
				}
			}
			a.lineItems[chargeID] = total
		}
	}

	keys := make([]types.BillingMonthKey, 0, len(accum))
	for key := range accum {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Month < keys[j].Month
	})

	results := make([]types.BillResult, 0, len(keys))
	for _, key := range keys {
		a := accum[key]
		first := grid.Intervals[a.indices[0]]
		last := grid.Intervals[a.indices[len(a.indices)-1]]

		unroundedTotal := money.Sum(values(a.lineItems))
		roundedItems := make(map[string]decimal.Decimal, len(a.lineItems))
		for id, v := range a.lineItems {
			roundedItems[id] = money.RoundFinal(v)
		}

		results = append(results, types.BillResult{
			BillingMonthKey:      key,
			PeriodStartLocalDate: types.CivilDateOf(first.LocalStart),
			PeriodEndLocalDate:   types.CivilDateOf(last.LocalStart),
			LineItems:            roundedItems,
			TotalUSD:             money.RoundFinal(unroundedTotal),
			Gaps:                 gaps.PerMonth[key],
		})
	}
	return results
}

func values(m map[string]decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// sumMonthTotalsUnrounded re-derives the grand total from each month's
// already-rounded total. Rounding each month independently before
// summing matches how a multi-month statement is actually presented;
// a single month's line items round to their own total independent of
// any other month's.
func sumMonthTotalsUnrounded(months []types.BillResult) decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(months))
	for _, m := range months {
		totals = append(totals, m.TotalUSD)
	}
	return money.Sum(totals)
}
