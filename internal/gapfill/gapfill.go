// Package gapfill repairs a usage series against a TimeGrid so that
// every downstream allocator sees exactly one row per grid interval.
package gapfill

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/raterudder/billcore/internal/timegrid"
	"github.com/raterudder/billcore/internal/types"
)

// Result is a usage series aligned 1:1 with the TimeGrid, the flags
// marking which rows were repaired, and the per-month gap report.
type Result struct {
	Series []types.UsageInterval
	Filled []bool
	Report types.GapReport
}

// Fill aligns usage onto grid's intervals by UTC start, then repairs any
// absent rows using strategy.
func Fill(grid *timegrid.Grid, usage []types.UsageInterval, strategy types.GapStrategy) (*Result, error) {
	index := make(map[time.Time]types.UsageInterval, len(usage))
	for _, u := range usage {
		index[u.IntervalStartUTC] = u
	}

	n := len(grid.Intervals)
	series := make([]types.UsageInterval, n)
	present := make([]bool, n)
	for i, iv := range grid.Intervals {
		if u, ok := index[iv.UTCStart]; ok {
			series[i] = u
			present[i] = true
			continue
		}
		series[i] = types.UsageInterval{IntervalStartUTC: iv.UTCStart, IntervalEndUTC: iv.UTCEnd}
	}

	if n > 0 && !anyPresent(present) {
		return nil, types.NewError(types.KindMissingData, "no usage observations overlap the requested period", nil)
	}

	filled := make([]bool, n)
	switch strategy {
	case types.GapStrategyExtrapolateLast:
		extrapolateLast(series, present, filled)
	case types.GapStrategyLinearInterpolate:
		linearInterpolate(series, present, filled)
	default:
		return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("unknown gap strategy %q", strategy), nil)
	}

	return &Result{
		Series: series,
		Filled: filled,
		Report: buildReport(grid, present),
	}, nil
}

func anyPresent(present []bool) bool {
	for _, p := range present {
		if p {
			return true
		}
	}
	return false
}

// extrapolateLast fills each absent row from the last preceding present
// row, falling back to the next following row for a leading gap.
func extrapolateLast(series []types.UsageInterval, present, filled []bool) {
	lastIdx := -1
	for i := range series {
		if present[i] {
			lastIdx = i
			continue
		}
		filled[i] = true
		if lastIdx >= 0 {
			series[i].EnergyKWH = series[lastIdx].EnergyKWH
			series[i].PeakDemandKW = series[lastIdx].PeakDemandKW
		}
	}

	firstIdx := -1
	for i := range series {
		if present[i] {
			firstIdx = i
			break
		}
	}
	for i := 0; i < firstIdx; i++ {
		series[i].EnergyKWH = series[firstIdx].EnergyKWH
		series[i].PeakDemandKW = series[firstIdx].PeakDemandKW
	}
}

// linearInterpolate fills each maximal absent run by linear interpolation
// between its bounding present rows; a run open on one side repeats the
// known end.
func linearInterpolate(series []types.UsageInterval, present, filled []bool) {
	n := len(series)
	i := 0
	for i < n {
		if present[i] {
			i++
			continue
		}
		start := i
		for i < n && !present[i] {
			i++
		}
		fillRun(series, filled, start, i, start-1, i)
	}
}

func fillRun(series []types.UsageInterval, filled []bool, start, end, lo, hi int) {
	n := len(series)
	switch {
	case lo < 0 && hi >= n:
		return
	case lo < 0:
		for i := start; i < end; i++ {
			filled[i] = true
			series[i].EnergyKWH = series[hi].EnergyKWH
			series[i].PeakDemandKW = series[hi].PeakDemandKW
		}
	case hi >= n:
		for i := start; i < end; i++ {
			filled[i] = true
			series[i].EnergyKWH = series[lo].EnergyKWH
			series[i].PeakDemandKW = series[lo].PeakDemandKW
		}
	default:
		span := decimal.NewFromInt(int64(hi - lo))
		energyDelta := series[hi].EnergyKWH.Sub(series[lo].EnergyKWH)
		demandDelta := series[hi].PeakDemandKW.Sub(series[lo].PeakDemandKW)
		for i := start; i < end; i++ {
			filled[i] = true
			frac := decimal.NewFromInt(int64(i - lo)).Div(span)
			series[i].EnergyKWH = series[lo].EnergyKWH.Add(energyDelta.Mul(frac))
			series[i].PeakDemandKW = series[lo].PeakDemandKW.Add(demandDelta.Mul(frac))
		}
	}
}

// buildReport tallies, per billing month, the number of absent rows and
// the longest gap's contribution to that month.
func buildReport(grid *timegrid.Grid, present []bool) types.GapReport {
	perMonth := make(map[types.BillingMonthKey]types.GapStats)
	n := len(present)
	i := 0
	for i < n {
		if present[i] {
			i++
			continue
		}
		start := i
		for i < n && !present[i] {
			i++
		}

		monthCounts := make(map[types.BillingMonthKey]int)
		for j := start; j < i; j++ {
			monthCounts[grid.Intervals[j].BillingMonthKey]++
		}
		for key, count := range monthCounts {
			stats := perMonth[key]
			stats.AbsentCount += count
			dur := time.Duration(count) * grid.Step
			if dur > stats.LongestGap {
				stats.LongestGap = dur
			}
			perMonth[key] = stats
		}
	}
	return types.GapReport{PerMonth: perMonth}
}
