// Package usageio implements the usage CSV adapter, grounded on
// pkg/utility/ameren.go's header-column-map parsing style. Parsing is
// strict: the first malformed row fails the whole load.
package usageio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/raterudder/billcore/internal/types"
)

const (
	colIntervalStart = "interval_start"
	colIntervalEnd   = "interval_end"
	colUsage         = "usage"
	colUsageUnit     = "usage_unit"
	colPeakDemand    = "peak_demand"
	colPeakDemandUnit = "peak_demand_unit"
)

var energyUnitToKWH = map[string]decimal.Decimal{
	"kWh": decimal.NewFromInt(1),
	"Wh":  decimal.New(1, -3),
	"MWh": decimal.NewFromInt(1000),
}

var demandUnitToKW = map[string]decimal.Decimal{
	"kW": decimal.NewFromInt(1),
	"W":  decimal.New(1, -3),
	"MW": decimal.NewFromInt(1000),
}

// LoadUsageCSV parses the usage CSV format. temperature and
// temperature_unit columns, if present, are accepted and ignored: the
// billing computation has no use for them. stepMinutes is not enforced
// here — types.ValidateUsageSeries checks cadence consistency once the
// whole series is assembled.
func LoadUsageCSV(r io.Reader, stepMinutes int) ([]types.UsageInterval, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, types.NewError(types.KindInputValidation, "usage csv: failed to read header row", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colIntervalStart, colIntervalEnd, colUsage, colUsageUnit, colPeakDemand, colPeakDemandUnit} {
		if _, ok := col[required]; !ok {
			return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("usage csv: missing required column %q", required), nil)
		}
	}

	var out []types.UsageInterval
	rowNum := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("usage csv: malformed row %d", rowNum), err)
		}
		rowNum++

		u, err := parseRow(row, col)
		if err != nil {
			return nil, types.NewError(types.KindInputValidation, fmt.Sprintf("usage csv: row %d", rowNum), err)
		}
		out = append(out, u)
	}

	return out, nil
}

func parseRow(row []string, col map[string]int) (types.UsageInterval, error) {
	start, err := parseTimestamp(row[col[colIntervalStart]])
	if err != nil {
		return types.UsageInterval{}, fmt.Errorf("interval_start: %w", err)
	}
	end, err := parseTimestamp(row[col[colIntervalEnd]])
	if err != nil {
		return types.UsageInterval{}, fmt.Errorf("interval_end: %w", err)
	}

	energy, err := convertUnit(row[col[colUsage]], row[col[colUsageUnit]], energyUnitToKWH)
	if err != nil {
		return types.UsageInterval{}, fmt.Errorf("usage: %w", err)
	}
	demand, err := convertUnit(row[col[colPeakDemand]], row[col[colPeakDemandUnit]], demandUnitToKW)
	if err != nil {
		return types.UsageInterval{}, fmt.Errorf("peak_demand: %w", err)
	}

	return types.UsageInterval{
		IntervalStartUTC: start,
		IntervalEndUTC:   end,
		EnergyKWH:        energy,
		PeakDemandKW:     demand,
	}, nil
}

// parseTimestamp requires an offset-bearing or Z-suffixed RFC 3339
// timestamp; naive timestamps are rejected.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("naive or malformed timestamp %q (offset or Z required): %w", s, err)
	}
	return t.UTC(), nil
}

func convertUnit(value, unit string, table map[string]decimal.Decimal) (decimal.Decimal, error) {
	factor, ok := table[strings.TrimSpace(unit)]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("unrecognized unit %q", unit)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid numeric value %q", value)
	}
	return v.Mul(factor), nil
}
