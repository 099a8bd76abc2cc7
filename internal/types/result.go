package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostMatrixKey addresses a single (interval, charge) cell of the
// interval-resolution cost matrix.
type CostMatrixKey struct {
	IntervalStartUTC time.Time
	ChargeID         string
}

// BillResult is one billing month's worth of output: a grand total, a
// per-charge line-item breakdown, and the gap statistics observed within
// that month.
type BillResult struct {
	BillingMonthKey      BillingMonthKey
	PeriodStartLocalDate CivilDate
	PeriodEndLocalDate   CivilDate
	LineItems            map[string]decimal.Decimal
	TotalUSD             decimal.Decimal
	Gaps                 GapStats
}

// BillComputation is the result of a single compute_bill invocation: an
// ordered list of monthly results, a grand total, the aggregate gap
// report, and the full interval-resolution cost matrix for audit.
type BillComputation struct {
	Months        []BillResult
	GrandTotalUSD decimal.Decimal
	GapReport     GapReport

	costMatrix map[CostMatrixKey]decimal.Decimal
}

// NewBillComputation constructs a BillComputation; exported so the
// billing package (the only writer of costMatrix) can assemble one.
func NewBillComputation(months []BillResult, grandTotal decimal.Decimal, gaps GapReport, costMatrix map[CostMatrixKey]decimal.Decimal) *BillComputation {
	return &BillComputation{
		Months:        months,
		GrandTotalUSD: grandTotal,
		GapReport:     gaps,
		costMatrix:    costMatrix,
	}
}

// CostMatrix returns the attributed cost of a single charge for a single
// interval, or a zero decimal if that charge did not apply there.
func (b *BillComputation) CostMatrix(intervalStartUTC time.Time, chargeID string) decimal.Decimal {
	if b == nil || b.costMatrix == nil {
		return decimal.Zero
	}
	if v, ok := b.costMatrix[CostMatrixKey{IntervalStartUTC: intervalStartUTC, ChargeID: chargeID}]; ok {
		return v
	}
	return decimal.Zero
}
