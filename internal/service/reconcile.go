package service

// reconcile.go — the reconciliation engine.
// Pure synchronous arithmetic over already-fetched data: period net figures,
// machine cash-pull variance, and shift-close aggregation. No I/O, no hidden
// state — every function takes its inputs explicitly and returns a result.

import (
	"fmt"

	"tillpoint/internal/dto"
	"tillpoint/internal/model"

	"github.com/shopspring/decimal"
)

// ── Period nets ───────────────────────────────────────────────────────────────

// PeriodNet computes netOpen = cashInOpen − cashOutOpen,
// netClose = cashInClose − cashOutClose, finalNet = netClose − netOpen.
// Missing close totals yield nil NetClose/FinalNet rather than an error.
func PeriodNet(p *model.Period) dto.NetFigures {
	figures := dto.NetFigures{
		NetOpen: p.TotalCashInOpen.Sub(p.TotalCashOutOpen),
	}
	if p.TotalCashInClose == nil || p.TotalCashOutClose == nil {
		return figures
	}
	netClose := p.TotalCashInClose.Sub(*p.TotalCashOutClose)
	finalNet := netClose.Sub(figures.NetOpen)
	figures.NetClose = &netClose
	figures.FinalNet = &finalNet
	return figures
}

// ── Machine entry variance ────────────────────────────────────────────────────

// Reconciliation outcomes.
const (
	OutcomeMatch      = "match"
	OutcomeShortage   = "shortage"
	OutcomeOverage    = "overage"
	OutcomeFirstEntry = "first_entry"
	OutcomeSkipped    = "skipped"
)

// Reconcile compares a freshly submitted entry against the most recent prior
// entry for the same machine.
//
// Only the cash-in counter participates in the variance: the expected
// physical cash is the cash-in meter delta, and the difference is
// expected − counted. Cash-out counters are recorded but excluded.
func Reconcile(current *model.MachineEntry, previous *model.MachineEntry) dto.ReconciliationResult {
	// First entry for this machine: difference is defined as exactly 0 and
	// there is no expected value. Not an anomaly.
	if !current.HasPreviousEntry {
		return dto.ReconciliationResult{
			Computed:   true,
			Difference: decimal.Zero,
			Outcome:    OutcomeFirstEntry,
		}
	}

	// The entry claims a prior entry exists but the lookup found none, or it
	// resolved to the current entry itself. Data inconsistency: report it and
	// skip the computation — no guess at a value.
	if previous == nil || previous.ID == current.ID {
		return dto.ReconciliationResult{
			Computed: false,
			Outcome:  OutcomeSkipped,
			Anomalies: []model.AnomalyWarning{{
				Code:    model.AnomalyPreviousMissing,
				Message: "no previous entry found for this machine in the current period; difference remains unchanged",
			}},
		}
	}

	deltaIn := current.ReportCashIn.Sub(previous.ReportCashIn)
	expected := deltaIn
	difference := expected.Sub(current.PhysicalCash)

	rec := dto.ReconciliationResult{
		Computed:             true,
		DeltaIn:              deltaIn,
		ExpectedPhysicalCash: &expected,
		Difference:           difference,
		Outcome:              outcomeFor(difference),
	}

	if deltaIn.IsNegative() {
		rec.Anomalies = append(rec.Anomalies, model.AnomalyWarning{
			Code:    model.AnomalyCounterDecreased,
			Message: "cash-in counter decreased versus previous entry — possible meter reset or misreported reading",
		})
	}
	return rec
}

func outcomeFor(difference decimal.Decimal) string {
	switch {
	case difference.IsPositive():
		return OutcomeShortage
	case difference.IsNegative():
		return OutcomeOverage
	default:
		return OutcomeMatch
	}
}

// ── Shift-close aggregation ───────────────────────────────────────────────────

// DailyNet is the per-machine net: cashIn − voucherOut.
func DailyNet(cashIn, voucherOut decimal.Decimal) decimal.Decimal {
	return cashIn.Sub(voucherOut)
}

// SumShiftReadings computes the aggregate totals over itemized readings.
// Totals always derive from the rows; a manually declared aggregate is never
// folded in here (callers compare the two explicitly).
func SumShiftReadings(readings []dto.ShiftCloseReading) dto.ShiftTotals {
	totals := dto.ShiftTotals{
		TotalCashIn:     decimal.Zero,
		TotalVoucherOut: decimal.Zero,
	}
	for _, r := range readings {
		totals.TotalCashIn = totals.TotalCashIn.Add(r.CashIn)
		totals.TotalVoucherOut = totals.TotalVoucherOut.Add(r.VoucherOut)
	}
	totals.TotalNet = totals.TotalCashIn.Sub(totals.TotalVoucherOut)
	return totals
}

// ValidateShiftReadings checks every reading before a shift close may be
// submitted: cashIn must be > 0 and voucherOut ≥ 0 per machine, and the
// aggregates must satisfy the same bounds. Every offending field is reported,
// not just the first.
func ValidateShiftReadings(readings []dto.ShiftCloseReading) map[string]string {
	fields := make(map[string]string)
	if len(readings) == 0 {
		fields["readings"] = "at least one machine reading is required"
		return fields
	}
	for i, r := range readings {
		if !r.CashIn.IsPositive() {
			fields[fmt.Sprintf("readings[%d].cash_in", i)] = "must be greater than zero"
		}
		if r.VoucherOut.IsNegative() {
			fields[fmt.Sprintf("readings[%d].voucher_out", i)] = "must be zero or greater"
		}
	}
	totals := SumShiftReadings(readings)
	if !totals.TotalCashIn.IsPositive() {
		fields["total_cash_in"] = "must be greater than zero"
	}
	if totals.TotalVoucherOut.IsNegative() {
		fields["total_voucher_out"] = "must be zero or greater"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
