package service

import (
	"testing"

	"tillpoint/internal/dto"
	"tillpoint/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ── PeriodNet ─────────────────────────────────────────────────────────────────

func TestPeriodNetOpenOnly(t *testing.T) {
	p := &model.Period{
		TotalCashInOpen:  dec("1500.00"),
		TotalCashOutOpen: dec("300.00"),
	}
	nets := PeriodNet(p)

	assert.True(t, nets.NetOpen.Equal(dec("1200.00")))
	assert.Nil(t, nets.NetClose)
	assert.Nil(t, nets.FinalNet)
}

func TestPeriodNetWithCloseTotals(t *testing.T) {
	inClose := dec("2400.00")
	outClose := dec("500.00")
	p := &model.Period{
		TotalCashInOpen:   dec("1500.00"),
		TotalCashOutOpen:  dec("300.00"),
		TotalCashInClose:  &inClose,
		TotalCashOutClose: &outClose,
	}
	nets := PeriodNet(p)

	require.NotNil(t, nets.NetClose)
	require.NotNil(t, nets.FinalNet)
	assert.True(t, nets.NetOpen.Equal(dec("1200.00")))
	assert.True(t, nets.NetClose.Equal(dec("1900.00")))
	// finalNet = netClose − netOpen
	assert.True(t, nets.FinalNet.Equal(dec("700.00")))
}

func TestPeriodNetHalfCloseTotalsStayNil(t *testing.T) {
	inClose := dec("2400.00")
	p := &model.Period{
		TotalCashInOpen:  dec("100.00"),
		TotalCashOutOpen: dec("40.00"),
		TotalCashInClose: &inClose,
	}
	nets := PeriodNet(p)

	assert.Nil(t, nets.NetClose)
	assert.Nil(t, nets.FinalNet)
}

// ── Reconcile ─────────────────────────────────────────────────────────────────

func entryFor(cashIn, physical string, hasPrev bool) *model.MachineEntry {
	return &model.MachineEntry{
		ID:               uuid.New(),
		ReportCashIn:     dec(cashIn),
		PhysicalCash:     dec(physical),
		HasPreviousEntry: hasPrev,
	}
}

func TestReconcileExactMatch(t *testing.T) {
	prev := entryFor("1000.00", "0", true)
	cur := entryFor("1400.00", "400.00", true)

	rec := Reconcile(cur, prev)

	require.True(t, rec.Computed)
	require.NotNil(t, rec.ExpectedPhysicalCash)
	assert.True(t, rec.DeltaIn.Equal(dec("400.00")))
	assert.True(t, rec.ExpectedPhysicalCash.Equal(dec("400.00")))
	assert.True(t, rec.Difference.IsZero())
	assert.Equal(t, OutcomeMatch, rec.Outcome)
	assert.Empty(t, rec.Anomalies)
}

func TestReconcileShortage(t *testing.T) {
	prev := entryFor("1000.00", "0", true)
	cur := entryFor("1400.00", "350.00", true)

	rec := Reconcile(cur, prev)

	require.True(t, rec.Computed)
	// expected 400 − counted 350 = 50 missing
	assert.True(t, rec.Difference.Equal(dec("50.00")))
	assert.Equal(t, OutcomeShortage, rec.Outcome)
}

func TestReconcileOverage(t *testing.T) {
	prev := entryFor("1000.00", "0", true)
	cur := entryFor("1400.00", "425.00", true)

	rec := Reconcile(cur, prev)

	require.True(t, rec.Computed)
	assert.True(t, rec.Difference.Equal(dec("-25.00")))
	assert.Equal(t, OutcomeOverage, rec.Outcome)
}

func TestReconcileFirstEntry(t *testing.T) {
	cur := entryFor("1234.00", "500.00", false)

	rec := Reconcile(cur, nil)

	require.True(t, rec.Computed)
	assert.Nil(t, rec.ExpectedPhysicalCash)
	assert.True(t, rec.Difference.IsZero())
	assert.Equal(t, OutcomeFirstEntry, rec.Outcome)
	assert.Empty(t, rec.Anomalies)
}

func TestReconcilePreviousClaimedButMissing(t *testing.T) {
	cur := entryFor("1400.00", "400.00", true)

	rec := Reconcile(cur, nil)

	assert.False(t, rec.Computed)
	assert.Equal(t, OutcomeSkipped, rec.Outcome)
	require.Len(t, rec.Anomalies, 1)
	assert.Equal(t, model.AnomalyPreviousMissing, rec.Anomalies[0].Code)
}

func TestReconcilePreviousResolvesToSelf(t *testing.T) {
	cur := entryFor("1400.00", "400.00", true)

	rec := Reconcile(cur, cur)

	assert.False(t, rec.Computed)
	assert.Equal(t, OutcomeSkipped, rec.Outcome)
}

func TestReconcileCounterDecreased(t *testing.T) {
	prev := entryFor("1000.00", "0", true)
	cur := entryFor("900.00", "50.00", true)

	rec := Reconcile(cur, prev)

	// The computation still completes: expected −100, counted 50, diff −150.
	require.True(t, rec.Computed)
	assert.True(t, rec.DeltaIn.Equal(dec("-100.00")))
	assert.True(t, rec.Difference.Equal(dec("-150.00")))
	assert.Equal(t, OutcomeOverage, rec.Outcome)
	require.Len(t, rec.Anomalies, 1)
	assert.Equal(t, model.AnomalyCounterDecreased, rec.Anomalies[0].Code)
}

// ── Shift-close aggregation ───────────────────────────────────────────────────

func TestDailyNet(t *testing.T) {
	assert.True(t, DailyNet(dec("500.00"), dec("100.00")).Equal(dec("400.00")))
	assert.True(t, DailyNet(dec("0"), dec("0")).IsZero())
}

func TestSumShiftReadings(t *testing.T) {
	totals := SumShiftReadings([]dto.ShiftCloseReading{
		{MachineName: "M1", CashIn: dec("500.00"), VoucherOut: dec("100.00")},
		{MachineName: "M2", CashIn: dec("300.00"), VoucherOut: dec("50.00")},
	})

	assert.True(t, totals.TotalCashIn.Equal(dec("800.00")))
	assert.True(t, totals.TotalVoucherOut.Equal(dec("150.00")))
	assert.True(t, totals.TotalNet.Equal(dec("650.00")))
}

func TestSumShiftReadingsEmpty(t *testing.T) {
	totals := SumShiftReadings(nil)

	assert.True(t, totals.TotalCashIn.IsZero())
	assert.True(t, totals.TotalVoucherOut.IsZero())
	assert.True(t, totals.TotalNet.IsZero())
}

func TestValidateShiftReadingsClean(t *testing.T) {
	fields := ValidateShiftReadings([]dto.ShiftCloseReading{
		{MachineName: "M1", CashIn: dec("120.00"), VoucherOut: dec("0")},
	})
	assert.Nil(t, fields)
}

func TestValidateShiftReadingsEmpty(t *testing.T) {
	fields := ValidateShiftReadings(nil)

	require.NotNil(t, fields)
	assert.Contains(t, fields, "readings")
}

func TestValidateShiftReadingsReportsEveryViolation(t *testing.T) {
	fields := ValidateShiftReadings([]dto.ShiftCloseReading{
		{MachineName: "M1", CashIn: dec("0"), VoucherOut: dec("10.00")},
		{MachineName: "M2", CashIn: dec("-5.00"), VoucherOut: dec("-1.00")},
	})

	require.NotNil(t, fields)
	assert.Contains(t, fields, "readings[0].cash_in")
	assert.Contains(t, fields, "readings[1].cash_in")
	assert.Contains(t, fields, "readings[1].voucher_out")
	// Aggregate cash-in (−5) fails the same bound.
	assert.Contains(t, fields, "total_cash_in")
	assert.NotContains(t, fields, "total_voucher_out")
}
