package service

import (
	"context"
	"testing"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory fakes ───────────────────────────────────────────────────────────

type fakeEntryRepo struct {
	entries []*model.MachineEntry
}

var _ repository.EntryRepository = (*fakeEntryRepo)(nil)

func (r *fakeEntryRepo) Create(_ context.Context, e *model.MachineEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.MachineEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) FindMostRecentForMachine(_ context.Context, machineID, periodID uuid.UUID) (*model.MachineEntry, error) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].MachineID == machineID && r.entries[i].PeriodID == periodID {
			return r.entries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEntryRepo) ListByPeriod(_ context.Context, periodID uuid.UUID) ([]model.MachineEntry, error) {
	var out []model.MachineEntry
	for _, e := range r.entries {
		if e.PeriodID == periodID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEntryRepo) ListByMachine(_ context.Context, machineID uuid.UUID, page, limit int) ([]model.MachineEntry, int64, error) {
	var out []model.MachineEntry
	for _, e := range r.entries {
		if e.MachineID == machineID {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

type fakeMachineRepo struct {
	machines map[uuid.UUID]*model.Machine
}

var _ repository.MachineRepository = (*fakeMachineRepo)(nil)

func newFakeMachineRepo() *fakeMachineRepo {
	return &fakeMachineRepo{machines: make(map[uuid.UUID]*model.Machine)}
}

func (r *fakeMachineRepo) Create(_ context.Context, m *model.Machine) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.machines[m.ID] = m
	return nil
}

func (r *fakeMachineRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Machine, error) {
	m, ok := r.machines[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m, nil
}

func (r *fakeMachineRepo) ListByBusiness(_ context.Context, businessID uuid.UUID) ([]model.Machine, error) {
	var out []model.Machine
	for _, m := range r.machines {
		if m.BusinessID == businessID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMachineRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if m, ok := r.machines[id]; ok {
		m.Active = false
	}
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

type entryFixture struct {
	svc      EntryService
	entries  *fakeEntryRepo
	periods  *fakePeriodRepo
	machines *fakeMachineRepo
	period   *model.Period
	machine  *model.Machine
	userID   uuid.UUID
}

func newEntryFixture(t *testing.T) *entryFixture {
	t.Helper()
	entries := &fakeEntryRepo{}
	periods := newFakePeriodRepo()
	machines := newFakeMachineRepo()

	businessID := uuid.New()
	period := &model.Period{
		BusinessID:       businessID,
		BusinessDate:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:           model.PeriodOpen,
		TotalCashInOpen:  dec("1500.00"),
		TotalCashOutOpen: dec("300.00"),
		OpenedBy:         uuid.New(),
		OpenedAt:         time.Now().UTC(),
	}
	require.NoError(t, periods.Create(context.Background(), period))

	machine := &model.Machine{BusinessID: businessID, Name: "SL-07", Active: true}
	require.NoError(t, machines.Create(context.Background(), machine))

	return &entryFixture{
		svc:      NewEntryService(entries, periods, machines),
		entries:  entries,
		periods:  periods,
		machines: machines,
		period:   period,
		machine:  machine,
		userID:   uuid.New(),
	}
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func entryRequest(machineID uuid.UUID, cashIn, cashOut, physical string, hasPrev bool) dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		MachineID:        machineID.String(),
		ReportCashIn:     decPtr(cashIn),
		ReportCashOut:    decPtr(cashOut),
		PhysicalCash:     decPtr(physical),
		HasPreviousEntry: hasPrev,
	}
}

// ── Create ────────────────────────────────────────────────────────────────────

func TestCreateFirstEntry(t *testing.T) {
	fx := newEntryFixture(t)

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))

	require.NoError(t, err)
	assert.Equal(t, OutcomeFirstEntry, resp.Reconciliation.Outcome)
	assert.True(t, resp.Reconciliation.Computed)
	assert.Nil(t, resp.Reconciliation.ExpectedPhysicalCash)
	assert.True(t, resp.Reconciliation.Difference.IsZero())
	assert.Equal(t, "SL-07", resp.MachineName)
	assert.Empty(t, resp.Anomalies)

	require.Len(t, fx.entries.entries, 1)
	stored := fx.entries.entries[0]
	require.NotNil(t, stored.Difference)
	assert.True(t, stored.Difference.IsZero())
	assert.Nil(t, stored.ExpectedPhysicalCash)
}

func TestCreateReconciledEntry(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))
	require.NoError(t, err)

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1400.00", "250.00", "350.00", true))

	require.NoError(t, err)
	require.True(t, resp.Reconciliation.Computed)
	require.NotNil(t, resp.Reconciliation.ExpectedPhysicalCash)
	assert.True(t, resp.Reconciliation.ExpectedPhysicalCash.Equal(dec("400.00")))
	assert.True(t, resp.Reconciliation.Difference.Equal(dec("50.00")))
	assert.Equal(t, OutcomeShortage, resp.Reconciliation.Outcome)
	assert.Empty(t, resp.Anomalies)
}

func TestCreateEntryAgainstClosedPeriod(t *testing.T) {
	fx := newEntryFixture(t)
	fx.period.Status = model.PeriodClosed

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))

	var conflict *apierror.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, fx.entries.entries)
}

func TestCreateEntryUnknownMachine(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(uuid.New(), "1000.00", "200.00", "500.00", false))

	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "machine_id")
}

func TestCreateEntryMachineFromAnotherBusiness(t *testing.T) {
	fx := newEntryFixture(t)
	foreign := &model.Machine{BusinessID: uuid.New(), Name: "SL-99", Active: true}
	require.NoError(t, fx.machines.Create(context.Background(), foreign))

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(foreign.ID, "1000.00", "200.00", "500.00", false))

	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "machine_id")
}

func TestCreateEntryNegativeCashRejected(t *testing.T) {
	fx := newEntryFixture(t)

	req := entryRequest(fx.machine.ID, "-1.00", "200.00", "-3.00", false)
	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID, req)

	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "report_cash_in")
	assert.Contains(t, validation.Fields, "physical_cash")
	assert.Empty(t, fx.entries.entries)
}

func TestCreateEntryAbsentReadingsFlagged(t *testing.T) {
	fx := newEntryFixture(t)

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID, dto.CreateEntryRequest{
		MachineID: fx.machine.ID.String(),
	})

	require.NoError(t, err)
	// Coerced to zero, flagged per absent field — never mistaken for a meter
	// that truly reads zero.
	assert.True(t, resp.ReportCashIn.IsZero())
	assert.True(t, resp.PhysicalCash.IsZero())
	require.Len(t, resp.Anomalies, 3)
	for _, a := range resp.Anomalies {
		assert.Equal(t, model.AnomalyReadingAbsent, a.Code)
	}
	assert.Equal(t, OutcomeFirstEntry, resp.Reconciliation.Outcome)
}

func TestCreateEntryPreviousClaimedButMissing(t *testing.T) {
	fx := newEntryFixture(t)

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1400.00", "250.00", "350.00", true))

	require.NoError(t, err)
	assert.False(t, resp.Reconciliation.Computed)
	assert.Equal(t, OutcomeSkipped, resp.Reconciliation.Outcome)
	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, model.AnomalyPreviousMissing, resp.Anomalies[0].Code)

	// The entry is still persisted — the inconsistency is data, not an error —
	// but no difference is recorded.
	require.Len(t, fx.entries.entries, 1)
	assert.Nil(t, fx.entries.entries[0].Difference)
}

func TestCreateEntryCounterDecreasedAnomaly(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))
	require.NoError(t, err)

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "900.00", "250.00", "50.00", true))

	require.NoError(t, err)
	require.True(t, resp.Reconciliation.Computed)
	assert.True(t, resp.Reconciliation.DeltaIn.Equal(dec("-100.00")))
	require.Len(t, resp.Anomalies, 1)
	assert.Equal(t, model.AnomalyCounterDecreased, resp.Anomalies[0].Code)
}

// ── Shift close ───────────────────────────────────────────────────────────────

func TestCreateShiftCloseEntry(t *testing.T) {
	fx := newEntryFixture(t)

	req := entryRequest(fx.machine.ID, "1000.00", "200.00", "650.00", false)
	req.ShiftClose = true
	req.Readings = []dto.ShiftCloseReading{
		{MachineName: "SL-07", CashIn: dec("500.00"), VoucherOut: dec("100.00")},
		{MachineName: "SL-08", CashIn: dec("300.00"), VoucherOut: dec("50.00")},
	}

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID, req)

	require.NoError(t, err)
	assert.True(t, resp.ShiftClose)
	require.NotNil(t, resp.ShiftSummary)
	assert.True(t, resp.ShiftSummary.Totals.TotalCashIn.Equal(dec("800.00")))
	assert.True(t, resp.ShiftSummary.Totals.TotalVoucherOut.Equal(dec("150.00")))
	assert.True(t, resp.ShiftSummary.Totals.TotalNet.Equal(dec("650.00")))
	require.Len(t, resp.ShiftSummary.Rows, 2)
	assert.True(t, resp.ShiftSummary.Rows[0].DailyNet.Equal(dec("400.00")))
	assert.False(t, resp.ShiftSummary.Diverges)
}

func TestCreateShiftCloseDeclaredTotalsDiverge(t *testing.T) {
	fx := newEntryFixture(t)

	req := entryRequest(fx.machine.ID, "1000.00", "200.00", "650.00", false)
	req.ShiftClose = true
	req.Readings = []dto.ShiftCloseReading{
		{MachineName: "SL-07", CashIn: dec("500.00"), VoucherOut: dec("100.00")},
	}
	req.DeclaredTotals = &dto.ShiftTotals{
		TotalCashIn:     dec("520.00"),
		TotalVoucherOut: dec("100.00"),
		TotalNet:        dec("420.00"),
	}

	resp, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID, req)

	require.NoError(t, err)
	require.NotNil(t, resp.ShiftSummary)
	// Both figures are echoed back; neither silently wins.
	assert.True(t, resp.ShiftSummary.Diverges)
	require.NotNil(t, resp.ShiftSummary.DeclaredTotals)
	assert.True(t, resp.ShiftSummary.DeclaredTotals.TotalCashIn.Equal(dec("520.00")))
	assert.True(t, resp.ShiftSummary.Totals.TotalCashIn.Equal(dec("500.00")))
}

func TestCreateShiftCloseWithoutReadingsRejected(t *testing.T) {
	fx := newEntryFixture(t)

	req := entryRequest(fx.machine.ID, "1000.00", "200.00", "650.00", false)
	req.ShiftClose = true

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID, req)

	var validation *apierror.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "readings")
	assert.Empty(t, fx.entries.entries)
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func TestListByPeriodRebuildsOutcomes(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))
	require.NoError(t, err)
	_, err = fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1400.00", "250.00", "350.00", true))
	require.NoError(t, err)

	list, err := fx.svc.ListByPeriod(context.Background(), fx.period.ID)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, OutcomeFirstEntry, list[0].Reconciliation.Outcome)
	assert.Equal(t, OutcomeShortage, list[1].Reconciliation.Outcome)
	assert.True(t, list[1].Reconciliation.Difference.Equal(dec("50.00")))
}

func TestListByPeriodUnknownPeriod(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.ListByPeriod(context.Background(), uuid.New())

	var nf *apierror.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListByMachinePaginates(t *testing.T) {
	fx := newEntryFixture(t)

	_, err := fx.svc.Create(context.Background(), fx.userID, fx.period.ID,
		entryRequest(fx.machine.ID, "1000.00", "200.00", "500.00", false))
	require.NoError(t, err)

	list, err := fx.svc.ListByMachine(context.Background(), fx.machine.ID, 1, 20)

	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Data, 1)
	assert.Equal(t, fx.machine.ID.String(), list.Data[0].MachineID)
}
