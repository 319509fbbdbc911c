package service

import (
	"context"
	"errors"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// EntryService records machine cash pulls and runs the reconciliation for
// each freshly submitted entry. Entries are immutable once created — there is
// no update or delete surface anywhere in this service.
type EntryService interface {
	Create(ctx context.Context, userID, periodID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]dto.EntryResponse, error)
	ListByMachine(ctx context.Context, machineID uuid.UUID, page, limit int) (*dto.EntryListResponse, error)
}

type entryService struct {
	repo        repository.EntryRepository
	periodRepo  repository.PeriodRepository
	machineRepo repository.MachineRepository
}

func NewEntryService(
	repo repository.EntryRepository,
	periodRepo repository.PeriodRepository,
	machineRepo repository.MachineRepository,
) EntryService {
	return &entryService{repo: repo, periodRepo: periodRepo, machineRepo: machineRepo}
}

// ── Create ────────────────────────────────────────────────────────────────────

func (s *entryService) Create(ctx context.Context, userID, periodID uuid.UUID, req dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	period, err := s.periodRepo.FindByID(ctx, periodID)
	if err != nil {
		return nil, apierror.NewNotFound("period not found")
	}
	if !period.IsOpen() {
		return nil, apierror.NewConflict("entries can only be recorded against an open period")
	}

	machineID, err := uuid.Parse(req.MachineID)
	if err != nil {
		return nil, apierror.NewFieldValidation("machine_id", "must be a valid uuid")
	}
	// Machine identity is normalized here, at the storage boundary — entries
	// only ever carry the canonical uuid.
	machine, err := s.machineRepo.FindByID(ctx, machineID)
	if err != nil {
		return nil, apierror.NewFieldValidation("machine_id", "unknown machine")
	}
	if machine.BusinessID != period.BusinessID {
		return nil, apierror.NewFieldValidation("machine_id", "machine does not belong to this business")
	}

	// Absent readings are coerced to zero for the arithmetic but flagged, so
	// a missing field is never mistaken for a true zero meter.
	var absent []model.AnomalyWarning
	reportCashIn := coerceReading(req.ReportCashIn, "report_cash_in", &absent)
	reportCashOut := coerceReading(req.ReportCashOut, "report_cash_out", &absent)
	physicalCash := coerceReading(req.PhysicalCash, "physical_cash", &absent)

	fields := make(map[string]string)
	checkNonNegative(fields, "report_cash_in", reportCashIn)
	checkNonNegative(fields, "report_cash_out", reportCashOut)
	checkNonNegative(fields, "physical_cash", physicalCash)
	checkNonNegativePtr(fields, "safe_drop", req.SafeDrop)
	if req.ShiftClose {
		for k, v := range ValidateShiftReadings(req.Readings) {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	entry := &model.MachineEntry{
		PeriodID:         periodID,
		MachineID:        machine.ID,
		MachineName:      machine.Name,
		ReportCashIn:     reportCashIn,
		ReportCashOut:    reportCashOut,
		PhysicalCash:     physicalCash,
		HasPreviousEntry: req.HasPreviousEntry,
		ShiftClose:       req.ShiftClose,
		SafeDrop:         req.SafeDrop,
		Reason:           req.Reason,
		RecordedBy:       userID,
		OpenedAt:         time.Now().UTC(),
	}

	var previous *model.MachineEntry
	if req.HasPreviousEntry {
		prev, err := s.repo.FindMostRecentForMachine(ctx, machine.ID, periodID)
		switch {
		case err == nil:
			previous = prev
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Reconcile reports the inconsistency as an anomaly.
		default:
			return nil, err
		}
	}

	rec := Reconcile(entry, previous)
	rec.Anomalies = append(rec.Anomalies, absent...)
	entry.ExpectedPhysicalCash = rec.ExpectedPhysicalCash
	entry.Anomalies = rec.Anomalies
	if rec.Computed {
		diff := rec.Difference
		entry.Difference = &diff
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	resp := toEntryResponse(entry, rec)
	if req.ShiftClose {
		resp.ShiftSummary = buildShiftSummary(req.Readings, req.DeclaredTotals)
	}
	return resp, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *entryService) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]dto.EntryResponse, error) {
	if _, err := s.periodRepo.FindByID(ctx, periodID); err != nil {
		return nil, apierror.NewNotFound("period not found")
	}
	entries, err := s.repo.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		resp[i] = *toEntryResponse(&entries[i], storedReconciliation(&entries[i]))
	}
	return resp, nil
}

func (s *entryService) ListByMachine(ctx context.Context, machineID uuid.UUID, page, limit int) (*dto.EntryListResponse, error) {
	entries, total, err := s.repo.ListByMachine(ctx, machineID, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.EntryListResponse{
		Data:  make([]dto.EntryResponse, len(entries)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	for i := range entries {
		resp.Data[i] = *toEntryResponse(&entries[i], storedReconciliation(&entries[i]))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func coerceReading(v *decimal.Decimal, field string, absent *[]model.AnomalyWarning) decimal.Decimal {
	if v == nil {
		*absent = append(*absent, model.AnomalyWarning{
			Code:    model.AnomalyReadingAbsent,
			Message: field + " was not supplied; treated as zero",
		})
		return decimal.Zero
	}
	return *v
}

// storedReconciliation rebuilds the reconciliation view from the persisted
// entry, for list reads. The numbers were computed once at creation.
func storedReconciliation(e *model.MachineEntry) dto.ReconciliationResult {
	rec := dto.ReconciliationResult{
		ExpectedPhysicalCash: e.ExpectedPhysicalCash,
		Anomalies:            e.Anomalies,
	}
	switch {
	case e.Difference == nil:
		rec.Outcome = OutcomeSkipped
	case e.ExpectedPhysicalCash == nil:
		rec.Computed = true
		rec.Difference = *e.Difference
		rec.Outcome = OutcomeFirstEntry
	default:
		rec.Computed = true
		rec.Difference = *e.Difference
		rec.DeltaIn = *e.ExpectedPhysicalCash
		rec.Outcome = outcomeFor(*e.Difference)
	}
	return rec
}

func buildShiftSummary(readings []dto.ShiftCloseReading, declared *dto.ShiftTotals) *dto.ShiftCloseSummary {
	totals := SumShiftReadings(readings)
	summary := &dto.ShiftCloseSummary{
		Rows:           make([]dto.ShiftReadingRow, len(readings)),
		Totals:         totals,
		DeclaredTotals: declared,
	}
	for i, r := range readings {
		summary.Rows[i] = dto.ShiftReadingRow{
			MachineName: r.MachineName,
			CashIn:      r.CashIn,
			VoucherOut:  r.VoucherOut,
			DailyNet:    DailyNet(r.CashIn, r.VoucherOut),
		}
	}
	if declared != nil {
		summary.Diverges = !declared.TotalCashIn.Equal(totals.TotalCashIn) ||
			!declared.TotalVoucherOut.Equal(totals.TotalVoucherOut) ||
			!declared.TotalNet.Equal(totals.TotalNet)
	}
	return summary
}

func toEntryResponse(e *model.MachineEntry, rec dto.ReconciliationResult) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:               e.ID.String(),
		PeriodID:         e.PeriodID.String(),
		MachineID:        e.MachineID.String(),
		MachineName:      e.MachineName,
		ReportCashIn:     e.ReportCashIn,
		ReportCashOut:    e.ReportCashOut,
		PhysicalCash:     e.PhysicalCash,
		HasPreviousEntry: e.HasPreviousEntry,
		SafeDrop:         e.SafeDrop,
		Reason:           e.Reason,
		Reconciliation:   rec,
		Anomalies:        e.Anomalies,
		ShiftClose:       e.ShiftClose,
		OpenedAt:         e.OpenedAt.Format(timestampLayout),
	}
}
