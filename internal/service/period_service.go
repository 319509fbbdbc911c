package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"
	"tillpoint/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	activePeriodCacheTTL = time.Minute
	dateLayout           = "2006-01-02"
	timestampLayout      = "2006-01-02T15:04:05Z"
)

// AttachmentRegistrar validates attachment references against the image-store
// sidecar before they are bound to a closed period. Upload mechanics live
// entirely on the other side of this boundary.
type AttachmentRegistrar interface {
	Verify(ctx context.Context, refs []string) error
}

// PeriodService governs the OPEN→CLOSED life cycle of business-day periods.
//
// The no-active-period and unique-date preconditions checked here are a
// fast-path rejection only: the real enforcement is the database's partial
// unique index, whose duplicate-key error is translated to the same
// ConflictError when two opens race.
type PeriodService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenPeriodRequest) (*dto.PeriodResponse, error)
	Close(ctx context.Context, userID, periodID uuid.UUID, req dto.ClosePeriodRequest) (*dto.PeriodResponse, error)
	// GetActive returns the single OPEN period for the business, or nil.
	GetActive(ctx context.Context, businessID uuid.UUID) (*dto.PeriodResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PeriodResponse, error)
	List(ctx context.Context, businessID uuid.UUID, page, limit int) (*dto.PeriodListResponse, error)
}

type periodService struct {
	repo         repository.PeriodRepository
	businessRepo repository.BusinessRepository
	attachments  AttachmentRegistrar
	dispatcher   *worker.Dispatcher
	rdb          *redis.Client
}

func NewPeriodService(
	repo repository.PeriodRepository,
	businessRepo repository.BusinessRepository,
	attachments AttachmentRegistrar,
	dispatcher *worker.Dispatcher,
	rdb *redis.Client,
) PeriodService {
	return &periodService{
		repo:         repo,
		businessRepo: businessRepo,
		attachments:  attachments,
		dispatcher:   dispatcher,
		rdb:          rdb,
	}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *periodService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenPeriodRequest) (*dto.PeriodResponse, error) {
	fields := make(map[string]string)
	checkNonNegative(fields, "total_cash_in_open", req.TotalCashInOpen)
	checkNonNegative(fields, "total_cash_out_open", req.TotalCashOutOpen)
	checkNonNegative(fields, "cash_in_atm_open", req.CashInAtmOpen)
	checkNonNegative(fields, "safe_drop_open", req.SafeDropOpen)
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, apierror.NewFieldValidation("business_id", "must be a valid uuid")
	}
	businessDate, err := time.Parse(dateLayout, req.BusinessDate)
	if err != nil {
		return nil, apierror.NewFieldValidation("business_date", "must be a calendar date (YYYY-MM-DD)")
	}
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, apierror.NewNotFound("business not found")
	}

	// Fast path: reject before hitting the unique index.
	if existing, err := s.repo.FindActiveByBusiness(ctx, businessID); err == nil && existing != nil {
		return nil, apierror.NewConflict("an active period already exists for this business")
	}
	if prior, err := s.repo.FindByBusinessDate(ctx, businessID, businessDate); err == nil && prior != nil {
		if prior.Status == model.PeriodClosed {
			return nil, apierror.NewFieldValidation("business_date", "that day is already closed and cannot be reopened")
		}
		return nil, apierror.NewConflict("a period already exists for this business date")
	}

	period := &model.Period{
		BusinessID:       businessID,
		BusinessDate:     businessDate,
		Status:           model.PeriodOpen,
		TotalCashInOpen:  req.TotalCashInOpen,
		TotalCashOutOpen: req.TotalCashOutOpen,
		CashInAtmOpen:    req.CashInAtmOpen,
		SafeDropOpen:     req.SafeDropOpen,
		OpenedBy:         userID,
		OpenedAt:         time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, period); err != nil {
		// The partial unique index is the actual mutual-exclusion mechanism;
		// a race past the fast path lands here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.NewConflict("an active period already exists for this business")
		}
		return nil, err
	}

	s.invalidateActiveCache(ctx, businessID)
	return toPeriodResponse(period), nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *periodService) Close(ctx context.Context, userID, periodID uuid.UUID, req dto.ClosePeriodRequest) (*dto.PeriodResponse, error) {
	period, err := s.repo.FindByID(ctx, periodID)
	if err != nil {
		return nil, apierror.NewNotFound("period not found")
	}
	if !period.IsOpen() {
		return nil, apierror.NewConflict("period is already closed and cannot be modified")
	}

	fields := make(map[string]string)
	checkNonNegative(fields, "total_cash_in_close", req.TotalCashInClose)
	checkNonNegative(fields, "total_cash_out_close", req.TotalCashOutClose)
	checkNonNegativePtr(fields, "cash_in_atm_close", req.CashInAtmClose)
	checkNonNegativePtr(fields, "safe_drop_close", req.SafeDropClose)
	checkNonNegativePtr(fields, "payout", req.Payout)
	checkNonNegativePtr(fields, "physical_cash_collected", req.PhysicalCash)
	if len(fields) > 0 {
		return nil, apierror.NewValidation(fields)
	}

	// Attachment refs are verified against the image store before they are
	// bound; the sidecar call is guarded by a circuit breaker upstream.
	if len(req.Attachments) > 0 && s.attachments != nil {
		if err := s.attachments.Verify(ctx, req.Attachments); err != nil {
			return nil, apierror.NewFieldValidation("attachments", "attachment verification failed: "+err.Error())
		}
	}

	now := time.Now().UTC()
	period.TotalCashInClose = &req.TotalCashInClose
	period.TotalCashOutClose = &req.TotalCashOutClose
	period.CashInAtmClose = req.CashInAtmClose
	period.SafeDropClose = req.SafeDropClose
	period.Payout = req.Payout
	period.PhysicalCashCollected = req.PhysicalCash
	period.Status = model.PeriodClosed
	period.ClosedBy = &userID
	period.ClosedAt = &now

	nets := PeriodNet(period)
	period.NetOpen = &nets.NetOpen
	period.NetClose = nets.NetClose
	period.FinalNet = nets.FinalNet

	for _, ref := range req.Attachments {
		period.Attachments = append(period.Attachments, model.PeriodAttachment{ImageRef: ref})
	}

	// Close-summary delivery: the worker clears this; the retry goroutine
	// picks it up if the enqueue below is lost.
	retryAt := now.Add(2 * time.Minute)
	period.NextSummaryRetryAt = &retryAt

	if err := s.repo.Update(ctx, period); err != nil {
		return nil, err
	}

	s.invalidateActiveCache(ctx, period.BusinessID)

	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReport(ctx, worker.ReportJobPayload{PeriodID: period.ID.String()})
	}
	return toPeriodResponse(period), nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *periodService) GetActive(ctx context.Context, businessID uuid.UUID) (*dto.PeriodResponse, error) {
	cacheKey := "period:active:" + businessID.String()
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.PeriodResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return &resp, nil
			}
		}
	}

	period, err := s.repo.FindActiveByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	resp := toPeriodResponse(period)

	if s.rdb != nil {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			_ = s.rdb.Set(ctx, cacheKey, b, activePeriodCacheTTL).Err()
		}
	}
	return resp, nil
}

func (s *periodService) Get(ctx context.Context, id uuid.UUID) (*dto.PeriodResponse, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("period not found")
	}
	return toPeriodResponse(period), nil
}

func (s *periodService) List(ctx context.Context, businessID uuid.UUID, page, limit int) (*dto.PeriodListResponse, error) {
	periods, total, err := s.repo.ListByBusiness(ctx, businessID, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.PeriodListResponse{
		Data:  make([]dto.PeriodResponse, len(periods)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	for i := range periods {
		resp.Data[i] = *toPeriodResponse(&periods[i])
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *periodService) invalidateActiveCache(ctx context.Context, businessID uuid.UUID) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, "period:active:"+businessID.String()).Err()
	}
}

func checkNonNegative(fields map[string]string, name string, v decimal.Decimal) {
	if v.IsNegative() {
		fields[name] = "cash values must be zero or greater"
	}
}

func checkNonNegativePtr(fields map[string]string, name string, v *decimal.Decimal) {
	if v != nil && v.IsNegative() {
		fields[name] = "cash values must be zero or greater"
	}
}

func toPeriodResponse(p *model.Period) *dto.PeriodResponse {
	resp := &dto.PeriodResponse{
		ID:                p.ID.String(),
		BusinessID:        p.BusinessID.String(),
		BusinessDate:      p.BusinessDate.Format(dateLayout),
		Status:            p.Status,
		TotalCashInOpen:   p.TotalCashInOpen,
		TotalCashOutOpen:  p.TotalCashOutOpen,
		CashInAtmOpen:     p.CashInAtmOpen,
		SafeDropOpen:      p.SafeDropOpen,
		TotalCashInClose:  p.TotalCashInClose,
		TotalCashOutClose: p.TotalCashOutClose,
		CashInAtmClose:    p.CashInAtmClose,
		SafeDropClose:     p.SafeDropClose,
		Payout:            p.Payout,
		PhysicalCash:      p.PhysicalCashCollected,
		Net:               PeriodNet(p),
		OpenedAt:          p.OpenedAt.Format(timestampLayout),
	}
	for _, a := range p.Attachments {
		resp.Attachments = append(resp.Attachments, a.ImageRef)
	}
	if p.ClosedAt != nil {
		t := p.ClosedAt.Format(timestampLayout)
		resp.ClosedAt = &t
	}
	return resp
}
