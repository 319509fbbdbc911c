package service

import (
	"context"
	"time"

	"tillpoint/internal/apierror"
	"tillpoint/internal/dto"
	"tillpoint/internal/model"
	"tillpoint/internal/repository"

	"github.com/google/uuid"
)

// PayoutService is plain CRUD over winner payout records. Scheduling
// semantics are out of scope — rows are facts about cash already handed over.
type PayoutService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.CreatePayoutRequest) (*dto.PayoutResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.PayoutResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdatePayoutRequest) (*dto.PayoutResponse, error)
	Void(ctx context.Context, id uuid.UUID) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) (*dto.PayoutListResponse, error)
}

type payoutService struct {
	repo         repository.PayoutRepository
	businessRepo repository.BusinessRepository
	periodRepo   repository.PeriodRepository
}

func NewPayoutService(
	repo repository.PayoutRepository,
	businessRepo repository.BusinessRepository,
	periodRepo repository.PeriodRepository,
) PayoutService {
	return &payoutService{repo: repo, businessRepo: businessRepo, periodRepo: periodRepo}
}

func (s *payoutService) Create(ctx context.Context, userID uuid.UUID, req dto.CreatePayoutRequest) (*dto.PayoutResponse, error) {
	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		return nil, apierror.NewFieldValidation("business_id", "must be a valid uuid")
	}
	if _, err := s.businessRepo.FindByID(ctx, businessID); err != nil {
		return nil, apierror.NewNotFound("business not found")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.NewFieldValidation("amount", "must be greater than zero")
	}

	payout := &model.WinnerPayout{
		BusinessID: businessID,
		WinnerName: req.WinnerName,
		Amount:     req.Amount,
		Notes:      req.Notes,
		PaidBy:     userID,
		PaidAt:     time.Now().UTC(),
	}
	if req.PeriodID != nil {
		periodID, err := uuid.Parse(*req.PeriodID)
		if err != nil {
			return nil, apierror.NewFieldValidation("period_id", "must be a valid uuid")
		}
		if _, err := s.periodRepo.FindByID(ctx, periodID); err != nil {
			return nil, apierror.NewNotFound("period not found")
		}
		payout.PeriodID = &periodID
	}
	if req.MachineID != nil {
		machineID, err := uuid.Parse(*req.MachineID)
		if err != nil {
			return nil, apierror.NewFieldValidation("machine_id", "must be a valid uuid")
		}
		payout.MachineID = &machineID
	}

	if err := s.repo.Create(ctx, payout); err != nil {
		return nil, err
	}
	return toPayoutResponse(payout), nil
}

func (s *payoutService) Get(ctx context.Context, id uuid.UUID) (*dto.PayoutResponse, error) {
	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("payout not found")
	}
	return toPayoutResponse(payout), nil
}

func (s *payoutService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePayoutRequest) (*dto.PayoutResponse, error) {
	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NewNotFound("payout not found")
	}
	if payout.Voided {
		return nil, apierror.NewConflict("payout is voided and cannot be modified")
	}

	if req.WinnerName != "" {
		payout.WinnerName = req.WinnerName
	}
	if req.Amount != nil {
		if !req.Amount.IsPositive() {
			return nil, apierror.NewFieldValidation("amount", "must be greater than zero")
		}
		payout.Amount = *req.Amount
	}
	if req.Notes != nil {
		payout.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, payout); err != nil {
		return nil, err
	}
	return toPayoutResponse(payout), nil
}

func (s *payoutService) Void(ctx context.Context, id uuid.UUID) error {
	payout, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apierror.NewNotFound("payout not found")
	}
	if payout.Voided {
		return apierror.NewConflict("payout is already voided")
	}
	payout.Voided = true
	return s.repo.Update(ctx, payout)
}

func (s *payoutService) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) (*dto.PayoutListResponse, error) {
	payouts, total, err := s.repo.ListByBusiness(ctx, businessID, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.PayoutListResponse{
		Data:  make([]dto.PayoutResponse, len(payouts)),
		Page:  page,
		Limit: limit,
		Total: total,
	}
	for i := range payouts {
		resp.Data[i] = *toPayoutResponse(&payouts[i])
	}
	return resp, nil
}

func toPayoutResponse(p *model.WinnerPayout) *dto.PayoutResponse {
	resp := &dto.PayoutResponse{
		ID:         p.ID.String(),
		BusinessID: p.BusinessID.String(),
		WinnerName: p.WinnerName,
		Amount:     p.Amount,
		Notes:      p.Notes,
		Voided:     p.Voided,
		PaidAt:     p.PaidAt.Format(timestampLayout),
	}
	if p.PeriodID != nil {
		id := p.PeriodID.String()
		resp.PeriodID = &id
	}
	if p.MachineID != nil {
		id := p.MachineID.String()
		resp.MachineID = &id
	}
	return resp
}
