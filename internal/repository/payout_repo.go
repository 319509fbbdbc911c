package repository

import (
	"context"

	"tillpoint/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PayoutRepository interface {
	Create(ctx context.Context, p *model.WinnerPayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WinnerPayout, error)
	Update(ctx context.Context, p *model.WinnerPayout) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.WinnerPayout, int64, error)
	// SumByPeriod totals non-voided payouts attached to a period.
	SumByPeriod(ctx context.Context, periodID uuid.UUID) (decimal.Decimal, error)
}

type payoutRepo struct{ db *gorm.DB }

func NewPayoutRepository(db *gorm.DB) PayoutRepository { return &payoutRepo{db: db} }

func (r *payoutRepo) Create(ctx context.Context, p *model.WinnerPayout) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *payoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.WinnerPayout, error) {
	var p model.WinnerPayout
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *payoutRepo) Update(ctx context.Context, p *model.WinnerPayout) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *payoutRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.WinnerPayout, int64, error) {
	var payouts []model.WinnerPayout
	var total int64

	q := r.db.WithContext(ctx).Model(&model.WinnerPayout{}).Where("business_id = ?", businessID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("paid_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&payouts).Error
	return payouts, total, err
}

func (r *payoutRepo) SumByPeriod(ctx context.Context, periodID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.WinnerPayout{}).
		Select("SUM(amount)").
		Where("period_id = ? AND voided = false", periodID).
		Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}
