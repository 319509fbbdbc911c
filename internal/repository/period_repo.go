package repository

import (
	"context"
	"time"

	"tillpoint/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeriodRepository is the period storage collaborator. The single-open-period
// and unique-business-date invariants are enforced by database indexes (see
// infra.NewDatabase); Create surfaces the duplicate-key error when a race
// slips past the service's fast-path check.
type PeriodRepository interface {
	Create(ctx context.Context, p *model.Period) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Period, error)
	FindActiveByBusiness(ctx context.Context, businessID uuid.UUID) (*model.Period, error)
	FindByBusinessDate(ctx context.Context, businessID uuid.UUID, date time.Time) (*model.Period, error)
	Update(ctx context.Context, p *model.Period) error
	ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.Period, int64, error)
	// ListPendingSummaries returns closed periods whose close summary has not
	// been delivered and whose next retry time has passed.
	ListPendingSummaries(ctx context.Context, now time.Time, limit int) ([]model.Period, error)
}

type periodRepo struct{ db *gorm.DB }

func NewPeriodRepository(db *gorm.DB) PeriodRepository { return &periodRepo{db: db} }

func (r *periodRepo) Create(ctx context.Context, p *model.Period) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *periodRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Period, error) {
	var p model.Period
	err := r.db.WithContext(ctx).Preload("Attachments").First(&p, id).Error
	return &p, err
}

func (r *periodRepo) FindActiveByBusiness(ctx context.Context, businessID uuid.UUID) (*model.Period, error) {
	var p model.Period
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND status = ?", businessID, model.PeriodOpen).
		First(&p).Error
	return &p, err
}

func (r *periodRepo) FindByBusinessDate(ctx context.Context, businessID uuid.UUID, date time.Time) (*model.Period, error) {
	var p model.Period
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND business_date = ?", businessID, date.Format("2006-01-02")).
		First(&p).Error
	return &p, err
}

func (r *periodRepo) Update(ctx context.Context, p *model.Period) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *periodRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID, page, limit int) ([]model.Period, int64, error) {
	var periods []model.Period
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Period{}).Where("business_id = ?", businessID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("business_date DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&periods).Error
	return periods, total, err
}

func (r *periodRepo) ListPendingSummaries(ctx context.Context, now time.Time, limit int) ([]model.Period, error) {
	var periods []model.Period
	err := r.db.WithContext(ctx).
		Where("status = ? AND summary_sent = false AND next_summary_retry_at IS NOT NULL AND next_summary_retry_at <= ?",
			model.PeriodClosed, now).
		Order("next_summary_retry_at ASC").
		Limit(limit).
		Find(&periods).Error
	return periods, err
}
