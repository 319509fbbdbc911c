package repository

import (
	"context"

	"tillpoint/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessRepository interface {
	Create(ctx context.Context, b *model.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
	List(ctx context.Context) ([]model.Business, error)
}

type businessRepo struct{ db *gorm.DB }

func NewBusinessRepository(db *gorm.DB) BusinessRepository { return &businessRepo{db: db} }

func (r *businessRepo) Create(ctx context.Context, b *model.Business) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *businessRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var b model.Business
	err := r.db.WithContext(ctx).First(&b, id).Error
	return &b, err
}

func (r *businessRepo) List(ctx context.Context) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&businesses).Error
	return businesses, err
}
