package repository

import (
	"context"

	"tillpoint/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MachineRepository interface {
	Create(ctx context.Context, m *model.Machine) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Machine, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type machineRepo struct{ db *gorm.DB }

func NewMachineRepository(db *gorm.DB) MachineRepository { return &machineRepo{db: db} }

func (r *machineRepo) Create(ctx context.Context, m *model.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *machineRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var m model.Machine
	err := r.db.WithContext(ctx).First(&m, id).Error
	return &m, err
}

func (r *machineRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Machine, error) {
	var machines []model.Machine
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND active = true", businessID).
		Order("name ASC").
		Find(&machines).Error
	return machines, err
}

func (r *machineRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Machine{}).
		Where("id = ?", id).
		Update("active", false).Error
}
