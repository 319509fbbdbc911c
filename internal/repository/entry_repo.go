package repository

import (
	"context"

	"tillpoint/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EntryRepository is the machine-entry storage collaborator. Entries are an
// append-only audit trail: no Update or Delete exists on this interface, by
// contract (compile-time guarantee).
type EntryRepository interface {
	Create(ctx context.Context, e *model.MachineEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MachineEntry, error)
	// FindMostRecentForMachine returns the latest entry recorded for the
	// machine within the given period, or gorm.ErrRecordNotFound.
	FindMostRecentForMachine(ctx context.Context, machineID, periodID uuid.UUID) (*model.MachineEntry, error)
	ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]model.MachineEntry, error)
	ListByMachine(ctx context.Context, machineID uuid.UUID, page, limit int) ([]model.MachineEntry, int64, error)
}

type entryRepo struct{ db *gorm.DB }

func NewEntryRepository(db *gorm.DB) EntryRepository { return &entryRepo{db: db} }

func (r *entryRepo) Create(ctx context.Context, e *model.MachineEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *entryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.MachineEntry, error) {
	var e model.MachineEntry
	err := r.db.WithContext(ctx).First(&e, id).Error
	return &e, err
}

func (r *entryRepo) FindMostRecentForMachine(ctx context.Context, machineID, periodID uuid.UUID) (*model.MachineEntry, error) {
	var e model.MachineEntry
	err := r.db.WithContext(ctx).
		Where("machine_id = ? AND period_id = ?", machineID, periodID).
		Order("opened_at DESC").
		First(&e).Error
	return &e, err
}

func (r *entryRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]model.MachineEntry, error) {
	var entries []model.MachineEntry
	err := r.db.WithContext(ctx).
		Where("period_id = ?", periodID).
		Order("opened_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *entryRepo) ListByMachine(ctx context.Context, machineID uuid.UUID, page, limit int) ([]model.MachineEntry, int64, error) {
	var entries []model.MachineEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&model.MachineEntry{}).Where("machine_id = ?", machineID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
