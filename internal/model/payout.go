package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WinnerPayout records cash paid out to a winner. Plain CRUD rows — payout
// scheduling lives outside this service. Voided payouts stay on record.
type WinnerPayout struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PeriodID   *uuid.UUID `gorm:"type:uuid;index"`
	MachineID  *uuid.UUID `gorm:"type:uuid"`

	WinnerName string          `gorm:"not null"`
	Amount     decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Notes      *string

	PaidBy    uuid.UUID `gorm:"type:uuid;not null"`
	PaidAt    time.Time `gorm:"not null"`
	Voided    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
