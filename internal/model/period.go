package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Period statuses. A period is created OPEN and makes a single terminal
// transition to CLOSED; nothing ever leaves CLOSED.
const (
	PeriodOpen   = "OPEN"
	PeriodClosed = "CLOSED"
)

// Period is one business-day accounting window for a location, bounded by an
// open and (eventually) a close event.
//
// Two invariants are enforced by the database, not just by service checks
// (see infra.NewDatabase):
//   - at most one OPEN period per business (partial unique index)
//   - business_date is unique per business
type Period struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID   uuid.UUID `gorm:"type:uuid;not null;index"`
	BusinessDate time.Time `gorm:"type:date;not null"`
	Status       string    `gorm:"type:varchar(10);not null;default:'OPEN'"`

	TotalCashInOpen  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	TotalCashOutOpen decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CashInAtmOpen    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	SafeDropOpen     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`

	// Close totals are nil while the period is OPEN.
	TotalCashInClose  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	TotalCashOutClose *decimal.Decimal `gorm:"type:decimal(14,2)"`
	CashInAtmClose    *decimal.Decimal `gorm:"type:decimal(14,2)"`
	SafeDropClose     *decimal.Decimal `gorm:"type:decimal(14,2)"`

	Payout                *decimal.Decimal `gorm:"type:decimal(14,2)"`
	PhysicalCashCollected *decimal.Decimal `gorm:"type:decimal(14,2)"`

	// Net figures are stored at close time; the read path recomputes them
	// for OPEN periods (see service.PeriodNet).
	NetOpen  *decimal.Decimal `gorm:"type:decimal(14,2)"`
	NetClose *decimal.Decimal `gorm:"type:decimal(14,2)"`
	FinalNet *decimal.Decimal `gorm:"type:decimal(14,2)"`

	OpenedBy uuid.UUID  `gorm:"type:uuid;not null"`
	ClosedBy *uuid.UUID `gorm:"type:uuid"`
	OpenedAt time.Time
	ClosedAt *time.Time

	// Close-summary delivery tracking, driven by the report worker and the
	// retry goroutine. Zero value = nothing pending.
	SummarySent        bool `gorm:"not null;default:false"`
	SummaryAttempts    int  `gorm:"not null;default:0"`
	NextSummaryRetryAt *time.Time

	Attachments []PeriodAttachment `gorm:"foreignKey:PeriodID"`
	Entries     []MachineEntry     `gorm:"foreignKey:PeriodID"`
}

// PeriodAttachment is an image reference registered against a closed period.
// Upload mechanics live in the image-store sidecar; only the reference is kept.
type PeriodAttachment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PeriodID  uuid.UUID `gorm:"type:uuid;index;not null"`
	ImageRef  string    `gorm:"not null"`
	CreatedAt time.Time
}

// IsOpen reports whether the period still accepts entries and a close.
func (p *Period) IsOpen() bool { return p.Status == PeriodOpen }
