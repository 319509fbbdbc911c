package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MachineEntry records one cash pull for a gaming machine within a period.
// Entries are NEVER modified or deleted after creation — they are the audit
// trail the reconciliation engine reads from.
//
// ReportCashIn / ReportCashOut are cumulative meter counters read off the
// machine; they are non-decreasing per machine under normal operation, and a
// decrease is flagged as an anomaly rather than rejected.
type MachineEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PeriodID    uuid.UUID `gorm:"type:uuid;not null;index"`
	MachineID   uuid.UUID `gorm:"type:uuid;not null;index:idx_entries_machine_opened,priority:1"`
	MachineName string    `gorm:"not null"`

	ReportCashIn  decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	ReportCashOut decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	PhysicalCash  decimal.Decimal `gorm:"type:decimal(14,2);not null"`

	HasPreviousEntry bool `gorm:"not null"`
	ShiftClose       bool `gorm:"not null;default:false"`

	SafeDrop *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Reason   *string

	// Reconciliation output, computed once at creation. ExpectedPhysicalCash
	// is nil for a machine's first entry (no meter delta to expect) and when
	// the computation was skipped on a data inconsistency.
	ExpectedPhysicalCash *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Difference           *decimal.Decimal `gorm:"type:decimal(14,2)"`
	Anomalies            []AnomalyWarning `gorm:"serializer:json"`

	RecordedBy uuid.UUID `gorm:"type:uuid;not null"`
	OpenedAt   time.Time `gorm:"not null;index:idx_entries_machine_opened,priority:2"`
	CreatedAt  time.Time
}

// AnomalyWarning is a detected irregularity returned alongside a valid result.
// It is never an error: the numeric computation still completes (or is
// explicitly skipped) and the caller decides how to surface it.
type AnomalyWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Anomaly codes.
const (
	AnomalyCounterDecreased = "counter_decreased"
	AnomalyPreviousMissing  = "previous_entry_missing"
	AnomalyReadingAbsent    = "reading_absent"
)
