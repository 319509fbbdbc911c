package model

import (
	"time"

	"github.com/google/uuid"
)

// Business is a gaming-machine/retail location. Each business has at most one
// OPEN period at any time and one period per business date.
type Business struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"not null;uniqueIndex"`
	// ReportEmail receives the close-summary PDF; nil disables delivery.
	ReportEmail *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Machines []Machine `gorm:"foreignKey:BusinessID"`
}

// Machine is one gaming machine installed at a business. Machines are the
// canonical identity entries reference — lookups resolve names to the uuid
// here, at the data-model boundary, never via fallback chains downstream.
type Machine struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"not null"`
	SerialNo   *string   `gorm:"uniqueIndex"`
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
