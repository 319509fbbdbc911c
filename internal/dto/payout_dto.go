package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreatePayoutRequest struct {
	BusinessID string          `json:"business_id" validate:"required,uuid"`
	PeriodID   *string         `json:"period_id"   validate:"omitempty,uuid"`
	MachineID  *string         `json:"machine_id"  validate:"omitempty,uuid"`
	WinnerName string          `json:"winner_name" validate:"required,min=2,max=150"`
	Amount     decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Notes      *string         `json:"notes"`
}

type UpdatePayoutRequest struct {
	WinnerName string           `json:"winner_name" validate:"omitempty,min=2,max=150"`
	Amount     *decimal.Decimal `json:"amount"`
	Notes      *string          `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PayoutResponse struct {
	ID         string          `json:"id"`
	BusinessID string          `json:"business_id"`
	PeriodID   *string         `json:"period_id"`
	MachineID  *string         `json:"machine_id"`
	WinnerName string          `json:"winner_name"`
	Amount     decimal.Decimal `json:"amount"`
	Notes      *string         `json:"notes"`
	Voided     bool            `json:"voided"`
	PaidAt     string          `json:"paid_at"`
}

type PayoutListResponse struct {
	Data  []PayoutResponse `json:"data"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}
