package dto

import (
	"tillpoint/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenPeriodRequest struct {
	BusinessID       string          `json:"business_id"        validate:"required,uuid"`
	BusinessDate     string          `json:"business_date"      validate:"required,datetime=2006-01-02"`
	TotalCashInOpen  decimal.Decimal `json:"total_cash_in_open"  validate:"min=0"`
	TotalCashOutOpen decimal.Decimal `json:"total_cash_out_open" validate:"min=0"`
	CashInAtmOpen    decimal.Decimal `json:"cash_in_atm_open"    validate:"min=0"`
	SafeDropOpen     decimal.Decimal `json:"safe_drop_open"      validate:"min=0"`
}

type ClosePeriodRequest struct {
	TotalCashInClose  decimal.Decimal  `json:"total_cash_in_close"  validate:"min=0"`
	TotalCashOutClose decimal.Decimal  `json:"total_cash_out_close" validate:"min=0"`
	CashInAtmClose    *decimal.Decimal `json:"cash_in_atm_close"`
	SafeDropClose     *decimal.Decimal `json:"safe_drop_close"`
	Payout            *decimal.Decimal `json:"payout"`
	PhysicalCash      *decimal.Decimal `json:"physical_cash_collected"`
	Attachments       []string         `json:"attachments" validate:"omitempty,dive,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// NetFigures holds the derived net values for a period. NetClose and FinalNet
// are nil while the period is still open (no close totals yet).
type NetFigures struct {
	NetOpen  decimal.Decimal  `json:"net_open"`
	NetClose *decimal.Decimal `json:"net_close"`
	FinalNet *decimal.Decimal `json:"final_net"`
}

type PeriodResponse struct {
	ID           string `json:"id"`
	BusinessID   string `json:"business_id"`
	BusinessDate string `json:"business_date"`
	Status       string `json:"status"`

	TotalCashInOpen  decimal.Decimal `json:"total_cash_in_open"`
	TotalCashOutOpen decimal.Decimal `json:"total_cash_out_open"`
	CashInAtmOpen    decimal.Decimal `json:"cash_in_atm_open"`
	SafeDropOpen     decimal.Decimal `json:"safe_drop_open"`

	TotalCashInClose  *decimal.Decimal `json:"total_cash_in_close"`
	TotalCashOutClose *decimal.Decimal `json:"total_cash_out_close"`
	CashInAtmClose    *decimal.Decimal `json:"cash_in_atm_close"`
	SafeDropClose     *decimal.Decimal `json:"safe_drop_close"`

	Payout       *decimal.Decimal `json:"payout"`
	PhysicalCash *decimal.Decimal `json:"physical_cash_collected"`

	Net NetFigures `json:"net"`

	Attachments []string `json:"attachments,omitempty"`
	OpenedAt    string   `json:"opened_at"`
	ClosedAt    *string  `json:"closed_at"`
}

type PeriodListResponse struct {
	Data  []PeriodResponse `json:"data"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int64            `json:"total"`
}

// ─── Reconciliation results ──────────────────────────────────────────────────

// ReconciliationResult is the cash-difference breakdown for one entry.
// Computed is false only when the lookup was inconsistent (the entry claims a
// previous entry exists but none was found): the difference is left unchanged
// rather than guessed.
//
// Sign of Difference: positive = physical cash short of expected (adverse),
// negative = physical cash over expected (caution), zero = exact match. The
// Outcome field states this explicitly so callers never parse signs.
type ReconciliationResult struct {
	Computed             bool                   `json:"computed"`
	DeltaIn              decimal.Decimal        `json:"delta_in"`
	ExpectedPhysicalCash *decimal.Decimal       `json:"expected_physical_cash"`
	Difference           decimal.Decimal        `json:"difference"`
	Outcome              string                 `json:"outcome"`
	Anomalies            []model.AnomalyWarning `json:"anomalies,omitempty"`
}
