package dto

import (
	"tillpoint/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateEntryRequest submits a machine cash pull. The counter readings are
// pointers so an absent field is distinguishable from a true zero meter —
// absent values are coerced to zero for the arithmetic but flagged as
// anomalies so they don't mask a misread.
type CreateEntryRequest struct {
	MachineID        string           `json:"machine_id"        validate:"required,uuid"`
	ReportCashIn     *decimal.Decimal `json:"report_cash_in"`
	ReportCashOut    *decimal.Decimal `json:"report_cash_out"`
	PhysicalCash     *decimal.Decimal `json:"physical_cash"`
	HasPreviousEntry bool             `json:"has_previous_entry"`
	SafeDrop         *decimal.Decimal `json:"safe_drop"`
	Reason           *string          `json:"reason"`

	// ShiftClose marks this pull as a shift close; Readings then carry the
	// staff-entered per-machine figures to aggregate.
	ShiftClose bool                `json:"shift_close"`
	Readings   []ShiftCloseReading `json:"readings" validate:"omitempty,dive"`
	// DeclaredTotals is the manually overridden aggregate, if the caller
	// edited the totals after the rows were itemized. It is echoed back next
	// to the computed totals — precedence is the caller's decision.
	DeclaredTotals *ShiftTotals `json:"declared_totals"`
}

// ShiftCloseReading is one machine's staff-entered figures in a shift close.
// Ephemeral: aggregated at submission, not persisted on its own.
type ShiftCloseReading struct {
	MachineName string          `json:"machine_name" validate:"required"`
	CashIn      decimal.Decimal `json:"cash_in"`
	VoucherOut  decimal.Decimal `json:"voucher_out"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ShiftTotals aggregates per-machine readings for a shift close.
type ShiftTotals struct {
	TotalCashIn     decimal.Decimal `json:"total_cash_in"`
	TotalVoucherOut decimal.Decimal `json:"total_voucher_out"`
	TotalNet        decimal.Decimal `json:"total_net"`
}

// ShiftReadingRow is a reading echoed back with its computed daily net.
type ShiftReadingRow struct {
	MachineName string          `json:"machine_name"`
	CashIn      decimal.Decimal `json:"cash_in"`
	VoucherOut  decimal.Decimal `json:"voucher_out"`
	DailyNet    decimal.Decimal `json:"daily_net"`
}

// ShiftCloseSummary exposes both the computed totals and any declared
// override, with a divergence flag — never a silently picked winner.
type ShiftCloseSummary struct {
	Rows           []ShiftReadingRow `json:"rows"`
	Totals         ShiftTotals       `json:"totals"`
	DeclaredTotals *ShiftTotals      `json:"declared_totals,omitempty"`
	Diverges       bool              `json:"diverges"`
}

type EntryResponse struct {
	ID          string `json:"id"`
	PeriodID    string `json:"period_id"`
	MachineID   string `json:"machine_id"`
	MachineName string `json:"machine_name"`

	ReportCashIn     decimal.Decimal  `json:"report_cash_in"`
	ReportCashOut    decimal.Decimal  `json:"report_cash_out"`
	PhysicalCash     decimal.Decimal  `json:"physical_cash"`
	HasPreviousEntry bool             `json:"has_previous_entry"`
	SafeDrop         *decimal.Decimal `json:"safe_drop"`
	Reason           *string          `json:"reason"`

	Reconciliation ReconciliationResult   `json:"reconciliation"`
	Anomalies      []model.AnomalyWarning `json:"anomalies,omitempty"`

	ShiftClose   bool               `json:"shift_close"`
	ShiftSummary *ShiftCloseSummary `json:"shift_summary,omitempty"`

	OpenedAt string `json:"opened_at"`
}

type EntryListResponse struct {
	Data  []EntryResponse `json:"data"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int64           `json:"total"`
}
