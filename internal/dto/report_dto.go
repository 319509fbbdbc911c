package dto

import (
	"tillpoint/internal/model"

	"github.com/shopspring/decimal"
)

// DailyReportResponse is the per business+date roll-up served to dashboards.
// Derived data only — rebuildable from periods, entries and payouts.
type DailyReportResponse struct {
	BusinessID   string `json:"business_id"`
	BusinessName string `json:"business_name"`
	Date         string `json:"date"`

	Period *PeriodResponse `json:"period"`

	EntryCount  int                    `json:"entry_count"`
	Variances   []ReportVarianceRow    `json:"variances"`
	Anomalies   []model.AnomalyWarning `json:"anomalies,omitempty"`
	TotalPayout decimal.Decimal        `json:"total_payout"`
}

// ReportVarianceRow is one machine entry's variance in the daily report.
type ReportVarianceRow struct {
	MachineName  string           `json:"machine_name"`
	PhysicalCash decimal.Decimal  `json:"physical_cash"`
	Expected     *decimal.Decimal `json:"expected_physical_cash"`
	Difference   *decimal.Decimal `json:"difference"`
	Outcome      string           `json:"outcome"`
}
