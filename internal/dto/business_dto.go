package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateBusinessRequest struct {
	Name        string  `json:"name"         validate:"required,min=2,max=150"`
	ReportEmail *string `json:"report_email" validate:"omitempty,email"`
}

type CreateMachineRequest struct {
	Name     string  `json:"name"      validate:"required,min=1,max=100"`
	SerialNo *string `json:"serial_no" validate:"omitempty,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BusinessResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ReportEmail *string `json:"report_email"`
	Active      bool    `json:"active"`
}

type MachineResponse struct {
	ID         string  `json:"id"`
	BusinessID string  `json:"business_id"`
	Name       string  `json:"name"`
	SerialNo   *string `json:"serial_no"`
	Active     bool    `json:"active"`
}
