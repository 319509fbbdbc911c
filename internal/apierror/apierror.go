// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
//
// Services return the typed errors below; handlers map them to HTTP status
// codes with errors.As. Anomalies detected during reconciliation are NOT
// errors — they travel alongside valid results (see model.AnomalyWarning).
package apierror

import "fmt"

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError reports malformed or out-of-range input. Fields carries one
// message per offending field — every violation, not just the first.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// NewFieldValidation is shorthand for a single-field violation.
func NewFieldValidation(field, msg string) *ValidationError {
	return NewValidation(map[string]string{field: msg})
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Detail, e.Fields)
}

// ConflictError reports a business-rule violation against current state
// (active period already exists, period already closed). Never silently
// resolved — surfaced verbatim to the caller.
type ConflictError struct {
	Detail string `json:"detail"`
}

func NewConflict(msg string) *ConflictError { return &ConflictError{Detail: msg} }

func (e *ConflictError) Error() string { return e.Detail }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Detail string `json:"detail"`
}

func NewNotFound(msg string) *NotFoundError { return &NotFoundError{Detail: msg} }

func (e *NotFoundError) Error() string { return e.Detail }
