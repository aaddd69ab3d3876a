// Package apperror defines the domain error type returned by sheepdiary
// services. Handlers never map errors themselves; the echo error handler in
// internal/app renders any *AppError as JSON with the right status code.
// Raw database or infrastructure errors must never reach a client response.
package apperror

import (
	"fmt"
	"net/http"
)

// AppError carries an HTTP status, a machine-readable type, and a message
// that is safe to show to the client.
type AppError struct {
	Code    int    `json:"-"`
	Type    string `json:"type"`
	Message string `json:"message"`

	// Fields holds per-field validation messages, set only by NewValidation.
	Fields map[string]string `json:"fields,omitempty"`

	// Internal is the underlying cause, logged server-side only.
	Internal error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

func NewNotFound(message string) *AppError {
	return &AppError{Code: http.StatusNotFound, Type: "not_found", Message: message}
}

func NewBadRequest(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Type: "bad_request", Message: message}
}

func NewUnauthorized(message string) *AppError {
	return &AppError{Code: http.StatusUnauthorized, Type: "unauthorized", Message: message}
}

func NewForbidden(message string) *AppError {
	return &AppError{Code: http.StatusForbidden, Type: "forbidden", Message: message}
}

func NewConflict(message string) *AppError {
	return &AppError{Code: http.StatusConflict, Type: "conflict", Message: message}
}

// NewValidation reports one or more invalid input fields as a 422 with a
// per-field message map.
func NewValidation(fields map[string]string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Type:    "validation_error",
		Message: "The submitted data could not be processed.",
		Fields:  fields,
	}
}

// NewInternal wraps an unexpected error. The cause is kept for logging; the
// client sees only a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:     http.StatusInternalServerError,
		Type:     "internal_error",
		Message:  "An unexpected error occurred. Please try again.",
		Internal: err,
	}
}
