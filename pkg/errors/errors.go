package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeExternal       ErrorType = "external"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error.
// Callers must pass the generic message; the real reason belongs in logs only.
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewRateLimitError creates a rate-limit rejection carrying a retry-after hint in seconds
func NewRateLimitError(retryAfterSeconds int64) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    "Too many requests",
		StatusCode: http.StatusTooManyRequests,
		Details: map[string]interface{}{
			"retry_after": retryAfterSeconds,
		},
	}
}

// RetryAfter extracts the retry-after hint from a rate-limit error, 0 when absent
func (e *AppError) RetryAfter() int64 {
	if e.Details == nil {
		return 0
	}
	if v, ok := e.Details["retry_after"].(int64); ok {
		return v
	}
	return 0
}
