package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeTimeout      ErrorType = "timeout"
	// ErrorTypeExternal covers the alert store, cache and mail provider
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeTransient represents errors that can be retried
	ErrorTypeTransient ErrorType = "transient"
)

// AppError represents an application error with additional context
type AppError struct {
	Type       ErrorType         `json:"type"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Err        error             `json:"-"`
	Retryable  bool              `json:"retryable"`
	StatusCode int               `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code and type so copies made by With* compare equal to the sentinel
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithDetail returns a copy of the error carrying an extra detail.
// Sentinels are never mutated.
func (e *AppError) WithDetail(key, value string) *AppError {
	cp := *e
	cp.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// WithMessage returns a copy of the error with a different message
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithCause returns a copy of the error wrapping err
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// Common error instances
var (
	ErrInternalServer = &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    "An internal server error occurred",
		StatusCode: http.StatusInternalServerError,
	}

	ErrValidation = &AppError{
		Type:       ErrorTypeValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
	}

	ErrNotFound = &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrUnauthorized = &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		StatusCode: http.StatusUnauthorized,
	}

	ErrInvalidToken = &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       "INVALID_TOKEN",
		Message:    "Invalid or expired token",
		StatusCode: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Type:       ErrorTypeForbidden,
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: http.StatusForbidden,
	}

	ErrRateLimit = &AppError{
		Type:       ErrorTypeRateLimit,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
		Retryable:  true,
	}

	ErrTimeout = &AppError{
		Type:       ErrorTypeTimeout,
		Code:       "TIMEOUT",
		Message:    "Request timeout",
		StatusCode: http.StatusGatewayTimeout,
		Retryable:  true,
	}

	ErrExternalService = &AppError{
		Type:       ErrorTypeExternal,
		Code:       "EXTERNAL_SERVICE_ERROR",
		Message:    "External service error",
		StatusCode: http.StatusBadGateway,
		Retryable:  true,
	}

	// ErrServiceUnavailable is returned while the alert store breaker is open
	ErrServiceUnavailable = &AppError{
		Type:       ErrorTypeTransient,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Alert store temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Retryable:  true,
	}

	ErrAlertNotFound = &AppError{
		Type:       ErrorTypeNotFound,
		Code:       "ALERT_NOT_FOUND",
		Message:    "Alert not found",
		StatusCode: http.StatusNotFound,
	}

	// ErrInvalidDisposition rejects anything other than a confirmed fraud or legitimate decision
	ErrInvalidDisposition = &AppError{
		Type:       ErrorTypeValidation,
		Code:       "INVALID_DISPOSITION",
		Message:    "Disposition must be CONFIRMED_FRAUD or CONFIRMED_LEGITIMATE",
		StatusCode: http.StatusBadRequest,
	}

	ErrInvalidQuery = &AppError{
		Type:       ErrorTypeValidation,
		Code:       "INVALID_QUERY",
		Message:    "Invalid alert query",
		StatusCode: http.StatusBadRequest,
	}

	// ErrCorruptRecord flags a stored alert without an identifier
	ErrCorruptRecord = &AppError{
		Type:       ErrorTypeInternal,
		Code:       "CORRUPT_ALERT_RECORD",
		Message:    "Alert record set contains a record without an identifier",
		StatusCode: http.StatusInternalServerError,
	}

	// ErrRecordLimitExceeded is returned when the store holds more alerts than a snapshot may load
	ErrRecordLimitExceeded = &AppError{
		Type:       ErrorTypeInternal,
		Code:       "RECORD_LIMIT_EXCEEDED",
		Message:    "Alert record set exceeds the configured limit",
		StatusCode: http.StatusInternalServerError,
	}
)

// New creates a new AppError
func New(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// GetType returns the error type
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetCode returns the error code
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// GetStatusCode returns the HTTP status code for an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// GetMessage returns the client-facing message for an error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternalServer.Message
}

// GetDetails returns the details of an AppError, or nil
func GetDetails(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Details
	}
	return nil
}
