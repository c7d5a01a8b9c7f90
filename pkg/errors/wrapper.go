package errors

import "net/http"

// WrapWithType wraps an error with a specific error type
func WrapWithType(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		Err:        err,
		Retryable:  IsTransient(errType),
		StatusCode: statusForType(errType),
	}
}

// WrapValidation wraps a validation error
func WrapValidation(err error, message string) *AppError {
	return WrapWithType(err, ErrorTypeValidation, "VALIDATION_ERROR", message)
}

// WrapExternal wraps an error from a downstream dependency
func WrapExternal(err error, service, message string) *AppError {
	return WrapWithType(err, ErrorTypeExternal, "EXTERNAL_SERVICE_ERROR", message).
		WithDetail("service", service)
}

// WrapClassified wraps err using the type ClassifyError assigns to it.
// AppErrors pass through unchanged.
func WrapClassified(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*AppError); ok {
		return err
	}
	errType := ClassifyError(err)
	return WrapWithType(err, errType, codeForType(errType), message)
}

// IsTransient determines if an error type is transient
func IsTransient(errType ErrorType) bool {
	switch errType {
	case ErrorTypeTransient, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeExternal:
		return true
	default:
		return false
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return ErrValidation.WithMessage(message)
}

func statusForType(t ErrorType) int {
	switch t {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeForbidden:
		return http.StatusForbidden
	case ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case ErrorTypeExternal:
		return http.StatusBadGateway
	case ErrorTypeTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func codeForType(t ErrorType) string {
	switch t {
	case ErrorTypeValidation:
		return ErrValidation.Code
	case ErrorTypeNotFound:
		return ErrNotFound.Code
	case ErrorTypeTimeout:
		return ErrTimeout.Code
	case ErrorTypeRateLimit:
		return ErrRateLimit.Code
	case ErrorTypeExternal, ErrorTypeTransient:
		return ErrExternalService.Code
	default:
		return ErrInternalServer.Code
	}
}
