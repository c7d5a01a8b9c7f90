package errors

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/lib/pq"
)

// ClassifyError classifies an error for retry and circuit breaker logic
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrorTypeInternal
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrorTypeNotFound
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return ErrorTypeInternal
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED:
			return ErrorTypeTransient
		case syscall.ETIMEDOUT:
			return ErrorTypeTimeout
		}
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
		return ErrorTypeTimeout
	case strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe"):
		return ErrorTypeTransient
	case strings.Contains(errMsg, "rate limit") || strings.Contains(errMsg, "too many requests"):
		return ErrorTypeRateLimit
	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no such"):
		return ErrorTypeNotFound
	}

	return ErrorTypeInternal
}

// classifyPostgres maps SQLSTATE classes onto error types
func classifyPostgres(err *pq.Error) ErrorType {
	if err.Code == "57014" { // query_canceled, raised by statement_timeout
		return ErrorTypeTimeout
	}
	switch err.Code.Class() {
	case "08", "53", "57": // connection exception, insufficient resources, operator intervention
		return ErrorTypeTransient
	case "40": // transaction rollback (serialization, deadlock)
		return ErrorTypeTransient
	case "22", "23": // data exception, integrity constraint
		return ErrorTypeValidation
	}
	return ErrorTypeInternal
}

// ShouldRetry determines if an error should be retried
func ShouldRetry(err error) bool {
	return IsTransient(ClassifyError(err))
}

// IsCircuitBreakerError determines if an error should trip the circuit breaker
func IsCircuitBreakerError(err error) bool {
	switch ClassifyError(err) {
	case ErrorTypeTimeout, ErrorTypeTransient, ErrorTypeExternal:
		return true
	default:
		return false
	}
}
