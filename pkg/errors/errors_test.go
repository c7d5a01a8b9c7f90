package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesCopies(t *testing.T) {
	err := ErrAlertNotFound.WithDetail("alert_id", "AL-9")

	assert.True(t, errors.Is(err, ErrAlertNotFound))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, ErrAlertNotFound.Details, "sentinel untouched")
	assert.Equal(t, "AL-9", GetDetails(fmt.Errorf("lookup: %w", err))["alert_id"])
}

func TestGetters(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", ErrInvalidDisposition)

	assert.Equal(t, http.StatusBadRequest, GetStatusCode(wrapped))
	assert.Equal(t, "INVALID_DISPOSITION", GetCode(wrapped))
	assert.Equal(t, ErrorTypeValidation, GetType(wrapped))
	assert.Equal(t, ErrInvalidDisposition.Message, GetMessage(wrapped))
	assert.False(t, IsRetryable(wrapped))

	plain := errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(plain))
	assert.Equal(t, "UNKNOWN_ERROR", GetCode(plain))
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorType
	}{
		{name: "nil", err: nil, expected: ""},
		{name: "app error", err: ErrRateLimit, expected: ErrorTypeRateLimit},
		{name: "deadline", err: context.DeadlineExceeded, expected: ErrorTypeTimeout},
		{name: "no rows", err: fmt.Errorf("get: %w", sql.ErrNoRows), expected: ErrorTypeNotFound},
		{name: "pg connection failure", err: &pq.Error{Code: "08006"}, expected: ErrorTypeTransient},
		{name: "pg serialization", err: &pq.Error{Code: "40001"}, expected: ErrorTypeTransient},
		{name: "pg statement timeout", err: &pq.Error{Code: "57014"}, expected: ErrorTypeTimeout},
		{name: "pg unique violation", err: &pq.Error{Code: "23505"}, expected: ErrorTypeValidation},
		{name: "message pattern", err: errors.New("dial tcp: connection refused"), expected: ErrorTypeTransient},
		{name: "unknown", err: errors.New("boom"), expected: ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyError(tt.err))
		})
	}
}

func TestWrapClassified(t *testing.T) {
	err := WrapClassified(&pq.Error{Code: "08001"}, "fetch alerts")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, http.StatusServiceUnavailable, GetStatusCode(err))
	assert.True(t, IsCircuitBreakerError(err))

	assert.Same(t, ErrAlertNotFound, WrapClassified(ErrAlertNotFound, "ignored"))
	assert.Nil(t, WrapClassified(nil, "nothing"))
}
