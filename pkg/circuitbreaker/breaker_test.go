package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
)

func TestExecute_TripsOnInfrastructureFailures(t *testing.T) {
	cb := New("test-store-trip", DefaultConfig())

	for i := 0; i < 3; i++ {
		_, err := Execute(cb, func() ([]string, error) {
			return nil, apperrors.ErrTimeout
		})
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := Execute(cb, func() ([]string, error) {
		return []string{"never"}, nil
	})
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavailable))
}

func TestExecute_IgnoresDomainErrors(t *testing.T) {
	cb := New("test-store-domain", DefaultConfig())

	for i := 0; i < 5; i++ {
		_, err := Execute(cb, func() (int, error) {
			return 0, apperrors.ErrAlertNotFound
		})
		assert.True(t, errors.Is(err, apperrors.ErrAlertNotFound))
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())

	n, err := Execute(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
