package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthChecker_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		results  []CheckResult
		expected Status
	}{
		{name: "all healthy", results: []CheckResult{NewHealthyResult("a", "ok"), NewHealthyResult("b", "ok")}, expected: StatusHealthy},
		{name: "degraded", results: []CheckResult{NewHealthyResult("a", "ok"), NewDegradedResult("b", "slow")}, expected: StatusDegraded},
		{name: "unhealthy", results: []CheckResult{NewDegradedResult("a", "slow"), NewUnhealthyResult("b", errors.New("down"))}, expected: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(time.Second)
			for i, r := range tt.results {
				r := r
				h.Register(NewFuncChecker(string(rune('a'+i)), func(context.Context) CheckResult { return r }))
			}

			status, results := h.Check(context.Background())
			assert.Equal(t, tt.expected, status)
			assert.Len(t, results, len(tt.results))
		})
	}
}

func TestCheckResult_WithMetadataCopies(t *testing.T) {
	base := NewHealthyResult("snapshot", "ok").WithMetadata("records", 10)
	derived := base.WithMetadata("age", "1s")

	assert.Len(t, base.Metadata, 1)
	assert.Len(t, derived.Metadata, 2)
}

func TestNewCheckResult_ErrorForcesUnhealthy(t *testing.T) {
	r := NewCheckResult("database", StatusHealthy, "connected", errors.New("refused"))
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "refused", r.Error)
}
