package health

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fraud-desk/alert_service/pkg/metrics"
)

// DatabaseChecker checks database connectivity and that the alert schema is migrated
type DatabaseChecker struct {
	db      *sql.DB
	timeout time.Duration
}

// NewDatabaseChecker creates a new database health checker
func NewDatabaseChecker(db *sql.DB, timeout time.Duration) *DatabaseChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &DatabaseChecker{db: db, timeout: timeout}
}

// Check performs the database health check
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return NewUnhealthyResult("database", err).WithDuration(time.Since(start))
	}

	var migrated bool
	if err := c.db.QueryRowContext(ctx, "SELECT to_regclass('public.alerts') IS NOT NULL").Scan(&migrated); err != nil {
		return NewUnhealthyResult("database", err).WithDuration(time.Since(start))
	}
	if !migrated {
		return NewUnhealthyResult("database", errors.New("alerts table missing")).WithDuration(time.Since(start))
	}

	stats := c.db.Stats()
	metrics.UpdateDatabaseConnections(stats.OpenConnections, stats.Idle, stats.InUse)

	result := NewHealthyResult("database", "connected").
		WithDuration(time.Since(start)).
		WithMetadata("open_connections", stats.OpenConnections).
		WithMetadata("in_use", stats.InUse).
		WithMetadata("idle", stats.Idle)

	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections)
		result = result.WithMetadata("pool_utilization", utilization)
		if utilization > 0.8 {
			result.Status = StatusDegraded
			result.Message = "high connection pool utilization"
		}
	}
	return result
}

// Name returns the checker name
func (c *DatabaseChecker) Name() string {
	return "database"
}
