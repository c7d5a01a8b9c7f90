// Package snapshot keeps the alert snapshot and pool gauges fresh on a schedule
package snapshot

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/pkg/jobqueue"
	"github.com/fraud-desk/alert_service/pkg/metrics"
)

// Refresher reloads the alert snapshot
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Register adds the snapshot refresh and pool statistics jobs to the scheduler.
// db may be nil.
func Register(scheduler *jobqueue.JobScheduler, spec string, refresher Refresher, db *sql.DB, logger *zap.Logger) error {
	if err := scheduler.AddJob(jobqueue.ScheduledJob{
		Name:     "alert-snapshot-refresh",
		Schedule: spec,
		Timeout:  2 * time.Minute,
		Handler:  RefreshJob(refresher, logger),
	}); err != nil {
		return err
	}

	if db == nil {
		return nil
	}
	return scheduler.AddJob(jobqueue.ScheduledJob{
		Name:     "db-pool-stats",
		Schedule: "@every 30s",
		Handler: func(context.Context) error {
			s := db.Stats()
			metrics.UpdateDatabaseConnections(s.OpenConnections, s.Idle, s.InUse)
			return nil
		},
	})
}

// RefreshJob reloads the snapshot and logs its size
func RefreshJob(refresher Refresher, logger *zap.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		start := time.Now()
		n, err := refresher.Refresh(ctx)
		if err != nil {
			return err
		}
		logger.Info("Alert snapshot refreshed",
			zap.Int("records", n),
			zap.Duration("took", time.Since(start)))
		return nil
	}
}
