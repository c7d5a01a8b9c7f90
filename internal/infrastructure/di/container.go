package di

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/fraud-desk/alert_service/internal/domain/repositories"
	"github.com/fraud-desk/alert_service/internal/domain/services/alert"
	"github.com/fraud-desk/alert_service/internal/domain/services/enrichment"
	"github.com/fraud-desk/alert_service/internal/infrastructure/adapters"
	"github.com/fraud-desk/alert_service/internal/infrastructure/cache"
	"github.com/fraud-desk/alert_service/internal/infrastructure/config"
	infrarepos "github.com/fraud-desk/alert_service/internal/infrastructure/repositories"
	"github.com/fraud-desk/alert_service/internal/workers/notification"
	"github.com/fraud-desk/alert_service/internal/workers/snapshot"
	"github.com/fraud-desk/alert_service/pkg/health"
	"github.com/fraud-desk/alert_service/pkg/idempotency"
	"github.com/fraud-desk/alert_service/pkg/jobqueue"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/metrics"
	"github.com/fraud-desk/alert_service/pkg/ratelimit"
)

const notificationWorkers = 2

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  redis.UniversalClient
	Logger *logger.Logger
	ZapLog *zap.Logger

	AlertRepo     *infrarepos.AlertRepository
	SnapshotCache *cache.SnapshotCache

	EmailService *adapters.EmailService
	AuditService *adapters.AuditService

	AlertMetrics *metrics.AlertMetrics
	AlertService *alert.Service
	Health       *health.HealthChecker

	// DispositionLimiter is nil without Redis; the router then falls back to the in-process limiter
	DispositionLimiter *ratelimit.DistributedLimiter
	// Idempotency is nil without Redis; Idempotency-Key headers are then ignored
	Idempotency *idempotency.Store

	Scheduler          *jobqueue.JobScheduler
	NotificationWorker *jobqueue.Worker
}

// NewContainer wires the alert service. redisClient may be nil, in which case
// the service runs on its in-process snapshot and sends notifications inline.
func NewContainer(cfg *config.Config, db *sqlx.DB, redisClient redis.UniversalClient, log *logger.Logger) (*Container, error) {
	zapLog := log.Zap()

	tables, err := enrichment.LoadTables(cfg.Enrichment.TablesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference tables: %w", err)
	}
	synth, err := enrichment.NewSynthesizer(tables)
	if err != nil {
		return nil, fmt.Errorf("invalid reference tables: %w", err)
	}

	alertRepo := infrarepos.NewAlertRepository(db, zapLog)

	emailService := adapters.NewEmailService(zapLog, adapters.EmailServiceConfig{
		APIKey:        cfg.Email.APIKey,
		FromEmail:     cfg.Email.FromEmail,
		FromName:      cfg.Email.FromName,
		FraudOpsEmail: cfg.Email.FraudOpsEmail,
		Environment:   cfg.Email.Environment,
	})
	auditService := adapters.NewAuditService(db, zapLog, cfg.Audit.SigningKey)

	c := &Container{
		Config:       cfg,
		DB:           db,
		Redis:        redisClient,
		Logger:       log,
		ZapLog:       zapLog,
		AlertRepo:    alertRepo,
		EmailService: emailService,
		AuditService: auditService,
		AlertMetrics: metrics.NewAlertMetrics(nil),
		Scheduler:    jobqueue.NewJobScheduler(zapLog),
	}

	snapshotTTL := time.Duration(cfg.Redis.SnapshotTTL) * time.Second
	var alertCache repositories.AlertCache
	var notifier alert.FraudNotifier = emailService
	if redisClient != nil {
		c.SnapshotCache = cache.NewSnapshotCache(cache.NewRedisCache(redisClient, zapLog, snapshotTTL), snapshotTTL, zapLog)
		alertCache = c.SnapshotCache

		queue := jobqueue.NewJobQueue(redisClient, "alerts:queue", zapLog)
		c.NotificationWorker = jobqueue.NewWorker(queue, zapLog, notificationWorkers)
		c.NotificationWorker.RegisterHandler(notification.JobTypeFraudConfirmed, notification.Handler(emailService))
		notifier = notification.NewQueuedNotifier(queue, zapLog)

		c.DispositionLimiter = ratelimit.PerAnalystLimiter(redisClient, int64(cfg.Server.DispositionsPerMin), time.Minute, zapLog)
		if c.Idempotency, err = idempotency.NewStore(redisClient, "alerts:idempotency", idempotency.DefaultTTL); err != nil {
			return nil, err
		}
	}

	c.AlertService = alert.NewService(
		alertRepo,
		alertCache,
		notifier,
		auditService,
		synth,
		c.AlertMetrics,
		log,
		alert.Config{
			PageSize:        cfg.Query.PageSize,
			HistoryPageSize: cfg.Query.HistoryPageSize,
			MaxRecords:      cfg.Query.MaxRecords,
			SnapshotTTL:     snapshotTTL,
			ReferenceNow:    cfg.Query.ReferenceNow,
		},
	)

	c.Health = c.newHealthChecker()

	if cfg.Scheduler.Enabled {
		if err := snapshot.Register(c.Scheduler, cfg.Scheduler.SnapshotRefreshSpec, c.AlertService, db.DB, zapLog); err != nil {
			return nil, fmt.Errorf("failed to schedule snapshot refresh: %w", err)
		}
	}

	return c, nil
}

func (c *Container) newHealthChecker() *health.HealthChecker {
	checker := health.NewHealthChecker(5 * time.Second)
	checker.Register(health.NewDatabaseChecker(c.DB.DB, 2*time.Second))
	if c.Redis != nil {
		checker.Register(health.NewRedisChecker(c.Redis, time.Second))
	}

	maxAge := 3 * time.Duration(c.Config.Redis.SnapshotTTL) * time.Second
	checker.Register(health.NewFuncChecker("alert_snapshot", func(context.Context) health.CheckResult {
		age, size, loaded := c.AlertService.SnapshotAge()
		if !loaded {
			return health.NewDegradedResult("alert_snapshot", "not loaded yet")
		}
		result := health.NewHealthyResult("alert_snapshot", "loaded")
		if maxAge > 0 && age > maxAge {
			result = health.NewDegradedResult("alert_snapshot", "stale")
		}
		return result.WithMetadata("records", size).WithMetadata("age", age.Round(time.Second).String())
	}))
	return checker
}

// Start runs the background workers and warms the alert snapshot
func (c *Container) Start(ctx context.Context) {
	if c.NotificationWorker != nil {
		c.NotificationWorker.Start(ctx)
	}
	if c.Config.Scheduler.Enabled {
		c.Scheduler.Start()
	}

	go func() {
		n, err := c.AlertService.Refresh(ctx)
		if err != nil {
			c.Logger.Warnw("Initial alert snapshot load failed", "error", err)
			return
		}
		c.Logger.Infow("Alert snapshot loaded", "records", n)
	}()
}

// Stop halts the background workers
func (c *Container) Stop() {
	if c.Config.Scheduler.Enabled {
		c.Scheduler.Stop()
	}
	if c.NotificationWorker != nil {
		c.NotificationWorker.Stop()
	}
}
