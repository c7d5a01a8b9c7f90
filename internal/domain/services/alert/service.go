// Package alert serves the fraud review desk: it loads the alert record set,
// answers list, statistics and history queries over it, enriches single
// alerts and records analyst dispositions.
package alert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"github.com/fraud-desk/alert_service/internal/domain/entities"
	"github.com/fraud-desk/alert_service/internal/domain/repositories"
	"github.com/fraud-desk/alert_service/internal/domain/services/alertquery"
	"github.com/fraud-desk/alert_service/internal/domain/services/enrichment"
	"github.com/fraud-desk/alert_service/pkg/circuitbreaker"
	apperrors "github.com/fraud-desk/alert_service/pkg/errors"
	"github.com/fraud-desk/alert_service/pkg/logger"
	"github.com/fraud-desk/alert_service/pkg/metrics"
	"github.com/fraud-desk/alert_service/pkg/pagination"
	"github.com/fraud-desk/alert_service/pkg/retry"
	"github.com/fraud-desk/alert_service/pkg/tracing"
)

// FraudNotifier is told about confirmed fraud
type FraudNotifier interface {
	NotifyFraudConfirmed(ctx context.Context, alert entities.Alert, feedback, analyst string) error
}

// AuditRecorder keeps the disposition audit trail
type AuditRecorder interface {
	LogDisposition(ctx context.Context, alert entities.Alert, status entities.AlertStatus, feedback, actor, ip string) error
	GetAlertAuditTrail(ctx context.Context, alertID string, limit int) ([]entities.AuditLog, error)
}

// Config holds the query limits of the service
type Config struct {
	PageSize        int
	HistoryPageSize int
	MaxRecords      int
	// SnapshotTTL bounds the age of the in-process snapshot used when no cache is configured
	SnapshotTTL time.Duration
	// ReferenceNow is "today" for period windows and default ordering
	ReferenceNow func() time.Time
}

// ListQuery is the input of one list view
type ListQuery struct {
	Criteria entities.FilterCriteria
	Rules    []entities.SortRule
	Period   entities.PeriodFilter
	Page     pagination.Pagination
}

// Disposition is an analyst verdict with its request context
type Disposition struct {
	AlertID  string
	Status   entities.AlertStatus
	Feedback string
	Analyst  string
	ClientIP string
}

// Service answers alert queries over a cached snapshot of the alert store
type Service struct {
	repo     repositories.AlertRepository
	cache    repositories.AlertCache
	notifier FraudNotifier
	audit    AuditRecorder
	pipeline *alertquery.Pipeline
	synth    *enrichment.Synthesizer
	breaker  *gobreaker.CircuitBreaker
	policy   retry.Policy
	metrics  *metrics.AlertMetrics
	logger   *logger.Logger
	config   Config

	loads singleflight.Group

	mu       sync.RWMutex
	local    []entities.Alert
	loadedAt time.Time
	// generation advances on every invalidation; a load started under an
	// older generation does not install its result
	generation uint64
}

// NewService creates the alert service. cache, notifier and audit may be nil.
func NewService(
	repo repositories.AlertRepository,
	cache repositories.AlertCache,
	notifier FraudNotifier,
	audit AuditRecorder,
	synth *enrichment.Synthesizer,
	alertMetrics *metrics.AlertMetrics,
	log *logger.Logger,
	config Config,
) *Service {
	if config.ReferenceNow == nil {
		config.ReferenceNow = time.Now
	}
	if config.SnapshotTTL <= 0 {
		config.SnapshotTTL = 5 * time.Minute
	}
	if config.HistoryPageSize < 1 {
		config.HistoryPageSize = 7
	}
	if synth == nil {
		synth = enrichment.MustDefault()
	}
	if alertMetrics == nil {
		alertMetrics = metrics.NewAlertMetrics(prometheus.NewRegistry())
	}

	return &Service{
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		audit:    audit,
		pipeline: alertquery.NewPipeline(nil, config.PageSize),
		synth:    synth,
		breaker:  circuitbreaker.New("alert-store", circuitbreaker.DefaultConfig()),
		policy:   retry.PolicyAlertStore,
		metrics:  alertMetrics,
		logger:   log,
		config:   config,
	}
}

// List runs the filter, sort, window and pagination pipeline over the record set
func (s *Service) List(ctx context.Context, q ListQuery) (*entities.AlertPage, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	_, span := tracing.StartSpan(ctx, "alert.list")
	start := time.Now()
	result, err := s.pipeline.Run(records, alertquery.Query{
		Criteria:     q.Criteria,
		Rules:        q.Rules,
		Period:       q.Period,
		Page:         q.Page,
		ReferenceNow: s.config.ReferenceNow(),
	})
	tracing.EndSpan(span, err)
	if err != nil {
		s.logger.CtxError(ctx, "alert snapshot holds an invalid record", "error", err)
		return nil, apperrors.ErrCorruptRecord.WithCause(err)
	}
	s.metrics.ObserveQuery("list", time.Since(start).Seconds(), result.Matched)

	counts := alertquery.CountStatuses(records)
	page := &entities.AlertPage{
		Alerts:     result.Records,
		TotalCount: result.Matched,
		Page:       result.PageInfo.CurrentPage,
		PageSize:   result.PageInfo.PageSize,
		TotalPages: result.PageInfo.TotalPages,
		HasNext:    result.PageInfo.HasNext,
		HasPrev:    result.PageInfo.HasPrevious,
		Counts:     &counts,
	}
	if len(result.Records) > 0 {
		page.SelectedID = result.Records[0].ID
	}
	return page, nil
}

// Stats summarises the whole record set
func (s *Service) Stats(ctx context.Context) (*entities.SummaryStats, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	stats := alertquery.Summarize(records)
	return &stats, nil
}

// Monthly returns alert counts for the twelve months ending at the reference month
func (s *Service) Monthly(ctx context.Context) ([]entities.MonthlyCount, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return alertquery.MonthlyCounts(records, s.config.ReferenceNow()), nil
}

// DefaultOrdered returns the record set in the desk's default listing order
func (s *Service) DefaultOrdered(ctx context.Context) ([]entities.Alert, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	return alertquery.DefaultOrder(records, s.config.ReferenceNow()), nil
}

// Options lists the values a client can filter and sort on
func (s *Service) Options() entities.FilterOptions {
	return entities.FilterOptions{
		TransactionTypes: append([]string(nil), entities.TransactionTypes...),
		Currencies:       append([]string(nil), entities.Currencies...),
		Countries:        append([]string(nil), entities.Countries...),
		Statuses: []entities.AlertStatus{
			entities.AlertStatusPending,
			entities.AlertStatusConfirmedFraud,
			entities.AlertStatusConfirmedLegitimate,
		},
		Sources: []entities.AlertSource{
			entities.AlertSourceAI,
			entities.AlertSourceRuleBased,
			entities.AlertSourceInboundCall,
		},
		SortAttributes: s.pipeline.Registry().Attributes(),
		DefaultSort:    entities.DefaultSortRules(),
	}
}

// Detail returns one alert with its enrichment bundle
func (s *Service) Detail(ctx context.Context, id string) (*entities.AlertDetail, error) {
	alert, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := s.enrich(alert)
	return &detail, nil
}

// History returns the customer's other alerts, windowed by period and paged
// HistoryPageSize at a time in stored order
func (s *Service) History(ctx context.Context, id string, period entities.PeriodFilter, page pagination.Pagination) (*entities.HistoryPage, error) {
	alert, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	customerAlerts, err := s.customerRecords(ctx, alert.CIF)
	if err != nil {
		return nil, err
	}

	others := make([]entities.Alert, 0, len(customerAlerts))
	for _, a := range customerAlerts {
		if a.ID != alert.ID {
			others = append(others, a)
		}
	}
	windowed := alertquery.WindowRecords(others, period, s.config.ReferenceNow())

	page.PageSize = s.config.HistoryPageSize
	page.Validate(s.config.HistoryPageSize)
	info := pagination.NewPageInfo(page, len(windowed))

	items := make([]entities.AlertDetail, 0, page.PageSize)
	for _, a := range pagination.Slice(windowed, page) {
		items = append(items, s.enrich(a))
	}

	return &entities.HistoryPage{
		CIF:        alert.CIF,
		Period:     period,
		Items:      items,
		TotalCount: len(windowed),
		Page:       info.CurrentPage,
		TotalPages: info.TotalPages,
	}, nil
}

// Dispose records an analyst verdict. Only final statuses are accepted.
func (s *Service) Dispose(ctx context.Context, d Disposition) (*entities.AlertDetail, error) {
	if !d.Status.IsDisposition() {
		return nil, apperrors.ErrInvalidDisposition.WithDetail("status", string(d.Status))
	}

	alert, err := s.find(ctx, d.AlertID)
	if err != nil {
		return nil, err
	}
	log := s.logger.ForAlert(alert.ID, alert.CIF)

	ctx, span := tracing.StartSpan(ctx, "alert.dispose")
	err = retry.Do(ctx, s.policy, func(ctx context.Context) error {
		return s.repo.UpdateDisposition(ctx, alert.ID, d.Status, d.Feedback, d.Analyst)
	})
	tracing.EndSpan(span, err)
	if err != nil {
		log.CtxError(ctx, "failed to record disposition", "status", d.Status, "error", err)
		return nil, err
	}
	s.metrics.RecordDisposition(string(d.Status), string(alert.Source))

	if s.audit != nil {
		if err := s.audit.LogDisposition(ctx, alert, d.Status, d.Feedback, d.Analyst, d.ClientIP); err != nil {
			log.CtxWarn(ctx, "failed to write audit entry", "error", err)
		}
	}

	s.invalidate(ctx, alert.CIF)

	alert.Status = d.Status
	alert.Feedback = d.Feedback

	if d.Status == entities.AlertStatusConfirmedFraud && s.notifier != nil {
		err := s.notifier.NotifyFraudConfirmed(ctx, alert, d.Feedback, d.Analyst)
		s.metrics.RecordNotification(err)
		if err != nil {
			log.CtxWarn(ctx, "fraud notification failed", "error", err)
		}
	}

	log.CtxInfo(ctx, "alert disposed", "status", d.Status, "analyst", d.Analyst)
	detail := s.enrich(alert)
	return &detail, nil
}

// AuditTrail returns the newest audit entries of an alert
func (s *Service) AuditTrail(ctx context.Context, id string, limit int) ([]entities.AuditLog, error) {
	if s.audit == nil {
		return []entities.AuditLog{}, nil
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if limit < 1 || limit > pagination.MaxPageSize {
		limit = pagination.MaxPageSize
	}
	return s.audit.GetAlertAuditTrail(ctx, id, limit)
}

// Refresh reloads the snapshot from the store and repopulates the cache
func (s *Service) Refresh(ctx context.Context) (int, error) {
	records, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// SnapshotAge reports how long ago the in-process snapshot was loaded
func (s *Service) SnapshotAge() (time.Duration, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadedAt.IsZero() {
		return 0, 0, false
	}
	return time.Since(s.loadedAt), len(s.local), true
}

func (s *Service) find(ctx context.Context, id string) (entities.Alert, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Alert{}, apperrors.NewValidationError("alert id is required")
	}

	records, err := s.records(ctx)
	if err != nil {
		return entities.Alert{}, err
	}
	for _, a := range records {
		if a.ID == id {
			return a, nil
		}
	}

	// the snapshot may predate the alert
	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Alert{}, err
	}
	return *alert, nil
}

func (s *Service) enrich(alert entities.Alert) entities.AlertDetail {
	bundle := s.synth.Synthesize(alert)
	s.metrics.RecordEnrichment(string(bundle.Category))
	return entities.AlertDetail{Alert: alert, Enrichment: bundle}
}

// records returns the current record set: the cached snapshot when present,
// otherwise a fresh load from the store
func (s *Service) records(ctx context.Context) ([]entities.Alert, error) {
	if s.cache == nil {
		s.mu.RLock()
		local, fresh := s.local, time.Since(s.loadedAt) < s.config.SnapshotTTL
		s.mu.RUnlock()
		if local != nil && fresh {
			return local, nil
		}
	} else {
		cached, ok, err := s.cache.GetSnapshot(ctx)
		switch {
		case err != nil:
			s.metrics.RecordCacheLookup("error")
			s.logger.CtxWarn(ctx, "snapshot cache unavailable", "error", err)
		case ok:
			s.metrics.RecordCacheLookup("hit")
			return cached, nil
		default:
			s.metrics.RecordCacheLookup("miss")
		}
	}

	records, err := s.load(ctx)
	if err == nil {
		return records, nil
	}

	// serve the last good snapshot while the store is down
	s.mu.RLock()
	stale := s.local
	s.mu.RUnlock()
	if stale != nil && apperrors.IsRetryable(err) {
		s.logger.CtxWarn(ctx, "serving stale snapshot", "records", len(stale), "error", err)
		return stale, nil
	}
	return nil, err
}

type loadResult struct {
	alerts []entities.Alert
	total  int
}

// load fetches the record set through the breaker with retries. Concurrent
// callers share one fetch.
func (s *Service) load(ctx context.Context) ([]entities.Alert, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	v, err, _ := s.loads.Do("snapshot:"+strconv.FormatUint(gen, 10), func() (interface{}, error) {
		ctx, span := tracing.StartSpan(ctx, "alert.snapshot.load")
		res, err := circuitbreaker.Execute(s.breaker, func() (loadResult, error) {
			var out loadResult
			err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
				alerts, total, err := s.repo.ListAlerts(ctx, s.config.MaxRecords)
				out = loadResult{alerts: alerts, total: total}
				return err
			})
			return out, err
		})
		tracing.EndSpan(span, err)
		s.metrics.RecordSnapshotLoad(err, len(res.alerts))
		if err != nil {
			return nil, fmt.Errorf("failed to load alerts: %w", err)
		}

		if res.total > len(res.alerts) {
			s.logger.CtxWarn(ctx, "alert store exceeds record limit, snapshot truncated",
				"limit", s.config.MaxRecords, "stored", res.total)
		}
		if res.alerts == nil {
			res.alerts = []entities.Alert{}
		}

		s.mu.Lock()
		current := s.generation == gen
		if current {
			s.local = res.alerts
			s.loadedAt = time.Now()
		}
		s.mu.Unlock()

		if !current {
			s.logger.CtxDebug(ctx, "snapshot invalidated during load, not installed", "records", len(res.alerts))
			return res.alerts, nil
		}
		if s.cache != nil {
			if err := s.cache.SetSnapshot(ctx, res.alerts); err != nil {
				s.logger.CtxWarn(ctx, "failed to cache snapshot", "error", err)
			}
		}
		return res.alerts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]entities.Alert), nil
}

func (s *Service) customerRecords(ctx context.Context, cif string) ([]entities.Alert, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetCustomer(ctx, cif)
		if err == nil && ok {
			s.metrics.RecordCacheLookup("hit")
			return cached, nil
		}
		if err != nil {
			s.logger.CtxWarn(ctx, "customer cache unavailable", "cif", cif, "error", err)
		}
	}

	alerts, err := circuitbreaker.Execute(s.breaker, func() ([]entities.Alert, error) {
		var out []entities.Alert
		err := retry.Do(ctx, s.policy, func(ctx context.Context) error {
			var err error
			out, err = s.repo.ListByCIF(ctx, cif)
			return err
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetCustomer(ctx, cif, alerts); err != nil {
			s.logger.CtxWarn(ctx, "failed to cache customer alerts", "cif", cif, "error", err)
		}
	}
	return alerts, nil
}

func (s *Service) invalidate(ctx context.Context, cif string) {
	s.mu.Lock()
	s.generation++
	s.local = nil
	s.loadedAt = time.Time{}
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAlert(ctx, cif); err != nil {
		s.logger.CtxWarn(ctx, "failed to invalidate alert cache", "cif", cif, "error", err)
	}
}
