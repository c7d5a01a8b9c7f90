package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AlertMetrics holds the alert review metrics
type AlertMetrics struct {
	QueryDuration     *prometheus.HistogramVec
	RecordsMatched    prometheus.Histogram
	SnapshotSize      prometheus.Gauge
	SnapshotLoads     *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	Dispositions      *prometheus.CounterVec
	EnrichmentLookups *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
}

// NewAlertMetrics creates metrics registered with reg. A nil reg uses the
// default registerer.
func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &AlertMetrics{
		QueryDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alerts_query_duration_seconds",
				Help:    "Alert query pipeline duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		RecordsMatched: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alerts_query_records_matched",
				Help:    "Number of alerts matched by a list query",
				Buckets: prometheus.ExponentialBuckets(1, 4, 9),
			},
		),
		SnapshotSize: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "alerts_snapshot_records",
				Help: "Number of alert records in the current snapshot",
			},
		),
		SnapshotLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_snapshot_loads_total",
				Help: "Alert snapshot loads from the store",
			},
			[]string{"result"},
		),
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_snapshot_cache_lookups_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"}, // hit, miss, error
		),
		Dispositions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_dispositions_total",
				Help: "Analyst dispositions by status and source",
			},
			[]string{"status", "source"},
		),
		EnrichmentLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_enrichment_total",
				Help: "Enrichment bundles synthesized by category",
			},
			[]string{"category"},
		),
		Notifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_notifications_total",
				Help: "Fraud notifications by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveQuery records one pipeline run
func (m *AlertMetrics) ObserveQuery(operation string, seconds float64, matched int) {
	m.QueryDuration.WithLabelValues(operation).Observe(seconds)
	if operation == "list" {
		m.RecordsMatched.Observe(float64(matched))
	}
}

// RecordSnapshotLoad records a store load and the resulting snapshot size
func (m *AlertMetrics) RecordSnapshotLoad(err error, size int) {
	if err != nil {
		m.SnapshotLoads.WithLabelValues("error").Inc()
		return
	}
	m.SnapshotLoads.WithLabelValues("success").Inc()
	m.SnapshotSize.Set(float64(size))
}

// RecordCacheLookup records a snapshot cache lookup result
func (m *AlertMetrics) RecordCacheLookup(result string) {
	m.CacheLookups.WithLabelValues(result).Inc()
}

// RecordDisposition records an analyst decision
func (m *AlertMetrics) RecordDisposition(status, source string) {
	m.Dispositions.WithLabelValues(status, source).Inc()
}

// RecordEnrichment records a synthesized bundle
func (m *AlertMetrics) RecordEnrichment(category string) {
	m.EnrichmentLookups.WithLabelValues(category).Inc()
}

// RecordNotification records a fraud email attempt
func (m *AlertMetrics) RecordNotification(err error) {
	if err != nil {
		m.Notifications.WithLabelValues("failed").Inc()
		return
	}
	m.Notifications.WithLabelValues("sent").Inc()
}
