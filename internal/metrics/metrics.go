// Package metrics provides Prometheus metrics for the reconciler.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/service"
)

const namespace = "catalog_recon"

// Metrics holds all collectors. Registered on the Registerer passed to New,
// so tests can use a private registry.
type Metrics struct {
	// DecisionsTotal tracks match decisions by status, method and reason
	DecisionsTotal *prometheus.CounterVec
	// DecisionScore tracks the score of every decision
	DecisionScore *prometheus.HistogramVec
	// StoreFailuresTotal tracks store read/write failures
	StoreFailuresTotal *prometheus.CounterVec
	// BatchesTotal tracks finished batches
	BatchesTotal *prometheus.CounterVec
	// BatchRecords tracks batch sizes
	BatchRecords prometheus.Histogram
	// BatchDuration tracks batch wall time in seconds
	BatchDuration prometheus.Histogram
	// MalformedTotal tracks skipped malformed rows
	MalformedTotal prometheus.Counter

	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration *prometheus.HistogramVec
}

var _ service.Recorder = (*Metrics)(nil)

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DecisionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "match",
				Name:      "decisions_total",
				Help:      "Total number of match decisions by status, method and reason",
			},
			[]string{"status", "method", "reason"},
		),
		DecisionScore: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "match",
				Name:      "score",
				Help:      "Score attached to match decisions",
				Buckets:   []float64{10, 20, 30, 40, 50, 55, 60, 70, 80, 90, 100},
			},
			[]string{"status"},
		),
		StoreFailuresTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "failures_total",
				Help:      "Total number of catalog store failures by reason",
			},
			[]string{"reason"},
		),
		BatchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "runs_total",
				Help:      "Total number of reconcile batches",
			},
			[]string{"dry_run"},
		),
		BatchRecords: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "records",
				Help:      "Number of incoming records per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		BatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "duration_seconds",
				Help:      "Duration of reconcile batches in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		MalformedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "batch",
				Name:      "malformed_records_total",
				Help:      "Total number of skipped malformed records",
			},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of inbound HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of inbound HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method", "route"},
		),
	}
}

func (m *Metrics) ObserveDecision(d model.MatchDecision) {
	method := string(d.Method)
	if method == "" {
		method = "none"
	}
	reason := d.Reason
	if reason == "" {
		reason = "none"
	}
	m.DecisionsTotal.WithLabelValues(string(d.Status), method, reason).Inc()
	m.DecisionScore.WithLabelValues(string(d.Status)).Observe(d.Score)
}

func (m *Metrics) ObserveFailure(reason string) {
	m.StoreFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveBatch(s service.Summary) {
	m.BatchesTotal.WithLabelValues(strconv.FormatBool(s.DryRun)).Inc()
	m.BatchRecords.Observe(float64(s.Total))
	m.BatchDuration.Observe(s.Elapsed.Seconds())
	m.MalformedTotal.Add(float64(s.Malformed))
}

// ObserveHTTP: для middleware.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
