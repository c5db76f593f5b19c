// Package telemetry provides OpenTelemetry instrumentation for the funnel
// analyzer. It exports Prometheus metrics and provides tracing capabilities.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonesrussell/funnel-analyzer/internal/domain"
)

const serviceName = "funnel-analyzer"

// Metrics holds all funnel-analyzer Prometheus metrics.
type Metrics struct {
	// Classification metrics
	EventsClassified   *prometheus.CounterVec
	UsersAnalyzed      prometheus.Counter
	ClassifyDuration   prometheus.Histogram
	BatchSize          prometheus.Histogram

	// Run metrics
	RunsCompleted prometheus.Counter
	RunsFailed    *prometheus.CounterVec
	RunDuration   prometheus.Histogram

	// Insight metrics
	InsightsEmitted *prometheus.CounterVec

	// Source metrics
	SourceRows     *prometheus.CounterVec
	SourceFailures *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec

	// Worker pool metrics
	ActiveWorkers prometheus.Gauge
}

// Provider wraps telemetry providers.
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics.
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initClassificationMetrics(m)
	initRunMetrics(m)
	initSourceMetrics(m)
	return m
}

func initClassificationMetrics(m *Metrics) {
	m.EventsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_events_classified_total",
		Help: "Total events classified, by assigned funnel stage",
	}, []string{"stage"})

	m.UsersAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funnel_users_analyzed_total",
		Help: "Total distinct users processed across runs",
	})

	m.ClassifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "funnel_classify_duration_seconds",
		Help:    "Time to classify one user partition",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "funnel_batch_size",
		Help:    "Events per analysis run",
		Buckets: []float64{10, 100, 500, 1000, 5000, 10000, 50000, 100000},
	})

	m.ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "funnel_active_workers",
		Help: "Currently active classification workers",
	})
}

func initRunMetrics(m *Metrics) {
	m.RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "funnel_runs_completed_total",
		Help: "Total analysis runs completed",
	})

	m.RunsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_runs_failed_total",
		Help: "Total analysis runs that failed",
	}, []string{"reason"})

	m.RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "funnel_run_duration_seconds",
		Help:    "End-to-end analysis run duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	m.InsightsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_insights_emitted_total",
		Help: "Optimization insights emitted, by priority",
	}, []string{"priority"})
}

func initSourceMetrics(m *Metrics) {
	m.SourceRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_source_rows_total",
		Help: "Rows retrieved from event sources",
	}, []string{"source"})

	m.SourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "funnel_source_failures_total",
		Help: "Event source retrieval failures",
	}, []string{"source"})

	m.SourceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "funnel_source_duration_seconds",
		Help:    "Time to retrieve events from a source",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	}, []string{"source"})
}

// RecordClassification records the stage distribution of one classified batch.
func (p *Provider) RecordClassification(events []domain.ClassifiedEvent, duration time.Duration) {
	for _, ev := range events {
		p.Metrics.EventsClassified.WithLabelValues(string(ev.FunnelStage)).Inc()
	}
	p.Metrics.ClassifyDuration.Observe(duration.Seconds())
}

// RecordRun records a completed analysis run.
func (p *Provider) RecordRun(users, events int, duration time.Duration) {
	p.Metrics.RunsCompleted.Inc()
	p.Metrics.RunDuration.Observe(duration.Seconds())
	p.Metrics.UsersAnalyzed.Add(float64(users))
	p.Metrics.BatchSize.Observe(float64(events))
}

// RecordRunFailure records a failed analysis run.
func (p *Provider) RecordRunFailure(reason string) {
	p.Metrics.RunsFailed.WithLabelValues(reason).Inc()
}

// RecordInsights records emitted insights by priority.
func (p *Provider) RecordInsights(insights []domain.Insight) {
	for _, insight := range insights {
		p.Metrics.InsightsEmitted.WithLabelValues(insight.Priority).Inc()
	}
}

// RecordSourceFetch records one event-source retrieval.
func (p *Provider) RecordSourceFetch(source string, rows int, duration time.Duration, err error) {
	if err != nil {
		p.Metrics.SourceFailures.WithLabelValues(source).Inc()
		return
	}
	p.Metrics.SourceRows.WithLabelValues(source).Add(float64(rows))
	p.Metrics.SourceDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SetActiveWorkers sets the current active worker count.
func (p *Provider) SetActiveWorkers(count int) {
	p.Metrics.ActiveWorkers.Set(float64(count))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
