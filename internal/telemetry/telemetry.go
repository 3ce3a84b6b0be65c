// Package telemetry provides Prometheus metrics and tracing for the
// SERP tracker service.
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
)

const serviceName = "serp-tracker"

// Metrics holds all service Prometheus metrics
type Metrics struct {
	// SERP fetch metrics
	SerpFetches      *prometheus.CounterVec
	SerpFetchLatency prometheus.Histogram
	ProviderCost     prometheus.Counter

	// Batch metrics
	BatchDuration     prometheus.Histogram
	BatchSize         prometheus.Histogram
	KeywordsProcessed *prometheus.CounterVec

	// Volume ingestion metrics
	KeywordsIngested *prometheus.CounterVec

	// Task metrics
	ActiveTasks prometheus.Gauge

	// SSE metrics
	SSEClients prometheus.Gauge
}

// Provider wraps telemetry providers
type Provider struct {
	Tracer  trace.Tracer
	Metrics *Metrics
}

// NewProvider initializes telemetry with Prometheus metrics
func NewProvider() *Provider {
	return &Provider{
		Tracer:  otel.Tracer(serviceName),
		Metrics: initMetrics(),
	}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	m := &Metrics{}
	initSerpMetrics(m)
	initBatchMetrics(m)
	initIngestionMetrics(m)
	initTaskMetrics(m)
	return m
}

func initSerpMetrics(m *Metrics) {
	m.SerpFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serptracker_serp_fetches_total",
		Help: "Total SERP fetches by outcome (ok, provider_error, network_error)",
	}, []string{"outcome"})

	m.SerpFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "serptracker_serp_fetch_duration_seconds",
		Help:    "Time to fetch one live SERP from the provider",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	})

	m.ProviderCost = promauto.NewCounter(prometheus.CounterOpts{
		Name: "serptracker_provider_cost_total",
		Help: "Accumulated provider API cost in USD",
	})
}

func initBatchMetrics(m *Metrics) {
	m.BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "serptracker_batch_duration_seconds",
		Help:    "Wall time of one SERP analysis batch",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	})

	m.BatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "serptracker_batch_size",
		Help:    "Number of keywords per batch",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})

	m.KeywordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serptracker_keywords_processed_total",
		Help: "Keywords processed in analysis batches by outcome (ok, error)",
	}, []string{"outcome"})
}

func initIngestionMetrics(m *Metrics) {
	m.KeywordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "serptracker_keywords_ingested_total",
		Help: "Keyword ideas ingested from the provider by outcome (added, skipped, error)",
	}, []string{"outcome"})
}

func initTaskMetrics(m *Metrics) {
	m.ActiveTasks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "serptracker_active_tasks",
		Help: "Currently tracked in-flight tasks",
	})

	m.SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "serptracker_sse_clients",
		Help: "Currently connected SSE clients",
	})
}

// RecordSerpFetch records one SERP fetch attempt
func (p *Provider) RecordSerpFetch(ctx context.Context, outcome string, duration time.Duration) {
	p.Metrics.SerpFetches.WithLabelValues(outcome).Inc()
	p.Metrics.SerpFetchLatency.Observe(duration.Seconds())
}

// RecordProviderCost accumulates provider spend
func (p *Provider) RecordProviderCost(cost float64) {
	if cost > 0 {
		p.Metrics.ProviderCost.Add(cost)
	}
}

// RecordBatch records a completed analysis batch
func (p *Provider) RecordBatch(size int, duration time.Duration) {
	p.Metrics.BatchSize.Observe(float64(size))
	p.Metrics.BatchDuration.Observe(duration.Seconds())
}

// RecordKeywordProcessed records one keyword's batch outcome
func (p *Provider) RecordKeywordProcessed(success bool) {
	if success {
		p.Metrics.KeywordsProcessed.WithLabelValues("ok").Inc()
	} else {
		p.Metrics.KeywordsProcessed.WithLabelValues("error").Inc()
	}
}

// RecordIngestion records volume ingestion counts
func (p *Provider) RecordIngestion(added, skipped, errored int) {
	p.Metrics.KeywordsIngested.WithLabelValues("added").Add(float64(added))
	p.Metrics.KeywordsIngested.WithLabelValues("skipped").Add(float64(skipped))
	p.Metrics.KeywordsIngested.WithLabelValues("error").Add(float64(errored))
}

// SetActiveTasks sets the tracked task gauge
func (p *Provider) SetActiveTasks(count int) {
	p.Metrics.ActiveTasks.Set(float64(count))
}

// SetSSEClients sets the connected client gauge
func (p *Provider) SetSSEClients(count int) {
	p.Metrics.SSEClients.Set(float64(count))
}

// StartSpan starts a new trace span.
// The caller is responsible for ending the span with span.End().
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span
}
