// Package metrics defines the Prometheus collectors used across the crawler,
// barrels, frontier and gateway, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. Each process registers them on its
// own registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	FrontierQueued     prometheus.Gauge
	FrontierDispatched prometheus.Gauge
	URLsSubmitted      *prometheus.CounterVec

	PagesCrawled      *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	MulticastOutcomes *prometheus.CounterVec
	ReplicaWrites     *prometheus.CounterVec

	DocsIndexedTotal prometheus.Counter
	ShardDocCount    *prometheus.GaugeVec
	ShardSearches    prometheus.Histogram

	SearchQueriesTotal  *prometheus.CounterVec
	SearchLatency       *prometheus.HistogramVec
	CacheHitsTotal      prometheus.Counter
	CacheMissesTotal    prometheus.Counter
	FailoversTotal      prometheus.Counter
	ActiveShards        prometheus.Gauge
	CircuitBreakerState *prometheus.GaugeVec

	SnapshotsTotal *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		FrontierQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_pending_urls",
				Help: "URLs waiting in the frontier queue.",
			},
		),
		FrontierDispatched: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "frontier_dispatched_urls",
				Help: "URLs ever handed to a crawler.",
			},
		),
		URLsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "frontier_submissions_total",
				Help: "URL submissions by outcome (admitted, duplicate, invalid).",
			},
			[]string{"outcome"},
		),
		PagesCrawled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_pages_total",
				Help: "Pages processed by status (fetched, fetch_error).",
			},
			[]string{"status"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawler_fetch_duration_seconds",
				Help:    "Page fetch latency in seconds.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
		),
		MulticastOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_multicast_total",
				Help: "Multicast outcomes (delivered, partial, lost).",
			},
			[]string{"outcome"},
		),
		ReplicaWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_replica_writes_total",
				Help: "Per-replica write attempts by result (ack, nack, unreachable).",
			},
			[]string{"result"},
		),
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total documents indexed.",
			},
		),
		ShardDocCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shard_document_count",
				Help: "Number of documents per shard.",
			},
			[]string{"shard_id"},
		),
		ShardSearches: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shard_search_latency_seconds",
				Help:    "Barrel-local search latency in seconds.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, miss, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Gateway search latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		FailoversTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_failovers_total",
				Help: "Shard calls that failed and moved on to another shard.",
			},
		),
		ActiveShards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "active_shards",
				Help: "Number of barrels that answered the last health probe.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snapshots_total",
				Help: "Snapshot writes by status (ok, error).",
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.FrontierQueued,
		m.FrontierDispatched,
		m.URLsSubmitted,
		m.PagesCrawled,
		m.FetchDuration,
		m.MulticastOutcomes,
		m.ReplicaWrites,
		m.DocsIndexedTotal,
		m.ShardDocCount,
		m.ShardSearches,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.FailoversTotal,
		m.ActiveShards,
		m.CircuitBreakerState,
		m.SnapshotsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
