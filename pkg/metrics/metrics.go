// Package metrics defines the Prometheus metric collectors used across the
// platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	RecordsIngestedTotal *prometheus.CounterVec
	RecordsRejectedTotal *prometheus.CounterVec
	MentionsIndexedTotal *prometheus.CounterVec
	BuildDuration        *prometheus.HistogramVec
	MergeDuration        prometheus.Histogram
	GraphDrugCount       prometheus.Gauge
	SnapshotsTotal       *prometheus.CounterVec
	QueryRequestsTotal   *prometheus.CounterVec
	QueryLatency         *prometheus.HistogramVec
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
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
		RecordsIngestedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_ingested_total",
				Help: "Total records accepted for indexing, by source tag.",
			},
			[]string{"source"},
		),
		RecordsRejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "records_rejected_total",
				Help: "Total records rejected, by failure reason.",
			},
			[]string{"reason"},
		),
		MentionsIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mentions_indexed_total",
				Help: "Total drug mentions added to the graph, by source tag.",
			},
			[]string{"source"},
		),
		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "graph_build_duration_seconds",
				Help:    "Per-source graph build duration in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "graph_merge_duration_seconds",
				Help:    "Graph merge duration in seconds.",
				Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		GraphDrugCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "graph_drug_count",
				Help: "Number of drugs present in the latest merged graph.",
			},
		),
		SnapshotsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "graph_snapshots_total",
				Help: "Total graph snapshot operations by status.",
			},
			[]string{"status"},
		),
		QueryRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "query_requests_total",
				Help: "Total analytical query requests by query name and result.",
			},
			[]string{"query", "result"},
		),
		QueryLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "query_latency_seconds",
				Help:    "Analytical query latency in seconds.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"query", "cache_status"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of query cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of query cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.RecordsIngestedTotal,
		m.RecordsRejectedTotal,
		m.MentionsIndexedTotal,
		m.BuildDuration,
		m.MergeDuration,
		m.GraphDrugCount,
		m.SnapshotsTotal,
		m.QueryRequestsTotal,
		m.QueryLatency,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
