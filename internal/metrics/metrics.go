// GHRecommend - GitHub Repository Recommendations from Star Events
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ghrecommend

// Package metrics declares the Prometheus instruments of GHRecommend:
// event loading, rating table size, training, the HTTP API and the
// warehouse circuit breaker. All collectors register with the default
// registry via promauto and are served on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event source metrics
	EventLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghrecommend_event_load_duration_seconds",
			Help:    "Duration of event table loads in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"source"}, // "file", "warehouse"
	)

	EventLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrecommend_event_load_errors_total",
			Help: "Total number of failed event table loads",
		},
		[]string{"source"},
	)

	EventTableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ghrecommend_event_table_rows",
			Help: "Rows in the most recently loaded event table",
		},
		[]string{"source"},
	)

	EventCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghrecommend_event_cache_hits_total",
			Help: "Total number of event table cache hits",
		},
	)

	EventCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghrecommend_event_cache_misses_total",
			Help: "Total number of event table cache misses",
		},
	)

	EventCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ghrecommend_event_cache_entries",
			Help: "Current number of memoized event tables",
		},
	)

	// Pipeline metrics
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrecommend_pipeline_runs_total",
			Help: "Total number of recommendation runs by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"}, // outcome: "ok", "empty", "input_error", "training_error", "error"
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghrecommend_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"stage"}, // "load", "build", "prepare", "train", "recommend"
	)

	RatingTableRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ghrecommend_rating_table_rows",
			Help:    "Rows in built rating tables",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
	)

	SparsityWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ghrecommend_sparsity_warnings_total",
			Help: "Total number of runs whose filters left an empty rating table",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrecommend_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghrecommend_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"method", "endpoint"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ghrecommend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrecommend_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghrecommend_circuit_breaker_requests_total",
			Help: "Total number of requests through a circuit breaker by result",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

// RecordEventLoad records one event table load.
func RecordEventLoad(source string, duration time.Duration, rows int64, err error) {
	EventLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		EventLoadErrors.WithLabelValues(source).Inc()
		return
	}
	EventTableRows.WithLabelValues(source).Set(float64(rows))
}

// RecordStage records the duration of one pipeline stage.
func RecordStage(stage string, duration time.Duration) {
	PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun records the outcome of a recommendation run.
func RecordRun(algorithm, outcome string) {
	PipelineRuns.WithLabelValues(algorithm, outcome).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
