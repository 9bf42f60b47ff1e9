// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Warehouse executor metrics
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "warehouse_query_duration_seconds",
			Help:    "Duration of warehouse queries in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}, // warehouse scans are slow
		},
		[]string{"executor"},
	)

	WarehouseQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_query_errors_total",
			Help: "Total number of failed warehouse queries",
		},
		[]string{"executor", "error_class"}, // error_class: "network", "query"
	)

	WarehouseRowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "warehouse_rows_returned_total",
			Help: "Total number of rows returned by the warehouse",
		},
		[]string{"executor"},
	)

	WarehouseRateLimitWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "warehouse_rate_limit_waits_total",
			Help: "Total number of queries delayed by the warehouse rate limiter",
		},
	)

	// Fetch controller metrics
	FetchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_requests_total",
			Help: "Total number of fetch requests by outcome",
		},
		[]string{"outcome"}, // outcome: "hit", "miss", "coalesced", "refetch"
	)

	FetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_retries_total",
			Help: "Total number of retried warehouse attempts",
		},
	)

	FetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_failures_total",
			Help: "Total number of fetches that ended in the error state",
		},
		[]string{"error_class"},
	)

	FetchTruncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_truncated_results_total",
			Help: "Total number of results truncated to the row limit",
		},
	)

	FetchEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_cache_entries",
			Help: "Current number of query keys held by the fetch controller",
		},
	)

	FetchSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fetch_active_subscriptions",
			Help: "Current number of live query subscriptions",
		},
	)

	FetchPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_polls_total",
			Help: "Total number of scheduled background refetches",
		},
		[]string{"result"}, // result: "success", "failure"
	)

	// Data quality metrics
	NormalizerIssues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalizer_issues_total",
			Help: "Total number of values the row normalizer could not coerce",
		},
		[]string{"chart", "reason"},
	)

	PipelineWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_warnings_total",
			Help: "Total number of data-quality warnings raised by pipeline stages",
		},
		[]string{"chart", "stage", "kind"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of chart pipeline runs in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"chart"},
	)

	ChartSeriesCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_series_cache_hits_total",
			Help: "Total number of derived series served from the series cache",
		},
	)

	ChartSeriesCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chart_series_cache_misses_total",
			Help: "Total number of derived series computed by running the pipeline",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// WebSocket stream metrics
	StreamConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_connections_active",
			Help: "Current number of open chart stream connections",
		},
	)

	StreamMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stream_messages_sent_total",
			Help: "Total number of series updates pushed to stream clients",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordWarehouseQuery records one executor call. errorClass is empty on success.
func RecordWarehouseQuery(executor string, duration time.Duration, rowCount int, errorClass string) {
	WarehouseQueryDuration.WithLabelValues(executor).Observe(duration.Seconds())
	if errorClass != "" {
		WarehouseQueryErrors.WithLabelValues(executor, errorClass).Inc()
		return
	}
	WarehouseRowsReturned.WithLabelValues(executor).Add(float64(rowCount))
}

// RecordFetch records how a fetch request was served.
func RecordFetch(outcome string) {
	FetchRequests.WithLabelValues(outcome).Inc()
}

// RecordFetchFailure records a fetch that ended in the error state.
func RecordFetchFailure(errorClass string) {
	FetchFailures.WithLabelValues(errorClass).Inc()
}

// RecordPoll records the outcome of a scheduled refetch.
func RecordPoll(err error) {
	if err != nil {
		FetchPolls.WithLabelValues("failure").Inc()
		return
	}
	FetchPolls.WithLabelValues("success").Inc()
}

// RecordNormalizerIssue records a value the normalizer left uncoerced.
func RecordNormalizerIssue(chart, reason string) {
	NormalizerIssues.WithLabelValues(chart, reason).Inc()
}

// RecordPipelineWarnings adds n warnings of one stage and kind.
func RecordPipelineWarnings(chart, stage, kind string, n int) {
	PipelineWarnings.WithLabelValues(chart, stage, kind).Add(float64(n))
}

// RecordPipelineRun records the duration of a pipeline run.
func RecordPipelineRun(chart string, duration time.Duration) {
	PipelineDuration.WithLabelValues(chart).Observe(duration.Seconds())
}

// RecordSeriesCache records a derived-series cache lookup.
func RecordSeriesCache(hit bool) {
	if hit {
		ChartSeriesCacheHits.Inc()
		return
	}
	ChartSeriesCacheMisses.Inc()
}

// RecordAPIRequest records API request metrics
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements active request counter
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// TrackStreamConnection increments or decrements the open stream gauge.
func TrackStreamConnection(open bool) {
	if open {
		StreamConnections.Inc()
	} else {
		StreamConnections.Dec()
	}
}
