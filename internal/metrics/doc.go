// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry through promauto and are
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

Warehouse:
  - warehouse_query_duration_seconds (histogram, labels: executor)
  - warehouse_query_errors_total (counter, labels: executor, error_class)
  - warehouse_rows_returned_total (counter, labels: executor)
  - warehouse_rate_limit_waits_total (counter)

Fetch controller:
  - fetch_requests_total (counter, labels: outcome = hit, miss, coalesced, refetch)
  - fetch_retries_total, fetch_truncated_results_total (counters)
  - fetch_failures_total (counter, labels: error_class)
  - fetch_cache_entries, fetch_active_subscriptions (gauges)
  - fetch_polls_total (counter, labels: result)

Data quality and charts:
  - normalizer_issues_total (counter, labels: chart, reason)
  - pipeline_warnings_total (counter, labels: chart, stage, kind)
  - pipeline_run_duration_seconds (histogram, labels: chart)
  - chart_series_cache_hits_total, chart_series_cache_misses_total

HTTP and streams:
  - api_requests_total, api_request_duration_seconds, api_active_requests
  - stream_connections_active, stream_messages_sent_total

Circuit Breaker:
  - circuit_breaker_state (gauge, 0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total (counter, labels: name, result)
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total (counter, labels: name, from_state, to_state)

# Usage

Callers use the Record* helpers rather than touching collectors directly:

	start := time.Now()
	res, err := exec.Execute(ctx, req)
	metrics.RecordWarehouseQuery("http", time.Since(start), len(res.Rows), "")
*/
package metrics
