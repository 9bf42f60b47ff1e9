// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package config provides centralized configuration management for Dashflow.

Configuration is loaded with Koanf v2 in three layers, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/dashflow/config.yaml or /etc/dashflow/config.yml
 3. Environment variables with explicit names (see below)

# Configuration Structure

  - ServerConfig: HTTP listen address, timeouts and environment
  - WarehouseConfig: executor driver (duckdb or http), circuit breaker and
    query rate limit
  - FetchConfig: query cache TTL, retries, per-attempt timeout and row cap
  - ChartsConfig: dataset name, series cache TTL and extra chart definitions
  - SecurityConfig: CORS origins and per-IP request rate limit
  - logging.Config: level, format and caller reporting

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT
  - ENVIRONMENT: development, production or test

Warehouse:
  - WAREHOUSE_DRIVER: duckdb (default) or http
  - DUCKDB_PATH, DUCKDB_THREADS, DUCKDB_READ_ONLY
  - WAREHOUSE_URL, WAREHOUSE_TIMEOUT, WAREHOUSE_API_KEY, WAREHOUSE_API_KEY_HEADER
  - BREAKER_ENABLED, BREAKER_TIMEOUT, BREAKER_FAILURE_RATIO
  - WAREHOUSE_RATE_LIMIT (queries per second, 0 = unlimited), WAREHOUSE_RATE_BURST

Fetch:
  - FETCH_DEFAULT_TTL, FETCH_MAX_RETRIES, FETCH_INITIAL_BACKOFF, FETCH_MAX_BACKOFF
  - FETCH_QUERY_TIMEOUT, FETCH_MAX_ROWS (default: 1000)

Charts:
  - CHARTS_DATASET (default: main), SERIES_CACHE_TTL, CHARTS_DISABLE_BUILTIN

Security:
  - CORS_ORIGINS: comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Chart Definitions

Extra charts are declared in the YAML file only:

	charts:
	  dataset: analytics
	  definitions:
	    - id: remote-share
	      name: Remote Share by Month
	      category: trends
	      view: monthly_remote_share
	      refresh_interval_seconds: 3600
	      schema:
	        temporal: [month]
	        numeric: [remote_jobs, job_count]
	      options:
	        label_field: month
	        label_layout: "2006-01"
	        primary_field: remote_jobs
	        secondary_field: job_count

Definitions are validated with the built-in charts when the configuration
is loaded; a duplicate id fails the load.

# Validation

Validate combines struct tags checked by the shared validator with
cross-field rules: the http driver needs WAREHOUSE_URL, production needs a
DuckDB path and explicit CORS origins, and the rate limit needs at least one
request per window unless disabled.

# Thread Safety

The Config struct is not modified after Load returns and may be read from
any goroutine.
*/
package config
