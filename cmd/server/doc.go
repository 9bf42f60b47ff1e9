// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package main is the entry point for the Dashflow server.

Dashflow serves analytics dashboards whose numbers come from queries against
a data warehouse. Each chart in the catalogue names a query; the server runs
it through a shared fetch cache, normalizes the rows and derives a
render-ready series with the chart's pipeline.

# Application Architecture

	RootSupervisor ("dashflow")
	├── DataSupervisor ("data-layer")
	│   └── Refresh scheduler (polls queries that have subscribers)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: koanf v2 from defaults, config.yaml and environment
 2. Logging: zerolog from the logging section
 3. Warehouse executor: DuckDB or HTTP query endpoint, wrapped with metrics,
    rate limiting and a circuit breaker
 4. Fetch controller: query deduplication, TTL cache, retries and polling
 5. Chart registry and service: built-in and configured charts
 6. HTTP API and supervisor tree

# Configuration

See package config for every setting. The most common ones:

	WAREHOUSE_DRIVER=duckdb|http
	DUCKDB_PATH=/data/warehouse.duckdb
	WAREHOUSE_URL=https://warehouse.example.com/api/query
	CHARTS_DATASET=analytics
	HTTP_PORT=8080
	LOG_LEVEL=info

When a config file is in use, edits to its logging.level are applied without
a restart.

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for up to the configured shutdown timeout, the scheduler
waits for running polls, then the fetch controller and the executor are
closed.

# Example Usage

	export WAREHOUSE_DRIVER=duckdb
	export DUCKDB_PATH=./warehouse.duckdb
	export CHARTS_DATASET=main
	./dashflow
*/
package main
