// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package warehouse is the boundary to the external data warehouse.

The fetch layer depends only on the Executor interface. Two adapters are
provided:

  - HTTPExecutor posts {query, params} to a query endpoint and decodes the rows.
  - DuckDBExecutor runs the query against a DuckDB database through database/sql.

Both return errors classified into two families. A *NetworkError (transport
failures, timeouts, unavailable upstream, open circuit) is retryable. A
*QueryError (the warehouse rejected the statement) is permanent and must not be
retried. Classify maps any error onto one of the two classes; unknown errors
are treated as network failures.

Resilience is layered with decorators:

	exec := warehouse.NewHTTPExecutor(cfg)
	exec = warehouse.WithRateLimit(exec, rate.NewLimiter(10, 5))
	exec = warehouse.WithCircuitBreaker(exec, warehouse.DefaultBreakerConfig("warehouse"))
	exec = warehouse.WithMetrics(exec, "http")
*/
package warehouse
