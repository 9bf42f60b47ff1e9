// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package api serves the chart catalogue and derived chart series over HTTP.

# Endpoints

	GET  /api/v1/health/live            liveness probe
	GET  /api/v1/health/ready           readiness probe, pings the warehouse
	GET  /api/v1/charts                 catalogue (?category=&tag=&q=)
	GET  /api/v1/charts/categories      distinct categories
	GET  /api/v1/charts/tags            distinct tags
	GET  /api/v1/charts/{id}            one chart definition
	GET  /api/v1/charts/{id}/series     derived series
	POST /api/v1/charts/{id}/refetch    re-run the chart query, then derive
	GET  /api/v1/charts/{id}/stream     websocket of series updates
	GET  /metrics                       Prometheus metrics

Series endpoints accept filter selections as filter.<field>=a,b. Repeated
parameters accumulate. Selecting a field the chart does not declare as
filterable is a 400.

# Response Format

Every JSON endpoint answers with the same envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors carry a machine-readable code:

	{
	  "success": false,
	  "error": {"code": "QUERY_ERROR", "message": "...", "request_id": "..."}
	}

A series with no points is not an error. It is returned with status 200 and
state "empty". Query rejections by the warehouse are 502 QUERY_ERROR; every
other warehouse failure is 503 EXTERNAL_SERVICE_FAILED.

# Streams

A stream subscribes to the chart's query before upgrading, so unknown charts
and bad selections are rejected with ordinary HTTP errors. After the upgrade
each completed refresh of the query is pushed as a StreamMessage. The current
series is sent first when the query has completed before. The query is polled
at the chart's refresh interval while any stream follows it.

Only the write pump writes to the connection. The read pump exists to process
pongs and notice when the client goes away.
*/
package api
