// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package middleware provides HTTP middleware components for the API router.

Key Components:

  - RequestID: request and correlation ids for structured logging
  - PrometheusMetrics: request count, latency and in-flight gauge labelled
    by chi route pattern
  - Compression: gzip for clients that accept it

All middleware has the chi signature func(http.Handler) http.Handler:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Group(func(r chi.Router) {
	    r.Use(middleware.Compression)
	    r.Get("/api/v1/charts", h.ListCharts)
	})

PrometheusMetrics must be installed with Use on a chi router so the route
pattern is known when the request completes. Its response writer supports
Flush and Hijack, so websocket upgrades work behind it; Compression skips
upgrade requests.
*/
package middleware
