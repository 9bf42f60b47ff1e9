// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/dashflow/internal/logging"
)

// HealthLive handles liveness probe requests. It returns 200 while the
// process is serving, regardless of the warehouse.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":   true,
		"version": h.cfg.Version,
		"uptime":  time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests. It returns 503 when the
// warehouse does not answer a ping within the readiness timeout.
//
// Method: GET
// Path: /api/v1/health/ready
//
// Response:
//   - 200: the warehouse answered and the catalogue is loaded
//   - 503: the warehouse is unreachable
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := map[string]interface{}{
		"charts":    h.charts.Registry().Len(),
		"warehouse": "not_checked",
	}

	if h.warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.ReadyTimeout)
		defer cancel()

		if err := h.warehouse.Ping(ctx); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed: warehouse unreachable")
			status["warehouse"] = "unavailable"
			status["ready"] = false
			rw.ServiceUnavailable("Warehouse unavailable", status)
			return
		}
		status["warehouse"] = "ok"
	}

	status["ready"] = true
	rw.Success(status)
}
