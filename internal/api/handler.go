// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/pipeline"
)

// ChartService is the chart catalogue and series derivation the handlers
// serve. *charts.Service implements it.
type ChartService interface {
	Registry() *charts.Registry
	Series(ctx context.Context, id string, sel pipeline.Selection) (*charts.SeriesResult, error)
	Refetch(ctx context.Context, id string, sel pipeline.Selection) (*charts.SeriesResult, error)
	Subscribe(id string, sel pipeline.Selection) (*charts.SeriesSubscription, error)
}

// Pinger reports whether the warehouse is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// CORSOrigins are the origins allowed to open chart streams. "*" allows
	// any origin.
	CORSOrigins []string
	// ReadyTimeout bounds the warehouse ping of the readiness probe.
	ReadyTimeout time.Duration
	Version      string
}

// Handler serves the HTTP API.
type Handler struct {
	charts    ChartService
	warehouse Pinger
	cfg       HandlerConfig
	startTime time.Time
	upgrader  websocket.Upgrader
}

// NewHandler creates a Handler. warehouse may be nil, in which case the
// readiness probe only checks the chart catalogue.
func NewHandler(svc ChartService, warehouse Pinger, cfg HandlerConfig) *Handler {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 2 * time.Second
	}
	h := &Handler{
		charts:    svc,
		warehouse: warehouse,
		cfg:       cfg,
		startTime: time.Now(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkStreamOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// checkStreamOrigin validates websocket connection origins. Browsers always
// send Origin on websocket requests, so a missing header is rejected.
func (h *Handler) checkStreamOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Ctx(r.Context()).Warn().Msg("Stream connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.cfg.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Ctx(r.Context()).Warn().Str("origin", sanitizeLogValue(origin)).Msg("Stream connection rejected from unauthorized origin")
	return false
}
