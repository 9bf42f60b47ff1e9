// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/validation"
)

// ListCharts returns the chart catalogue, optionally narrowed by category,
// tag and free text.
//
// Method: GET
// Path: /api/v1/charts?category=&tag=&q=
func (h *Handler) ListCharts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	req := ChartListRequest{
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Q:        q.Get("q"),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	defs := h.charts.Registry().Find(charts.Query{Category: req.Category, Tag: req.Tag, Text: req.Q})
	rw.SuccessList(defs, len(defs))
}

// ListCategories returns the sorted chart categories.
//
// Method: GET
// Path: /api/v1/charts/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.charts.Registry().Categories()
	NewResponseWriter(w, r).SuccessList(categories, len(categories))
}

// ListTags returns the sorted chart tags.
//
// Method: GET
// Path: /api/v1/charts/tags
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags := h.charts.Registry().Tags()
	NewResponseWriter(w, r).SuccessList(tags, len(tags))
}

// GetChart returns one chart definition.
//
// Method: GET
// Path: /api/v1/charts/{id}
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	def, ok := h.charts.Registry().Get(chi.URLParam(r, "id"))
	if !ok {
		rw.NotFound("Chart not found")
		return
	}
	rw.Success(def)
}

// ChartSeries returns the chart's derived series, fetching from the
// warehouse only when the chart's query has no fresh result.
//
// Method: GET
// Path: /api/v1/charts/{id}/series?filter.<field>=a,b
//
// Response:
//   - 200: series with state "ready", or state "empty" when no points remain
//   - 400: malformed or unsupported filter selection
//   - 404: unknown chart
//   - 502: the warehouse rejected the query
//   - 503: the warehouse is unreachable
func (h *Handler) ChartSeries(w http.ResponseWriter, r *http.Request) {
	h.serveSeries(w, r, h.charts.Series)
}

// RefetchChart re-runs the chart's query regardless of freshness and returns
// the new series.
//
// Method: POST
// Path: /api/v1/charts/{id}/refetch?filter.<field>=a,b
func (h *Handler) RefetchChart(w http.ResponseWriter, r *http.Request) {
	h.serveSeries(w, r, h.charts.Refetch)
}

type seriesFunc func(ctx context.Context, id string, sel pipeline.Selection) (*charts.SeriesResult, error)

func (h *Handler) serveSeries(w http.ResponseWriter, r *http.Request, get seriesFunc) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeChartError(rw, r, id, err)
		return
	}

	res, err := get(r.Context(), id, sel)
	if err != nil {
		if empty := emptySeries(err); empty != nil {
			rw.Success(empty)
			return
		}
		writeChartError(rw, r, id, err)
		return
	}
	rw.Success(res)
}

// emptySeries renders an *charts.EmptyResultError as a successful series in
// state "empty". It returns nil for any other error.
func emptySeries(err error) *charts.SeriesResult {
	var empty *charts.EmptyResultError
	if !errors.As(err, &empty) {
		return nil
	}
	return &charts.SeriesResult{
		ChartID:     empty.ChartID,
		State:       charts.StateEmpty,
		Points:      []pipeline.Point{},
		RowsFetched: empty.RowsFetched,
		FetchedAt:   empty.FetchedAt,
	}
}

func logChartError(r *http.Request, chartID string, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("chart", sanitizeLogValue(chartID)).Msg("Series request failed")
}
