// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// errParam is a malformed query parameter.
type errParam struct {
	param  string
	reason string
}

func (e *errParam) Error() string {
	return "invalid parameter " + e.param + ": " + e.reason
}

// chartError is the HTTP rendering of a chart service error.
type chartError struct {
	status  int
	code    string
	message string
	details interface{}
}

// describeError maps a chart service error onto a status and error code.
// Query rejections are permanent and surface as 502; everything else from
// the warehouse is treated as unreachable and surfaces as 503.
func describeError(err error) chartError {
	var (
		selErr   *pipeline.SelectionError
		paramErr *errParam
		queryErr *warehouse.QueryError
	)

	switch {
	case errors.Is(err, charts.ErrNotFound):
		return chartError{http.StatusNotFound, ErrCodeNotFound, "Chart not found", nil}
	case errors.As(err, &selErr):
		return chartError{http.StatusBadRequest, ErrCodeBadRequest, "Filter selection is not supported by this chart",
			map[string]interface{}{"fields": selErr.Fields}}
	case errors.As(err, &paramErr):
		return chartError{http.StatusBadRequest, ErrCodeBadRequest, paramErr.Error(), nil}
	case errors.As(err, &queryErr):
		return chartError{http.StatusBadGateway, ErrCodeQueryError, "The warehouse rejected the chart query",
			map[string]interface{}{"reason": queryErr.Message}}
	case errors.Is(err, fetch.ErrClosed):
		return chartError{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Server is shutting down", nil}
	case errors.Is(err, context.Canceled):
		return chartError{http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Request canceled", nil}
	case warehouse.Classify(err) == warehouse.ClassNetwork:
		return chartError{http.StatusServiceUnavailable, ErrCodeExternalServiceFail, "External service unavailable: warehouse", nil}
	default:
		return chartError{http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", nil}
	}
}

// writeChartError writes err in the response envelope and logs failures that
// are not the caller's fault.
func writeChartError(rw *ResponseWriter, r *http.Request, chartID string, err error) {
	ce := describeError(err)
	if ce.status >= http.StatusInternalServerError {
		logChartError(r, chartID, err)
	}
	rw.ErrorWithDetails(ce.status, ce.code, ce.message, ce.details)
}
