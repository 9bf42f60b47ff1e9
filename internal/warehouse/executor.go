// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"context"
	"time"

	"github.com/tomtom215/dashflow/internal/metrics"
	"github.com/tomtom215/dashflow/internal/rows"
)

// Request is an opaque query with named parameters.
type Request struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

// Result is the raw outcome of a query. TotalRows is the warehouse's count
// before any windowing and may exceed len(Rows).
type Result struct {
	Rows      []rows.RawRow
	TotalRows int
}

// Executor runs queries against the warehouse.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) (*Result, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

type instrumented struct {
	next Executor
	name string
}

// WithMetrics records duration, row counts and error classes of every call
// under the given executor label.
func WithMetrics(next Executor, name string) Executor {
	return &instrumented{next: next, name: name}
}

func (e *instrumented) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res, err := e.next.Execute(ctx, req)
	if err != nil {
		metrics.RecordWarehouseQuery(e.name, time.Since(start), 0, Classify(err).String())
		return nil, err
	}
	metrics.RecordWarehouseQuery(e.name, time.Since(start), len(res.Rows), "")
	return res, nil
}
