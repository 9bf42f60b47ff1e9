// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"fmt"

	"github.com/tomtom215/dashflow/internal/rows"
)

// KeyField is written into every aggregated row and holds its group key.
const KeyField = "key"

// CountField holds the number of input rows folded into an aggregated row.
const CountField = "count"

// Group is a set of rows sharing a key. Groups keep first-seen order.
type Group struct {
	Key  string
	Rows []rows.Row
}

// TrendFit is an ordinary least squares fit over the row index.
type TrendFit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	N         int     `json:"n"`
}

// At returns the fitted value at x.
func (f TrendFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// Frame is the value passed between stages. Stages never mutate the rows of
// the frame they receive; they return a new frame.
type Frame struct {
	Rows []rows.Row

	// Groups is set by GroupBy and consumed by the aggregating stages.
	Groups []Group

	// GroupField is the field the current groups were keyed on, if any.
	GroupField string

	Trend *TrendFit
}

// Stage is one pure transformation in a pipeline.
type Stage interface {
	Name() string
	Apply(in Frame, sink WarningSink) Frame
}

// groupsOf returns the frame's groups, or a single group holding every row
// when nothing was grouped.
func groupsOf(in Frame) []Group {
	if len(in.Groups) > 0 {
		return in.Groups
	}
	if len(in.Rows) == 0 {
		return nil
	}
	return []Group{{Key: "all", Rows: in.Rows}}
}

// aggregateRow starts the output row for group g.
func aggregateRow(in Frame, g Group) rows.Row {
	out := rows.Row{KeyField: g.Key, CountField: float64(len(g.Rows))}
	if in.GroupField != "" && len(g.Rows) > 0 {
		// Keep the typed value of the group field so projections can format it.
		out[in.GroupField] = g.Rows[0][in.GroupField]
	}
	return out
}

// numeric reads field from row for aggregation. Nulls count as zero without a
// warning; any other non-numeric value counts as zero and is reported.
func numeric(row rows.Row, field, stage, key string, sink WarningSink) float64 {
	v := row[field]
	if v == nil {
		return 0
	}
	if f, ok := rows.Number(v); ok {
		return f
	}
	warn(sink, Warning{
		Stage:  stage,
		Kind:   WarnNonNumeric,
		Field:  field,
		Key:    key,
		Detail: fmt.Sprintf("%v", v),
	})
	return 0
}
