// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/dashflow/internal/rows"
)

// CompareFunc orders two rows. It returns a negative number when a < b.
type CompareFunc func(a, b rows.Row) int

// ByField compares rows on field. Numbers compare numerically, times
// chronologically and everything else by label. Nulls sort lowest.
func ByField(field string) CompareFunc {
	return func(a, b rows.Row) int {
		av, bv := a[field], b[field]
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return -1
		case bv == nil:
			return 1
		}
		if af, ok := rows.Number(av); ok {
			if bf, ok := rows.Number(bv); ok {
				return cmp.Compare(af, bf)
			}
		}
		if at, ok := av.(time.Time); ok {
			if bt, ok := bv.(time.Time); ok {
				return at.Compare(bt)
			}
		}
		return strings.Compare(rows.Label(av), rows.Label(bv))
	}
}

// Reverse inverts a comparator.
func Reverse(c CompareFunc) CompareFunc {
	return func(a, b rows.Row) int { return c(b, a) }
}

// SortAndTopN orders rows descending by Compare and keeps the first N. The
// sort is stable, so rows that compare equal keep their input order. N <= 0
// keeps every row. A nil Compare keeps input order and only truncates.
type SortAndTopN struct {
	Compare CompareFunc
	N       int
}

func (SortAndTopN) Name() string { return "sort_top_n" }

func (s SortAndTopN) Apply(in Frame, _ WarningSink) Frame {
	out := slices.Clone(in.Rows)
	if s.Compare != nil {
		slices.SortStableFunc(out, func(a, b rows.Row) int { return s.Compare(b, a) })
	}
	if s.N > 0 && len(out) > s.N {
		out = out[:s.N]
	}
	return Frame{Rows: out, Trend: in.Trend}
}

// MovingAverage writes the trailing mean of Field over the window
// [max(0, i−Window+1), i] into Out. It never looks ahead. A Window of one or
// less copies Field.
type MovingAverage struct {
	Field  string
	Window int
	Out    string
}

func (MovingAverage) Name() string { return "moving_average" }

func (s MovingAverage) Apply(in Frame, sink WarningSink) Frame {
	outField := s.Out
	if outField == "" {
		outField = s.Field + "_moving_avg"
	}
	window := max(s.Window, 1)

	values := make([]float64, len(in.Rows))
	for i, r := range in.Rows {
		values[i] = numeric(r, s.Field, s.Name(), r.Label(KeyField), sink)
	}

	out := make([]rows.Row, len(in.Rows))
	for i, r := range in.Rows {
		lo := max(0, i-window+1)
		var sum float64
		for _, v := range values[lo : i+1] {
			sum += v
		}

		row := r.Clone()
		row[outField] = sum / float64(i+1-lo)
		out[i] = row
	}
	return Frame{Rows: out, Trend: in.Trend}
}

// LinearTrend fits y = intercept + slope·x by ordinary least squares with x
// the row index and writes the fitted value of each row into Out. When the
// fit is degenerate (fewer than two rows) the slope is zero and the intercept
// is the mean of Field.
type LinearTrend struct {
	Field string
	Out   string
}

func (LinearTrend) Name() string { return "linear_trend" }

func (s LinearTrend) Apply(in Frame, sink WarningSink) Frame {
	if len(in.Rows) == 0 {
		return in
	}
	outField := s.Out
	if outField == "" {
		outField = s.Field + "_trend"
	}

	fit := FitLinear(collect(in.Rows, s.Field, s.Name(), sink))

	out := make([]rows.Row, len(in.Rows))
	for i, r := range in.Rows {
		row := r.Clone()
		row[outField] = fit.At(float64(i))
		out[i] = row
	}
	return Frame{Rows: out, Trend: &fit}
}

// FitLinear fits ys against their indices.
func FitLinear(ys []float64) TrendFit {
	n := float64(len(ys))
	if len(ys) == 0 {
		return TrendFit{}
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return TrendFit{Slope: 0, Intercept: sumY / n, N: len(ys)}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return TrendFit{Slope: slope, Intercept: (sumY - slope*sumX) / n, N: len(ys)}
}

func collect(in []rows.Row, field, stage string, sink WarningSink) []float64 {
	out := make([]float64, len(in))
	for i, r := range in {
		out[i] = numeric(r, field, stage, r.Label(KeyField), sink)
	}
	return out
}
