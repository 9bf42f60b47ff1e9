// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"math"
	"time"

	"github.com/tomtom215/dashflow/internal/rows"
)

// BucketKey keys rows by field, formatting temporal values with layout. An
// empty layout uses rows.Label.
func BucketKey(field, layout string) KeyFunc {
	return func(r rows.Row) string {
		if t, ok := r[field].(time.Time); ok && layout != "" {
			return t.Format(layout)
		}
		return r.Label(field)
	}
}

// TimeBucketAlign pivots long rows (bucket, category, value) into one wide row
// per bucket. Columns maps category labels to output column names; when it is
// empty the raw category label is used as the column. Categories absent from
// a non-empty mapping are skipped. Every mapped column exists on every output
// row, nil when that bucket had no value for it.
type TimeBucketAlign struct {
	// BucketField is written into each wide row and holds the bucket key.
	BucketField string
	Bucket      KeyFunc
	Category    string
	Value       string
	Columns     map[string]string
}

func (TimeBucketAlign) Name() string { return "time_bucket_align" }

func (s TimeBucketAlign) Apply(in Frame, sink WarningSink) Frame {
	bucketFn := s.Bucket
	if bucketFn == nil {
		bucketFn = FieldKey(s.BucketField)
	}

	index := make(map[string]int)
	var out []rows.Row
	for _, r := range in.Rows {
		bucket := bucketFn(r)
		category := r.Label(s.Category)

		column := category
		if len(s.Columns) > 0 {
			mapped, ok := s.Columns[category]
			if !ok {
				warn(sink, Warning{Stage: s.Name(), Kind: WarnUnmappedCategory, Field: s.Category, Key: bucket, Detail: category})
				continue
			}
			column = mapped
		}

		i, ok := index[bucket]
		if !ok {
			i = len(out)
			index[bucket] = i
			wide := rows.Row{s.BucketField: bucket}
			for _, c := range s.Columns {
				wide[c] = nil
			}
			out = append(out, wide)
		}

		var v any
		if r[s.Value] != nil {
			v = numeric(r, s.Value, s.Name(), bucket, sink)
		}
		out[i][column] = v
	}

	return Frame{Rows: out, Trend: in.Trend}
}

// RatioDerivation writes the percentage change of A over B, rounded to one
// decimal place, into Out: round1((A−B)/B·100). Out is nil when either operand
// is missing or B is zero.
type RatioDerivation struct {
	A   string
	B   string
	Out string
}

func (RatioDerivation) Name() string { return "ratio" }

func (s RatioDerivation) Apply(in Frame, _ WarningSink) Frame {
	out := make([]rows.Row, len(in.Rows))
	for i, r := range in.Rows {
		row := r.Clone()
		row[s.Out] = Ratio(r[s.A], r[s.B])
		out[i] = row
	}
	return Frame{Rows: out, Trend: in.Trend}
}

// Ratio computes round1((a−b)/b·100), or nil when it is undefined.
func Ratio(a, b any) any {
	av, okA := rows.Number(a)
	bv, okB := rows.Number(b)
	if !okA || !okB || bv == 0 {
		return nil
	}
	return Round1((av - bv) / bv * 100)
}

// Round1 rounds x to one decimal place.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}
