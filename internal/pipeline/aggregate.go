// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"math"
	"slices"

	"github.com/tomtom215/dashflow/internal/rows"
)

// KeyFunc derives a group or bucket key from a row.
type KeyFunc func(rows.Row) string

// FieldKey keys rows by the label of field.
func FieldKey(field string) KeyFunc {
	return func(r rows.Row) string { return r.Label(field) }
}

// GroupBy partitions rows by key. Group order is the order in which keys are
// first seen in the input.
type GroupBy struct {
	Field string
	// Key overrides the default FieldKey(Field).
	Key KeyFunc
}

func (GroupBy) Name() string { return "group_by" }

func (s GroupBy) Apply(in Frame, _ WarningSink) Frame {
	keyFn := s.Key
	if keyFn == nil {
		keyFn = FieldKey(s.Field)
	}

	index := make(map[string]int)
	var groups []Group
	for _, r := range in.Rows {
		k := keyFn(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}

	return Frame{Rows: in.Rows, Groups: groups, GroupField: s.Field, Trend: in.Trend}
}

// WeightedAverage folds each group into one row holding Σ(value·weight)/Σweight
// in Value and Σweight in Weight. Groups whose total weight is zero carry no
// information and are omitted.
type WeightedAverage struct {
	Value  string
	Weight string
}

func (WeightedAverage) Name() string { return "weighted_average" }

func (s WeightedAverage) Apply(in Frame, sink WarningSink) Frame {
	groups := groupsOf(in)
	out := make([]rows.Row, 0, len(groups))
	for _, g := range groups {
		var sumW, sumVW float64
		for _, r := range g.Rows {
			v := numeric(r, s.Value, s.Name(), g.Key, sink)
			w := numeric(r, s.Weight, s.Name(), g.Key, sink)
			sumW += w
			sumVW += v * w
		}
		if sumW == 0 {
			warn(sink, Warning{Stage: s.Name(), Kind: WarnZeroWeight, Field: s.Weight, Key: g.Key})
			continue
		}
		row := aggregateRow(in, g)
		row[s.Value] = sumVW / sumW
		row[s.Weight] = sumW
		out = append(out, row)
	}
	return Frame{Rows: out, Trend: in.Trend}
}

// Percentile returns the p-th percentile of values using the lower nearest
// rank on a sorted copy: index floor(p/100·(n−1)). p is clamped to [0, 100].
// It reports false for an empty input.
func Percentile(values []float64, p float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	p = math.Max(0, math.Min(100, p))
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	idx := int(math.Floor(p / 100 * float64(len(sorted)-1)))
	return sorted[idx], true
}

// Percentile band output fields.
const (
	FieldP25 = "p25"
	FieldP50 = "p50"
	FieldP75 = "p75"
)

// PercentileBands folds each group into its 25th, 50th and 75th percentile of
// Field. Null observations are skipped; groups with no observations are
// omitted.
type PercentileBands struct {
	Field string
}

func (PercentileBands) Name() string { return "percentile_bands" }

func (s PercentileBands) Apply(in Frame, sink WarningSink) Frame {
	groups := groupsOf(in)
	out := make([]rows.Row, 0, len(groups))
	for _, g := range groups {
		values := make([]float64, 0, len(g.Rows))
		for _, r := range g.Rows {
			if r[s.Field] == nil {
				continue
			}
			values = append(values, numeric(r, s.Field, s.Name(), g.Key, sink))
		}
		if len(values) == 0 {
			warn(sink, Warning{Stage: s.Name(), Kind: WarnEmptyGroup, Field: s.Field, Key: g.Key})
			continue
		}
		p25, _ := Percentile(values, 25)
		p50, _ := Percentile(values, 50)
		p75, _ := Percentile(values, 75)

		row := aggregateRow(in, g)
		row[FieldP25] = p25
		row[FieldP50] = p50
		row[FieldP75] = p75
		out = append(out, row)
	}
	return Frame{Rows: out, Trend: in.Trend}
}

// SumFields folds each group into the totals of Fields.
type SumFields struct {
	Fields []string
}

func (SumFields) Name() string { return "sum" }

func (s SumFields) Apply(in Frame, sink WarningSink) Frame {
	groups := groupsOf(in)
	out := make([]rows.Row, 0, len(groups))
	for _, g := range groups {
		row := aggregateRow(in, g)
		for _, f := range s.Fields {
			var total float64
			for _, r := range g.Rows {
				total += numeric(r, f, s.Name(), g.Key, sink)
			}
			row[f] = total
		}
		out = append(out, row)
	}
	return Frame{Rows: out, Trend: in.Trend}
}
