// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"github.com/tomtom215/dashflow/internal/rows"
)

// AllValue selects every value of a field, the same as an empty selection.
const AllValue = "All"

// Selection maps a field to the values a consumer selected for it.
type Selection map[string][]string

// FilterPredicate keeps rows matching the selection: any selected value of a
// field matches (OR), and every field with a selection must match (AND).
// Fields with an empty selection, or one containing AllValue, pass through.
type FilterPredicate struct {
	Selections Selection
}

func (FilterPredicate) Name() string { return "filter" }

func (s FilterPredicate) Apply(in Frame, _ WarningSink) Frame {
	active := make(map[string]map[string]struct{}, len(s.Selections))
	for field, values := range s.Selections {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		all := false
		for _, v := range values {
			if v == AllValue {
				all = true
				break
			}
			set[v] = struct{}{}
		}
		if !all {
			active[field] = set
		}
	}
	if len(active) == 0 {
		return in
	}

	out := make([]rows.Row, 0, len(in.Rows))
	for _, r := range in.Rows {
		if matches(r, active) {
			out = append(out, r)
		}
	}
	return Frame{Rows: out, Trend: in.Trend}
}

func matches(r rows.Row, active map[string]map[string]struct{}) bool {
	for field, set := range active {
		if _, ok := set[r.Label(field)]; !ok {
			return false
		}
	}
	return true
}
