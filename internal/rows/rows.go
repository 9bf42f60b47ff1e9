// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

// Package rows defines the loosely-typed rows returned by the warehouse and
// the canonical rows the aggregation engine consumes.
//
// A RawRow may hold any value the transport produced: JSON numbers, strings,
// booleans, nulls, raw bytes, timestamps or boxed scalars of the form
// {"value": primitive}. A Row only ever holds nil, float64, string, bool or
// time.Time. The Normalizer performs that conversion using an explicit
// per-chart Schema; no field is ever parsed as a date unless it is declared
// temporal.
package rows

import (
	"math"
	"strconv"
	"time"
)

// RawRow is a single record as decoded from the query executor.
type RawRow = map[string]any

// Row is a canonical record. Values are nil, float64, string, bool or time.Time.
type Row map[string]any

// Clone returns a shallow copy of the row. Stages copy before they write.
func (r Row) Clone() Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float returns the numeric value of field and whether it was a usable number.
func (r Row) Float(field string) (float64, bool) {
	return Number(r[field])
}

// Label returns the display label of field.
func (r Row) Label(field string) string {
	return Label(r[field])
}

// Number reports whether v is a finite float64 and returns it.
func Number(v any) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Label formats a canonical value for grouping keys and display. Dates without
// a time component render as 2006-01-02, other instants as RFC3339.
func Label(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return FormatTime(x, "")
	default:
		return ""
	}
}

// FormatTime formats t with layout, or picks a date or timestamp layout when
// layout is empty.
func FormatTime(t time.Time, layout string) string {
	if layout != "" {
		return t.Format(layout)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}
