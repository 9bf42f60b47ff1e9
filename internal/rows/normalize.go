// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package rows

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Schema declares which fields of a chart's rows carry dates and which carry
// numbers encoded as strings. Fields not listed are passed through as-is.
type Schema struct {
	Temporal []string `koanf:"temporal" json:"temporal,omitempty"`
	Numeric  []string `koanf:"numeric" json:"numeric,omitempty"`
}

// Issue describes a declared field whose value could not be converted.
type Issue struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s=%q: %s", i.Field, i.Value, i.Reason)
}

// Issue reasons.
const (
	ReasonUnparseableTime   = "unparseable_time"
	ReasonUnparseableNumber = "unparseable_number"
)

// temporalLayouts are tried in order for declared temporal fields.
var temporalLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"2006-01",
}

// Normalizer converts raw rows into canonical rows according to a Schema.
// It is immutable and safe for concurrent use.
type Normalizer struct {
	temporal map[string]struct{}
	numeric  map[string]struct{}
}

// NewNormalizer builds a Normalizer for schema.
func NewNormalizer(schema Schema) *Normalizer {
	n := &Normalizer{
		temporal: make(map[string]struct{}, len(schema.Temporal)),
		numeric:  make(map[string]struct{}, len(schema.Numeric)),
	}
	for _, f := range schema.Temporal {
		n.temporal[f] = struct{}{}
	}
	for _, f := range schema.Numeric {
		n.numeric[f] = struct{}{}
	}
	return n
}

// Rows normalizes every raw row, returning the canonical rows and any
// conversion issues in row order.
func (n *Normalizer) Rows(raws []RawRow) ([]Row, []Issue) {
	out := make([]Row, 0, len(raws))
	var issues []Issue
	for _, raw := range raws {
		row, rowIssues := n.Row(raw)
		out = append(out, row)
		issues = append(issues, rowIssues...)
	}
	return out, issues
}

// Row normalizes a single raw row.
func (n *Normalizer) Row(raw RawRow) (Row, []Issue) {
	row := make(Row, len(raw))
	var issues []Issue
	for field, v := range raw {
		inner := Unwrap(v)
		value, nonFinite := scalar(inner)
		if nonFinite {
			issues = append(issues, Issue{Field: field, Value: fmt.Sprint(inner), Reason: ReasonUnparseableNumber})
		}

		if _, ok := n.temporal[field]; ok {
			if s, isString := value.(string); isString {
				t, err := ParseTime(s)
				if err != nil {
					issues = append(issues, Issue{Field: field, Value: s, Reason: ReasonUnparseableTime})
				} else {
					value = t
				}
			}
		}

		if _, ok := n.numeric[field]; ok {
			if s, isString := value.(string); isString {
				f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil || !finite(f) {
					issues = append(issues, Issue{Field: field, Value: s, Reason: ReasonUnparseableNumber})
					value = nil
				} else {
					value = f
				}
			}
		}

		row[field] = value
	}
	return row, issues
}

// Unwrap returns the inner primitive of a boxed scalar, an object whose only
// key is "value". Boxes nested inside boxes are unwrapped fully. Objects with
// other keys, or whose boxed value is itself a collection, are returned
// unchanged.
func Unwrap(v any) any {
	cur := v
	for {
		m, ok := cur.(map[string]any)
		if !ok {
			break
		}
		inner, ok := m["value"]
		if !ok || len(m) != 1 {
			return v
		}
		cur = inner
	}
	if cur != nil && !isPrimitive(cur) {
		return v
	}
	return cur
}

func isPrimitive(v any) bool {
	if _, ok := v.([]byte); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return false
	default:
		return true
	}
}

// Scalar maps transport-level types onto the canonical value set. Integers and
// decimals become float64, byte slices become strings. NaN and infinities
// become nil.
func Scalar(v any) any {
	out, _ := scalar(v)
	return out
}

// scalar is Scalar that also reports whether a non-finite number was dropped.
func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case float64:
		return finiteOrNil(x)
	case float32:
		return finiteOrNil(float64(x))
	case int:
		return float64(x), false
	case int8:
		return float64(x), false
	case int16:
		return float64(x), false
	case int32:
		return float64(x), false
	case int64:
		return float64(x), false
	case uint:
		return float64(x), false
	case uint8:
		return float64(x), false
	case uint16:
		return float64(x), false
	case uint32:
		return float64(x), false
	case uint64:
		return float64(x), false
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return finiteOrNil(f)
		}
		return x.String(), false
	case *big.Int:
		if x == nil {
			return nil, false
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return finiteOrNil(f)
	case string, bool, time.Time:
		return x, false
	case []byte:
		return string(x), false
	case interface{ Float64() float64 }:
		// Decimal types from database drivers.
		return finiteOrNil(x.Float64())
	case fmt.Stringer:
		return x.String(), false
	default:
		return fmt.Sprint(x), false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func finiteOrNil(f float64) (any, bool) {
	if !finite(f) {
		return nil, true
	}
	return f, false
}

// ParseTime parses s with the accepted temporal layouts.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range temporalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", s)
}
