// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"time"

	"github.com/tomtom215/dashflow/internal/rows"
)

// Point is one render-ready element of a derived series.
type Point struct {
	Label          string         `json:"label"`
	PrimaryValue   *float64       `json:"primaryValue"`
	SecondaryValue *float64       `json:"secondaryValue,omitempty"`
	ErrorLow       *float64       `json:"errorLow,omitempty"`
	ErrorHigh      *float64       `json:"errorHigh,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Projection maps the fields of the final rows onto series points.
type Projection struct {
	// Label defaults to KeyField.
	Label       string
	LabelLayout string
	Primary     string
	Secondary   string
	// Lower and Upper bound the primary value. ErrorLow is Primary−Lower and
	// ErrorHigh is Upper−Primary.
	Lower    string
	Upper    string
	Metadata []string
}

// Project converts rows into points, one per row, in row order.
func (p Projection) Project(in []rows.Row) []Point {
	labelField := p.Label
	if labelField == "" {
		labelField = KeyField
	}

	out := make([]Point, 0, len(in))
	for _, r := range in {
		pt := Point{
			Label:        p.label(r[labelField]),
			PrimaryValue: floatPtr(r, p.Primary),
		}
		if p.Secondary != "" {
			pt.SecondaryValue = floatPtr(r, p.Secondary)
		}
		if pt.PrimaryValue != nil {
			primary := *pt.PrimaryValue
			if lo := floatPtr(r, p.Lower); lo != nil {
				v := primary - *lo
				pt.ErrorLow = &v
			}
			if hi := floatPtr(r, p.Upper); hi != nil {
				v := *hi - primary
				pt.ErrorHigh = &v
			}
		}
		if len(p.Metadata) > 0 {
			pt.Metadata = make(map[string]any, len(p.Metadata))
			for _, f := range p.Metadata {
				pt.Metadata[f] = r[f]
			}
		}
		out = append(out, pt)
	}
	return out
}

func (p Projection) label(v any) string {
	if t, ok := v.(time.Time); ok {
		return rows.FormatTime(t, p.LabelLayout)
	}
	return rows.Label(v)
}

func floatPtr(r rows.Row, field string) *float64 {
	if field == "" {
		return nil
	}
	f, ok := r.Float(field)
	if !ok {
		return nil
	}
	return &f
}
