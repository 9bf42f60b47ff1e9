// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/dashflow/internal/pipeline"
)

// filterPrefix marks filter selections in the query string:
// ?filter.state=CA,NY&filter.seniority_level=Senior
const filterPrefix = "filter."

// maxFilterValues bounds the values selected across all filter fields.
const maxFilterValues = 100

// ChartListRequest represents the validated query parameters for GET /charts.
type ChartListRequest struct {
	Category string `validate:"max=64"`
	Tag      string `validate:"max=32"`
	Q        string `validate:"max=200"`
}

// parseSelection collects filter.<field> parameters. Each parameter is a
// comma-separated list and repeated parameters accumulate. Blank values are
// dropped; a field whose values are all blank is not selected.
func parseSelection(query url.Values) (pipeline.Selection, error) {
	var sel pipeline.Selection
	total := 0
	for key, raw := range query {
		field, ok := strings.CutPrefix(key, filterPrefix)
		if !ok {
			continue
		}
		if field == "" {
			return nil, &errParam{param: key, reason: "missing field name"}
		}

		for _, item := range raw {
			for _, v := range strings.Split(item, ",") {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				if total++; total > maxFilterValues {
					return nil, &errParam{param: key, reason: fmt.Sprintf("at most %d filter values are allowed", maxFilterValues)}
				}
				if sel == nil {
					sel = make(pipeline.Selection)
				}
				sel[field] = append(sel[field], v)
			}
		}
	}
	return sel, nil
}

// sanitizeLogValue replaces control characters so client input cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
