// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import "fmt"

// Warning kinds.
const (
	WarnNonNumeric       = "non_numeric"
	WarnZeroWeight       = "zero_weight"
	WarnUnmappedCategory = "unmapped_category"
	WarnEmptyGroup       = "empty_group"
)

// Warning is a data-quality problem found while transforming rows. Warnings
// never fail a pipeline; they travel beside the result.
type Warning struct {
	Stage  string `json:"stage"`
	Kind   string `json:"kind"`
	Field  string `json:"field,omitempty"`
	Key    string `json:"key,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s field=%s key=%s %s", w.Stage, w.Kind, w.Field, w.Key, w.Detail)
}

// WarningSink receives warnings raised by stages.
type WarningSink interface {
	Warn(w Warning)
}

// Warnings collects warnings in the order they were raised.
type Warnings []Warning

// Warn implements WarningSink.
func (ws *Warnings) Warn(w Warning) {
	*ws = append(*ws, w)
}

// CountByKind groups the collected warnings by stage and kind.
func (ws Warnings) CountByKind() map[[2]string]int {
	out := make(map[[2]string]int)
	for _, w := range ws {
		out[[2]string{w.Stage, w.Kind}]++
	}
	return out
}

func warn(sink WarningSink, w Warning) {
	if sink != nil {
		sink.Warn(w)
	}
}
