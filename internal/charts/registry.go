// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Registry is the immutable chart catalogue. It is built once at startup and
// safe for concurrent use.
type Registry struct {
	defs []Definition
	byID map[string]int
}

// NewRegistry validates defs and indexes them by id, keeping their order.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs: make([]Definition, 0, len(defs)),
		byID: make(map[string]int, len(defs)),
	}
	for i := range defs {
		d := defs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChart, d.ID)
		}
		r.byID[d.ID] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

// Len returns the number of charts.
func (r *Registry) Len() int {
	return len(r.defs)
}

// Get returns the chart with id.
func (r *Registry) Get(id string) (Definition, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// All returns every chart in registration order.
func (r *Registry) All() []Definition {
	return slices.Clone(r.defs)
}

// ByCategory returns the charts of category.
func (r *Registry) ByCategory(category string) []Definition {
	return r.Find(Query{Category: category})
}

// ByTag returns the charts tagged tag, ignoring case.
func (r *Registry) ByTag(tag string) []Definition {
	return r.Find(Query{Tag: tag})
}

// Search returns the charts whose id, name, description or tags contain
// text, ignoring case.
func (r *Registry) Search(text string) []Definition {
	return r.Find(Query{Text: text})
}

// Query narrows a catalogue listing. Empty fields match everything.
type Query struct {
	Category string
	Tag      string
	Text     string
}

// Find returns the charts matching every non-empty field of q.
func (r *Registry) Find(q Query) []Definition {
	out := make([]Definition, 0, len(r.defs))
	for i := range r.defs {
		d := &r.defs[i]
		if q.Category != "" && !strings.EqualFold(d.Category, q.Category) {
			continue
		}
		if q.Tag != "" && !d.hasTag(q.Tag) {
			continue
		}
		if !d.matches(q.Text) {
			continue
		}
		out = append(out, *d)
	}
	return out
}

// Categories lists the distinct categories, sorted.
func (r *Registry) Categories() []string {
	seen := make(map[string]struct{})
	for i := range r.defs {
		seen[r.defs[i].Category] = struct{}{}
	}
	return sortedKeys(seen)
}

// Tags lists the distinct tags, lower-cased and sorted.
func (r *Registry) Tags() []string {
	seen := make(map[string]struct{})
	for i := range r.defs {
		for _, t := range r.defs[i].Tags {
			seen[strings.ToLower(t)] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
