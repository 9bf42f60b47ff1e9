// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/rows"
	"github.com/tomtom215/dashflow/internal/validation"
)

// DatasetPlaceholder is replaced by the configured warehouse dataset in
// chart queries.
const DatasetPlaceholder = "{{dataset}}"

// Definition is one entry of the chart catalogue.
type Definition struct {
	ID          string   `koanf:"id" json:"id" validate:"required,max=64,chartid"`
	Name        string   `koanf:"name" json:"name" validate:"required,max=200"`
	Description string   `koanf:"description" json:"description,omitempty" validate:"max=1000"`
	Category    string   `koanf:"category" json:"category" validate:"required,max=64"`
	Tags        []string `koanf:"tags" json:"tags,omitempty" validate:"max=20,dive,required,max=32"`
	Methodology string   `koanf:"methodology" json:"methodology,omitempty"`

	// Query is an opaque statement for the executor. When it is empty the
	// chart reads every column of View.
	Query                  string `koanf:"query" json:"-" validate:"required_without=View"`
	View                   string `koanf:"view" json:"view,omitempty" validate:"required_without=Query,max=128,identifier"`
	RefreshIntervalSeconds int    `koanf:"refresh_interval_seconds" json:"refreshIntervalSeconds,omitempty" validate:"gte=0,lte=604800"`

	Schema  rows.Schema      `koanf:"schema" json:"schema"`
	Options pipeline.Options `koanf:"options" json:"options"`
}

// Validate checks the definition's fields and that its options form a pipeline.
func (d *Definition) Validate() error {
	if verr := validation.ValidateStruct(d); verr != nil {
		return fmt.Errorf("chart %q: %w", d.ID, verr)
	}
	if err := d.Options.Check(); err != nil {
		return fmt.Errorf("chart %q: %w", d.ID, err)
	}
	return nil
}

// RefreshInterval returns the polling interval, zero when the chart is not
// refreshed automatically.
func (d *Definition) RefreshInterval() time.Duration {
	return time.Duration(d.RefreshIntervalSeconds) * time.Second
}

// Statement renders the query sent to the warehouse. A view-only chart
// selects every column of the view, capped at maxRows.
func (d *Definition) Statement(dataset string, maxRows int) string {
	query := d.Query
	if strings.TrimSpace(query) == "" {
		query = fmt.Sprintf("SELECT * FROM %s.%s", DatasetPlaceholder, d.View)
		if maxRows > 0 {
			query = fmt.Sprintf("%s LIMIT %d", query, maxRows)
		}
	}
	return strings.ReplaceAll(query, DatasetPlaceholder, dataset)
}

// FetchSpec returns the fetch request for the chart.
func (d *Definition) FetchSpec(dataset string, maxRows int) fetch.Spec {
	return fetch.Spec{
		ID:              d.ID,
		Query:           d.Statement(dataset, maxRows),
		RefreshInterval: d.RefreshInterval(),
	}
}

// matches reports whether text occurs in the name, description, id or tags.
func (d *Definition) matches(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(d.ID), text) ||
		strings.Contains(strings.ToLower(d.Name), text) ||
		strings.Contains(strings.ToLower(d.Description), text) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), text) {
			return true
		}
	}
	return false
}

func (d *Definition) hasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
