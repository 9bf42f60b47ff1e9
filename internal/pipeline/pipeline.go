// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

// Package pipeline turns canonical rows into render-ready series.
//
// A Pipeline is an ordered list of pure stages followed by a Projection. The
// stage set is fixed: filtering, time-bucket alignment, grouping, weighted
// averages, percentile bands, sums, ratio derivation, sort and top-N, moving
// averages and linear trend fitting. Charts compose them declaratively through
// Options and Build.
//
// Stages are synchronous and deterministic. The same input rows always yield
// the same points in the same order. Data-quality problems never fail a run;
// they are reported as Warnings beside the result.
package pipeline

import "github.com/tomtom215/dashflow/internal/rows"

// Pipeline applies its stages in order and projects the final rows.
type Pipeline struct {
	stages     []Stage
	projection Projection
}

// New builds a pipeline from explicit stages.
func New(projection Projection, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, projection: projection}
}

// Result is the output of a pipeline run.
type Result struct {
	Points   []Point    `json:"points"`
	Rows     []rows.Row `json:"-"`
	Trend    *TrendFit  `json:"trend,omitempty"`
	Warnings Warnings   `json:"warnings,omitempty"`
}

// StageNames lists the stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes the pipeline. Empty input yields an empty result.
func (p *Pipeline) Run(in []rows.Row) Result {
	var warnings Warnings
	frame := Frame{Rows: in}
	for _, s := range p.stages {
		frame = s.Apply(frame, &warnings)
	}
	return Result{
		Points:   p.projection.Project(frame.Rows),
		Rows:     frame.Rows,
		Trend:    frame.Trend,
		Warnings: warnings,
	}
}
