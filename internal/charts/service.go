// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/dashflow/internal/cache"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/metrics"
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/rows"
)

// Series states.
const (
	StateReady = "ready"
	StateEmpty = "empty"
	StateError = "error"
)

// Fetcher is the part of fetch.Controller the service depends on.
type Fetcher interface {
	Request(ctx context.Context, spec fetch.Spec) (*fetch.Entry, error)
	Refetch(ctx context.Context, spec fetch.Spec) (*fetch.Entry, error)
	Subscribe(spec fetch.Spec) (*fetch.Subscription, error)
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Dataset replaces DatasetPlaceholder in chart queries.
	Dataset string
	// MaxRows caps view-only chart queries.
	MaxRows int
	// SeriesCacheTTL bounds how long a derived series is memoized.
	SeriesCacheTTL time.Duration
}

// DefaultServiceConfig returns the service defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Dataset:        "main",
		MaxRows:        1000,
		SeriesCacheTTL: 10 * time.Minute,
	}
}

// SeriesResult is a derived, render-ready series.
type SeriesResult struct {
	ChartID  string             `json:"chartId"`
	State    string             `json:"state"`
	Points   []pipeline.Point   `json:"points"`
	Trend    *pipeline.TrendFit `json:"trend,omitempty"`
	Delta    *float64           `json:"delta,omitempty"`
	Warnings pipeline.Warnings  `json:"warnings,omitempty"`

	RowsFetched int       `json:"rowsFetched"`
	Truncated   bool      `json:"truncated"`
	FetchedAt   time.Time `json:"fetchedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Cached      bool      `json:"cached"`
}

// Service derives chart series from fetched query results.
type Service struct {
	registry    *Registry
	fetcher     Fetcher
	cfg         ServiceConfig
	series      *cache.Cache
	normalizers map[string]*rows.Normalizer
}

// NewService builds a Service over registry. Every chart's normalizer is
// built up front; the service holds no mutable state besides its cache.
func NewService(registry *Registry, fetcher Fetcher, cfg ServiceConfig) *Service {
	if cfg.SeriesCacheTTL <= 0 {
		cfg.SeriesCacheTTL = DefaultServiceConfig().SeriesCacheTTL
	}
	s := &Service{
		registry:    registry,
		fetcher:     fetcher,
		cfg:         cfg,
		series:      cache.New(cfg.SeriesCacheTTL),
		normalizers: make(map[string]*rows.Normalizer, registry.Len()),
	}
	for _, d := range registry.All() {
		s.normalizers[d.ID] = rows.NewNormalizer(d.Schema)
	}
	return s
}

// Close releases the series cache.
func (s *Service) Close() {
	s.series.Close()
}

// Registry returns the chart catalogue the service serves.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Spec returns the fetch spec of chart id.
func (s *Service) Spec(id string) (fetch.Spec, error) {
	def, err := s.lookup(id)
	if err != nil {
		return fetch.Spec{}, err
	}
	return def.FetchSpec(s.cfg.Dataset, s.cfg.MaxRows), nil
}

// Series returns chart id's series for sel, fetching only when the chart's
// query has no fresh result. A derivation with no points returns an
// *EmptyResultError.
func (s *Service) Series(ctx context.Context, id string, sel pipeline.Selection) (*SeriesResult, error) {
	return s.resolve(ctx, id, sel, s.fetcher.Request)
}

// Refetch re-runs chart id's query regardless of freshness and returns the
// new series.
func (s *Service) Refetch(ctx context.Context, id string, sel pipeline.Selection) (*SeriesResult, error) {
	return s.resolve(ctx, id, sel, s.fetcher.Refetch)
}

type fetchFunc func(ctx context.Context, spec fetch.Spec) (*fetch.Entry, error)

func (s *Service) resolve(ctx context.Context, id string, sel pipeline.Selection, fetchFn fetchFunc) (*SeriesResult, error) {
	def, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.Build(def.Options, sel)
	if err != nil {
		return nil, err
	}

	entry, err := fetchFn(ctx, def.FetchSpec(s.cfg.Dataset, s.cfg.MaxRows))
	if err != nil {
		return nil, err
	}
	return s.derive(logging.Ctx(ctx), &def, p, sel, entry)
}

func (s *Service) lookup(id string) (Definition, error) {
	def, ok := s.registry.Get(id)
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return def, nil
}

// derivation is one memoized pipeline outcome: a result or an
// *EmptyResultError.
type derivation struct {
	result *SeriesResult
	err    error
}

func (d derivation) served(cached bool) (*SeriesResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	res := *d.result
	res.Cached = cached
	return &res, nil
}

// derive normalizes entry's rows and runs the chart pipeline over them,
// reusing an earlier derivation of the same fetch and selection.
func (s *Service) derive(log *zerolog.Logger, def *Definition, p *pipeline.Pipeline, sel pipeline.Selection, entry *fetch.Entry) (*SeriesResult, error) {
	key := seriesKey(def.ID, entry, sel)
	if v, ok := s.series.Get(key); ok {
		metrics.RecordSeriesCache(true)
		return v.(derivation).served(true)
	}
	metrics.RecordSeriesCache(false)

	start := time.Now()
	canonical, issues := s.normalizer(def).Rows(entry.Rows)
	if len(issues) > 0 {
		for _, issue := range issues {
			metrics.RecordNormalizerIssue(def.ID, issue.Reason)
		}
		log.Warn().Str("chart", def.ID).Int("issues", len(issues)).Str("first", issues[0].String()).
			Msg("Rows contained values that could not be normalized")
	}

	res := p.Run(canonical)
	metrics.RecordPipelineRun(def.ID, time.Since(start))
	if len(res.Warnings) > 0 {
		for k, n := range res.Warnings.CountByKind() {
			metrics.RecordPipelineWarnings(def.ID, k[0], k[1], n)
		}
		log.Warn().Str("chart", def.ID).Int("warnings", len(res.Warnings)).Str("first", res.Warnings[0].String()).
			Msg("Pipeline reported data quality warnings")
	}

	var d derivation
	if len(res.Points) == 0 {
		d.err = &EmptyResultError{ChartID: def.ID, RowsFetched: len(entry.Rows), FetchedAt: entry.FetchedAt}
	} else {
		d.result = &SeriesResult{
			ChartID:     def.ID,
			State:       StateReady,
			Points:      res.Points,
			Trend:       res.Trend,
			Delta:       delta(res.Points),
			Warnings:    res.Warnings,
			RowsFetched: len(entry.Rows),
			Truncated:   entry.Truncated,
			FetchedAt:   entry.FetchedAt,
			ExpiresAt:   entry.ExpiresAt,
		}
	}
	s.series.Set(key, d)

	log.Debug().Str("chart", def.ID).Int("rows", len(entry.Rows)).Int("points", len(res.Points)).
		Dur("duration", time.Since(start)).Msg("Series derived")
	return d.served(false)
}

func (s *Service) normalizer(def *Definition) *rows.Normalizer {
	if n, ok := s.normalizers[def.ID]; ok {
		return n
	}
	return rows.NewNormalizer(def.Schema)
}

// seriesKey identifies a derivation by chart, fetch and selection. Selected
// values are sorted so equivalent selections share a key.
func seriesKey(chartID string, entry *fetch.Entry, sel pipeline.Selection) string {
	normalized := make(map[string][]string, len(sel))
	for field, values := range sel {
		if len(values) == 0 {
			continue
		}
		sorted := slices.Clone(values)
		slices.Sort(sorted)
		normalized[field] = sorted
	}
	return cache.GenerateKey("series", struct {
		Chart     string              `json:"chart"`
		QueryKey  string              `json:"query_key"`
		FetchedAt int64               `json:"fetched_at"`
		Selection map[string][]string `json:"selection"`
	}{chartID, entry.Key, entry.FetchedAt.UnixNano(), normalized})
}

// delta is the change of the primary value from the first point to the last.
func delta(points []pipeline.Point) *float64 {
	if len(points) < 2 {
		return nil
	}
	first, last := points[0].PrimaryValue, points[len(points)-1].PrimaryValue
	if first == nil || last == nil {
		return nil
	}
	d := pipeline.Round1(*last - *first)
	return &d
}
