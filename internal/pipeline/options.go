// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Aggregations available to a chart.
const (
	AggregateNone            = ""
	AggregateWeightedAverage = "weighted_average"
	AggregatePercentileBands = "percentile_bands"
	AggregateSum             = "sum"
)

// ErrInvalidOptions is returned by Build for options that cannot form a pipeline.
var ErrInvalidOptions = errors.New("invalid pipeline options")

// SelectionError reports filter selections on fields a chart does not expose.
type SelectionError struct {
	Fields []string
}

func (e *SelectionError) Error() string {
	return "fields are not filterable: " + strings.Join(e.Fields, ", ")
}

// RatioOptions configures RatioDerivation.
type RatioOptions struct {
	A   string `koanf:"a" json:"a" validate:"required"`
	B   string `koanf:"b" json:"b" validate:"required"`
	Out string `koanf:"out" json:"out" validate:"required"`
}

// Options is the declarative pipeline configuration of a chart.
type Options struct {
	GroupByField string   `koanf:"group_by_field" json:"groupByField,omitempty"`
	Aggregate    string   `koanf:"aggregate" json:"aggregate,omitempty" validate:"omitempty,oneof=weighted_average percentile_bands sum"`
	ValueField   string   `koanf:"value_field" json:"valueField,omitempty"`
	WeightField  string   `koanf:"weight_field" json:"weightField,omitempty"`
	SumFields    []string `koanf:"sum_fields" json:"sumFields,omitempty"`

	BucketField     string            `koanf:"bucket_field" json:"bucketField,omitempty"`
	BucketLayout    string            `koanf:"bucket_layout" json:"bucketLayout,omitempty"`
	CategoryField   string            `koanf:"category_field" json:"categoryField,omitempty"`
	CategoryColumns map[string]string `koanf:"category_columns" json:"categoryColumns,omitempty"`

	Ratio *RatioOptions `koanf:"ratio" json:"ratio,omitempty"`

	SortField     string `koanf:"sort_field" json:"sortField,omitempty"`
	SortAscending bool   `koanf:"sort_ascending" json:"sortAscending,omitempty"`
	TopN          int    `koanf:"top_n" json:"topN,omitempty" validate:"gte=0"`

	FilterFields []string `koanf:"filter_fields" json:"filterFields,omitempty"`

	MovingAverageWindow int    `koanf:"moving_average_window" json:"movingAverageWindow,omitempty" validate:"gte=0"`
	MovingAverageField  string `koanf:"moving_average_field" json:"movingAverageField,omitempty"`
	MovingAverageOut    string `koanf:"moving_average_out" json:"movingAverageOut,omitempty"`

	TrendEnabled bool   `koanf:"trend_enabled" json:"trendEnabled,omitempty"`
	TrendField   string `koanf:"trend_field" json:"trendField,omitempty"`
	TrendOut     string `koanf:"trend_out" json:"trendOut,omitempty"`

	LabelField     string   `koanf:"label_field" json:"labelField,omitempty"`
	LabelLayout    string   `koanf:"label_layout" json:"labelLayout,omitempty"`
	PrimaryField   string   `koanf:"primary_field" json:"primaryField,omitempty"`
	SecondaryField string   `koanf:"secondary_field" json:"secondaryField,omitempty"`
	LowerField     string   `koanf:"lower_field" json:"lowerField,omitempty"`
	UpperField     string   `koanf:"upper_field" json:"upperField,omitempty"`
	MetadataFields []string `koanf:"metadata_fields" json:"metadataFields,omitempty"`
}

// Check reports combinations of options that cannot be built.
func (o Options) Check() error {
	switch o.Aggregate {
	case AggregateNone:
	case AggregateWeightedAverage:
		if o.ValueField == "" || o.WeightField == "" {
			return fmt.Errorf("%w: weighted_average needs value_field and weight_field", ErrInvalidOptions)
		}
	case AggregatePercentileBands:
		if o.ValueField == "" {
			return fmt.Errorf("%w: percentile_bands needs value_field", ErrInvalidOptions)
		}
	case AggregateSum:
		if len(o.SumFields) == 0 {
			return fmt.Errorf("%w: sum needs sum_fields", ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: unknown aggregate %q", ErrInvalidOptions, o.Aggregate)
	}

	if (o.BucketField == "") != (o.CategoryField == "") {
		return fmt.Errorf("%w: bucket_field and category_field must be set together", ErrInvalidOptions)
	}
	if o.BucketField != "" && o.ValueField == "" {
		return fmt.Errorf("%w: time bucket alignment needs value_field", ErrInvalidOptions)
	}
	if o.MovingAverageWindow > 0 && o.movingAverageField() == "" {
		return fmt.Errorf("%w: moving average needs a field", ErrInvalidOptions)
	}
	if o.TrendEnabled && o.trendField() == "" {
		return fmt.Errorf("%w: trend needs a field", ErrInvalidOptions)
	}
	if o.TopN < 0 || o.MovingAverageWindow < 0 {
		return fmt.Errorf("%w: top_n and moving_average_window must not be negative", ErrInvalidOptions)
	}
	return nil
}

func (o Options) movingAverageField() string {
	if o.MovingAverageField != "" {
		return o.MovingAverageField
	}
	return o.ValueField
}

func (o Options) trendField() string {
	if o.TrendField != "" {
		return o.TrendField
	}
	return o.ValueField
}

// Projection returns the projection described by the options. Percentile
// band charts default to the median with an interquartile band.
func (o Options) Projection() Projection {
	p := Projection{
		Label:       o.LabelField,
		LabelLayout: o.LabelLayout,
		Primary:     o.PrimaryField,
		Secondary:   o.SecondaryField,
		Lower:       o.LowerField,
		Upper:       o.UpperField,
		Metadata:    o.MetadataFields,
	}
	if p.Label == "" {
		switch {
		case o.BucketField != "":
			p.Label = o.BucketField
		case o.GroupByField != "":
			p.Label = o.GroupByField
		}
	}
	if o.Aggregate == AggregatePercentileBands {
		if p.Primary == "" {
			p.Primary = FieldP50
		}
		if p.Lower == "" && p.Upper == "" {
			p.Lower, p.Upper = FieldP25, FieldP75
		}
	}
	if p.Primary == "" {
		p.Primary = o.ValueField
	}
	return p
}

// Build composes the pipeline for o with the consumer's filter selection, in
// the fixed order filter, time bucket alignment, group and aggregate, ratio,
// sort and top-N, moving average, linear trend.
func Build(o Options, sel Selection) (*Pipeline, error) {
	if err := o.Check(); err != nil {
		return nil, err
	}
	if err := o.checkSelection(sel); err != nil {
		return nil, err
	}

	var stages []Stage

	if len(sel) > 0 {
		stages = append(stages, FilterPredicate{Selections: sel})
	}

	if o.BucketField != "" {
		stages = append(stages, TimeBucketAlign{
			BucketField: o.BucketField,
			Bucket:      BucketKey(o.BucketField, o.BucketLayout),
			Category:    o.CategoryField,
			Value:       o.ValueField,
			Columns:     o.CategoryColumns,
		})
	}

	if o.Aggregate != AggregateNone {
		if o.GroupByField != "" {
			stages = append(stages, GroupBy{Field: o.GroupByField})
		}
		switch o.Aggregate {
		case AggregateWeightedAverage:
			stages = append(stages, WeightedAverage{Value: o.ValueField, Weight: o.WeightField})
		case AggregatePercentileBands:
			stages = append(stages, PercentileBands{Field: o.ValueField})
		case AggregateSum:
			stages = append(stages, SumFields{Fields: o.SumFields})
		}
	}

	if o.Ratio != nil {
		stages = append(stages, RatioDerivation{A: o.Ratio.A, B: o.Ratio.B, Out: o.Ratio.Out})
	}

	if o.SortField != "" || o.TopN > 0 {
		var compare CompareFunc
		if o.SortField != "" {
			compare = ByField(o.SortField)
			if o.SortAscending {
				compare = Reverse(compare)
			}
		}
		stages = append(stages, SortAndTopN{Compare: compare, N: o.TopN})
	}

	if o.MovingAverageWindow > 0 {
		stages = append(stages, MovingAverage{
			Field:  o.movingAverageField(),
			Window: o.MovingAverageWindow,
			Out:    o.MovingAverageOut,
		})
	}

	if o.TrendEnabled {
		stages = append(stages, LinearTrend{Field: o.trendField(), Out: o.TrendOut})
	}

	return New(o.Projection(), stages...), nil
}

func (o Options) checkSelection(sel Selection) error {
	var bad []string
	for field := range sel {
		if !slices.Contains(o.FilterFields, field) {
			bad = append(bad, field)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return &SelectionError{Fields: bad}
}
