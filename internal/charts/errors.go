// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned for chart ids missing from the registry.
	ErrNotFound = errors.New("chart not found")

	// ErrDuplicateChart is returned by NewRegistry when two definitions share an id.
	ErrDuplicateChart = errors.New("duplicate chart id")
)

// EmptyResultError reports a derivation that left no points. It is a state,
// not a failure: the warehouse answered, there is just nothing to draw.
type EmptyResultError struct {
	ChartID     string
	RowsFetched int
	FetchedAt   time.Time
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("chart %s: no data (%d rows fetched)", e.ChartID, e.RowsFetched)
}

// IsEmptyResult reports whether err is or wraps an EmptyResultError.
func IsEmptyResult(err error) bool {
	var empty *EmptyResultError
	return errors.As(err, &empty)
}
