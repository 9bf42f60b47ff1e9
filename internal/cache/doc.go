// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package cache provides a thread-safe in-memory cache with TTL support and the
key derivation shared by the fetch and chart layers.

The chart service memoizes derived series here, keyed by chart, filter
selection and the fetch time of the underlying rows, so a series is
recomputed only when its input changes. The fetch controller uses GenerateKey
to turn a query and its parameters into a stable query key.

# Usage Example

	c := cache.New(5 * time.Minute)
	defer c.Close()

	key := cache.GenerateKey("series", map[string]any{"chart": id, "filters": sel})
	if v, ok := c.Get(key); ok {
	    return v.(*SeriesResult), nil
	}
	c.Set(key, result)

# Thread Safety

All methods are safe for concurrent use. Expired entries are dropped lazily on
Get and swept by a background goroutine that stops on Close.
*/
package cache
