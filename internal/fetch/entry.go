// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package fetch

import (
	"time"

	"github.com/tomtom215/dashflow/internal/cache"
	"github.com/tomtom215/dashflow/internal/rows"
)

// State is the lifecycle state of a query key.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Spec describes one query a consumer wants kept fresh.
type Spec struct {
	// ID names the consumer (a chart id) in logs.
	ID              string
	Query           string
	Params          map[string]any
	RefreshInterval time.Duration
}

// Key is the query key: equal queries with equal params share it regardless
// of which consumer asked.
func (s Spec) Key() string {
	return cache.GenerateKey("query", struct {
		Query  string         `json:"query"`
		Params map[string]any `json:"params"`
	}{s.Query, s.Params})
}

// Entry is an immutable snapshot of a query key's state.
type Entry struct {
	Key       string
	State     State
	Rows      []rows.RawRow
	TotalRows int
	Truncated bool
	// FetchedAt is when Rows were received. Zero if no fetch has succeeded.
	FetchedAt time.Time
	ExpiresAt time.Time
	// Err is the last failure; set only in StateError.
	Err      error
	Attempts int
}

// Fresh reports whether the entry may be served without a fetch.
func (e *Entry) Fresh(now time.Time) bool {
	return e != nil && e.State == StateReady && now.Before(e.ExpiresAt)
}

func (e *Entry) clone() *Entry {
	if e == nil {
		return &Entry{}
	}
	cp := *e
	return &cp
}
