// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"errors"
	"fmt"
)

// Class is the retry family of an error.
type Class int

const (
	ClassNone Class = iota
	// ClassNetwork errors are transient and may be retried.
	ClassNetwork
	// ClassQuery errors are permanent rejections of the statement.
	ClassQuery
)

func (c Class) String() string {
	switch c {
	case ClassNetwork:
		return "network"
	case ClassQuery:
		return "query"
	default:
		return "none"
	}
}

// NetworkError is a retryable failure to reach or hear back from the warehouse.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("warehouse %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("warehouse %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// QueryError is a permanent rejection of the query by the warehouse.
type QueryError struct {
	Message    string
	Details    string
	StatusCode int
	Err        error
}

func (e *QueryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("query rejected: %s (%s)", e.Message, e.Details)
	}
	return "query rejected: " + e.Message
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsQueryError reports whether err is a permanent query rejection.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

// Classify maps err onto its retry family. Timeouts, transport failures,
// upstream status errors and circuit rejections are network failures, and so
// is anything not recognisably a query rejection.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	if IsQueryError(err) {
		return ClassQuery
	}
	return ClassNetwork
}
