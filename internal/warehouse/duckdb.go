// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/rows"
)

// DuckDBConfig configures a DuckDBExecutor.
type DuckDBConfig struct {
	// Path is the database file. Empty opens an in-memory database.
	Path     string
	Threads  int
	ReadOnly bool
}

// DuckDBExecutor runs queries against a DuckDB database.
type DuckDBExecutor struct {
	conn *sql.DB
}

// NewDuckDBExecutor opens the database described by cfg.
func NewDuckDBExecutor(cfg DuckDBConfig) (*DuckDBExecutor, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	accessMode := "read_write"
	if cfg.ReadOnly && cfg.Path != "" {
		accessMode = "read_only"
	}

	// Auto-install is disabled so a query never blocks on an extension download.
	connStr := fmt.Sprintf("%s?access_mode=%s&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, accessMode, threads)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logging.Info().Str("path", path).Str("access_mode", accessMode).Int("threads", threads).Msg("DuckDB warehouse opened")
	return &DuckDBExecutor{conn: conn}, nil
}

// DB exposes the underlying handle, mainly for seeding data in tests.
func (e *DuckDBExecutor) DB() *sql.DB {
	return e.conn
}

// Close releases the database.
func (e *DuckDBExecutor) Close() error {
	return e.conn.Close()
}

// Ping verifies the database is reachable.
func (e *DuckDBExecutor) Ping(ctx context.Context) error {
	if err := e.conn.PingContext(ctx); err != nil {
		return &NetworkError{Op: "ping", Err: err}
	}
	return nil
}

// Execute runs the query. Params bind to $name placeholders.
func (e *DuckDBExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	sqlRows, err := e.conn.QueryContext(ctx, req.Query, namedArgs(req.Params)...)
	if err != nil {
		return nil, classifyDuckDB(ctx, err)
	}
	defer sqlRows.Close()

	columns, err := sqlRows.Columns()
	if err != nil {
		return nil, classifyDuckDB(ctx, err)
	}

	var out []rows.RawRow
	for sqlRows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := sqlRows.Scan(ptrs...); err != nil {
			return nil, classifyDuckDB(ctx, err)
		}
		raw := make(rows.RawRow, len(columns))
		for i, col := range columns {
			raw[col] = values[i]
		}
		out = append(out, raw)
	}
	if err := sqlRows.Err(); err != nil {
		return nil, classifyDuckDB(ctx, err)
	}

	return &Result{Rows: out, TotalRows: len(out)}, nil
}

// namedArgs binds params in a stable order.
func namedArgs(params map[string]any) []any {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, len(names))
	for i, name := range names {
		args[i] = sql.Named(name, params[name])
	}
	return args
}

// classifyDuckDB separates statement errors from connectivity problems.
func classifyDuckDB(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &NetworkError{Op: "query", Err: err}
	}
	var de *duckdb.Error
	if errors.As(err, &de) {
		switch de.Type {
		case duckdb.ErrorTypeConnection, duckdb.ErrorTypeNetwork, duckdb.ErrorTypeIO, duckdb.ErrorTypeInterrupt:
			return &NetworkError{Op: "query", Err: err}
		default:
			return &QueryError{Message: de.Msg, Err: err}
		}
	}
	return &NetworkError{Op: "query", Err: err}
}
