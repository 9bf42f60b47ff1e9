// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dashflow/internal/rows"
)

// maxErrorBodySize limits how much of a failed response body is read
const maxErrorBodySize = 64 * 1024

// HTTPConfig configures an HTTPExecutor.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	// Headers are added to every request, e.g. an API key.
	Headers map[string]string
}

// HTTPExecutor runs queries through a JSON query endpoint.
//
// Request body: {"query": "...", "params": {...}}.
// Success body: {"data": [...], "totalRows": n, "cached": bool}; "rows" is
// accepted in place of "data". Failure body: {"error": "...", "details": "..."}.
type HTTPExecutor struct {
	url     string
	client  *http.Client
	headers map[string]string
}

// NewHTTPExecutor creates an executor for the endpoint in cfg.
func NewHTTPExecutor(cfg HTTPConfig) *HTTPExecutor {
	return &HTTPExecutor{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		headers: cfg.Headers,
	}
}

type queryResponse struct {
	Data      []rows.RawRow `json:"data"`
	Rows      []rows.RawRow `json:"rows"`
	TotalRows *int          `json:"totalRows"`
	Cached    bool          `json:"cached"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Execute posts the query and decodes the rows. Numbers are decoded as
// json.Number so the normalizer can coerce them without precision loss.
func (e *HTTPExecutor) Execute(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode query request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range e.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Op: "query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var qr queryResponse
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&qr); err != nil {
		return nil, &NetworkError{Op: "decode", StatusCode: resp.StatusCode, Err: err}
	}

	data := qr.Data
	if data == nil {
		data = qr.Rows
	}
	total := len(data)
	if qr.TotalRows != nil {
		total = *qr.TotalRows
	}
	return &Result{Rows: data, TotalRows: total}, nil
}

// Ping checks that the query endpoint answers a plain GET.
func (e *HTTPExecutor) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return &NetworkError{Op: "ping", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
	if resp.StatusCode >= 300 {
		return &NetworkError{Op: "ping", StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	return nil
}

// statusError classifies a non-2xx response. 400 and 422 mean the warehouse
// rejected the statement; every other status is treated as transient.
func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	var er errorResponse
	msg := ""
	if json.Unmarshal(raw, &er) == nil {
		msg = er.Error
		if msg == "" {
			msg = er.Message
		}
	}
	if msg == "" {
		msg = string(bytes.TrimSpace(raw))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &QueryError{Message: msg, Details: er.Details, StatusCode: resp.StatusCode}
	default:
		return &NetworkError{Op: "query", StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}
}
