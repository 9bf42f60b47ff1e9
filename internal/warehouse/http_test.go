// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newTestServer(t *testing.T, status int, body string, check func(*http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPExecutor_Success(t *testing.T) {
	t.Parallel()

	var got Request
	srv := newTestServer(t, http.StatusOK,
		`{"data":[{"month":{"value":"2025-04-01"},"avg_salary":230000.5}],"totalRows":7,"cached":false}`,
		func(r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if r.Header.Get("X-Api-Key") != "secret" {
				t.Errorf("missing configured header")
			}
			_ = json.NewDecoder(r.Body).Decode(&got)
		})

	exec := NewHTTPExecutor(HTTPConfig{URL: srv.URL, Timeout: 5 * time.Second, Headers: map[string]string{"X-Api-Key": "secret"}})
	res, err := exec.Execute(context.Background(), Request{Query: "SELECT 1", Params: map[string]any{"state": "CA"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got.Query != "SELECT 1" || got.Params["state"] != "CA" {
		t.Errorf("request body = %+v", got)
	}
	if res.TotalRows != 7 || len(res.Rows) != 1 {
		t.Fatalf("result = %+v", res)
	}
	num, ok := res.Rows[0]["avg_salary"].(json.Number)
	if !ok || num.String() != "230000.5" {
		t.Errorf("avg_salary = %#v, want json.Number", res.Rows[0]["avg_salary"])
	}
	boxed, ok := res.Rows[0]["month"].(map[string]any)
	if !ok || boxed["value"] != "2025-04-01" {
		t.Errorf("month = %#v, want boxed value", res.Rows[0]["month"])
	}
}

func TestHTTPExecutor_RowsFieldAndMissingTotal(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, `{"rows":[{"a":1},{"a":2}]}`, nil)
	res, err := NewHTTPExecutor(HTTPConfig{URL: srv.URL}).Execute(context.Background(), Request{Query: "q"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Rows) != 2 || res.TotalRows != 2 {
		t.Errorf("result = %+v", res)
	}
}

func TestHTTPExecutor_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		want    Class
		message string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"Query is required"}`, ClassQuery, "Query is required"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"error":"Syntax error","details":"line 1"}`, ClassQuery, "Syntax error"},
		{"server error", http.StatusInternalServerError, `{"error":"Failed to execute query"}`, ClassNetwork, ""},
		{"unavailable", http.StatusServiceUnavailable, `upstream down`, ClassNetwork, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, tt.status, tt.body, nil)
			_, err := NewHTTPExecutor(HTTPConfig{URL: srv.URL}).Execute(context.Background(), Request{Query: "q"})
			if got := Classify(err); got != tt.want {
				t.Fatalf("Classify(%v) = %v, want %v", err, got, tt.want)
			}
			var qe *QueryError
			if tt.message != "" && (!errors.As(err, &qe) || qe.Message != tt.message) {
				t.Errorf("query error = %v, want message %q", err, tt.message)
			}
			var ne *NetworkError
			if tt.want == ClassNetwork && (!errors.As(err, &ne) || ne.StatusCode != tt.status) {
				t.Errorf("network error = %v, want status %d", err, tt.status)
			}
		})
	}
}

func TestHTTPExecutor_Timeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPExecutor(HTTPConfig{URL: srv.URL}).Execute(ctx, Request{Query: "q"})
	if Classify(err) != ClassNetwork {
		t.Fatalf("timeout must be a network error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline in chain, got %v", err)
	}
}

func TestHTTPExecutor_Ping(t *testing.T) {
	t.Parallel()

	ok := newTestServer(t, http.StatusOK, `{"status":"ok"}`, nil)
	if err := NewHTTPExecutor(HTTPConfig{URL: ok.URL}).Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	down := newTestServer(t, http.StatusBadGateway, ``, nil)
	if err := NewHTTPExecutor(HTTPConfig{URL: down.URL}).Ping(context.Background()); err == nil {
		t.Error("expected ping failure")
	}
}
