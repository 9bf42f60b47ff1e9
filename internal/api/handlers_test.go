// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/pipeline"
	"github.com/tomtom215/dashflow/internal/rows"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// stubWarehouse answers every query with the rows currently set on it.
type stubWarehouse struct {
	mu    sync.Mutex
	rows  []rows.RawRow
	err   error
	calls atomic.Int32
}

func (w *stubWarehouse) set(raws []rows.RawRow, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows, w.err = raws, err
}

func (w *stubWarehouse) Execute(_ context.Context, _ warehouse.Request) (*warehouse.Result, error) {
	w.calls.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return nil, w.err
	}
	return &warehouse.Result{Rows: w.rows, TotalRows: len(w.rows)}, nil
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func jobsByState() charts.Definition {
	return charts.Definition{
		ID:       "jobs-by-state",
		Name:     "Where Are the Jobs?",
		Category: charts.CategoryTrends,
		Tags:     []string{"jobs", "geography"},
		View:     "jobs_by_state",
		Schema:   rows.Schema{Numeric: []string{"job_count"}},
		Options: pipeline.Options{
			FilterFields: []string{"state"},
			SortField:    "job_count",
			LabelField:   "state",
			PrimaryField: "job_count",
		},
	}
}

func salaryBands() charts.Definition {
	return charts.Definition{
		ID:       "salary-bands",
		Name:     "Salary Bands",
		Category: charts.CategorySalaries,
		Tags:     []string{"salaries"},
		View:     "salary_bands",
		Schema:   rows.Schema{Numeric: []string{"job_count"}},
		Options:  pipeline.Options{LabelField: "band", PrimaryField: "job_count"},
	}
}

func stateRows() []rows.RawRow {
	return []rows.RawRow{
		{"state": "NY", "job_count": 5},
		{"state": "CA", "job_count": "10"},
	}
}

type testEnv struct {
	server     http.Handler
	warehouse  *stubWarehouse
	controller *fetch.Controller
	service    *charts.Service
	handler    *Handler
}

type envOptions struct {
	pinger      Pinger
	corsOrigins []string
	rateLimit   int
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	reg, err := charts.NewRegistry(jobsByState(), salaryBands())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	w := &stubWarehouse{}
	w.set(stateRows(), nil)

	cfg := fetch.DefaultConfig()
	cfg.MaxRetries = 0
	cfg.InitialBackoff = time.Millisecond
	cfg.QueryTimeout = time.Second
	ctrl := fetch.NewController(w, cfg)
	t.Cleanup(ctrl.Close)

	svc := charts.NewService(reg, ctrl, charts.ServiceConfig{Dataset: "analytics", MaxRows: 100})
	t.Cleanup(svc.Close)

	if opts.corsOrigins == nil {
		opts.corsOrigins = []string{"*"}
	}
	h := NewHandler(svc, opts.pinger, HandlerConfig{CORSOrigins: opts.corsOrigins, Version: "test"})

	mwCfg := NewChiMiddlewareConfig(opts.corsOrigins, opts.rateLimit, time.Minute, opts.rateLimit == 0)
	router := NewRouter(h, NewChiMiddleware(mwCfg))

	return &testEnv{server: router.SetupChi(), warehouse: w, controller: ctrl, service: svc, handler: h}
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func (e *testEnv) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode body %q: %v", method, target, rec.Body.String(), err)
	}
	return rec, env
}

func decodeData[T any](t *testing.T, env testEnvelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return v
}

func TestListCharts(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	tests := []struct {
		name    string
		target  string
		wantIDs []string
	}{
		{"all", "/api/v1/charts", []string{"jobs-by-state", "salary-bands"}},
		{"trailing slash", "/api/v1/charts/", []string{"jobs-by-state", "salary-bands"}},
		{"category", "/api/v1/charts?category=salaries", []string{"salary-bands"}},
		{"tag", "/api/v1/charts?tag=GEOGRAPHY", []string{"jobs-by-state"}},
		{"text", "/api/v1/charts?q=where", []string{"jobs-by-state"}},
		{"no match", "/api/v1/charts?category=skills", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, env := e.do(t, http.MethodGet, tt.target)
			if rec.Code != http.StatusOK || !env.Success {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			defs := decodeData[[]charts.Definition](t, env)
			got := make([]string, len(defs))
			for i, d := range defs {
				got[i] = d.ID
			}
			if strings.Join(got, ",") != strings.Join(tt.wantIDs, ",") {
				t.Errorf("ids = %v, want %v", got, tt.wantIDs)
			}
			if env.Meta == nil || env.Meta.Count == nil || *env.Meta.Count != len(tt.wantIDs) {
				t.Errorf("meta = %+v", env.Meta)
			}
		})
	}
}

func TestListCharts_ValidatesQuery(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/charts?tag="+strings.Repeat("x", 33))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestCategoriesAndTags(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	_, env := e.do(t, http.MethodGet, "/api/v1/charts/categories")
	if got := decodeData[[]string](t, env); strings.Join(got, ",") != "salaries,trends" {
		t.Errorf("categories = %v", got)
	}

	_, env = e.do(t, http.MethodGet, "/api/v1/charts/tags")
	if got := decodeData[[]string](t, env); strings.Join(got, ",") != "geography,jobs,salaries" {
		t.Errorf("tags = %v", got)
	}
}

func TestGetChart(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	def := decodeData[charts.Definition](t, env)
	if def.ID != "jobs-by-state" || def.View != "jobs_by_state" {
		t.Errorf("definition = %+v", def)
	}

	rec, env = e.do(t, http.MethodGet, "/api/v1/charts/missing")
	if rec.Code != http.StatusNotFound || env.Error.Code != ErrCodeNotFound {
		t.Errorf("missing chart: status = %d, error = %+v", rec.Code, env.Error)
	}
	if env.Error.RequestID == "" || env.Error.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request id = %q, header = %q", env.Error.RequestID, rec.Header().Get("X-Request-ID"))
	}
}

func TestChartSeries(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/series")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	res := decodeData[charts.SeriesResult](t, env)
	if res.State != charts.StateReady || len(res.Points) != 2 || res.Cached {
		t.Fatalf("result = %+v", res)
	}
	if res.Points[0].Label != "CA" || *res.Points[0].PrimaryValue != 10 {
		t.Errorf("first point = %+v", res.Points[0])
	}

	// The second request reuses the fetch and the derivation.
	_, env = e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/series")
	if res := decodeData[charts.SeriesResult](t, env); !res.Cached {
		t.Error("second request should be served from the series cache")
	}

	_, env = e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/series?filter.state=NY")
	filtered := decodeData[charts.SeriesResult](t, env)
	if len(filtered.Points) != 1 || filtered.Points[0].Label != "NY" {
		t.Errorf("filtered points = %+v", filtered.Points)
	}

	if got := e.warehouse.calls.Load(); got != 1 {
		t.Errorf("warehouse calls = %d, want 1", got)
	}
}

func TestChartSeries_Empty(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/series?filter.state=TX")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	res := decodeData[charts.SeriesResult](t, env)
	if res.State != charts.StateEmpty || res.Points == nil || len(res.Points) != 0 || res.RowsFetched != 2 {
		t.Errorf("result = %+v", res)
	}
	if !strings.Contains(rec.Body.String(), `"points":[]`) {
		t.Errorf("empty series should render an empty points array: %s", rec.Body.String())
	}
}

func TestChartSeries_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		whErr      error
		wantStatus int
		wantCode   string
	}{
		{"unknown chart", "/api/v1/charts/missing/series", nil, http.StatusNotFound, ErrCodeNotFound},
		{"undeclared filter", "/api/v1/charts/jobs-by-state/series?filter.city=Austin", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"empty filter name", "/api/v1/charts/jobs-by-state/series?filter.=CA", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"query rejected", "/api/v1/charts/jobs-by-state/series", &warehouse.QueryError{Message: "column not found"}, http.StatusBadGateway, ErrCodeQueryError},
		{"warehouse down", "/api/v1/charts/jobs-by-state/series", &warehouse.NetworkError{Op: "query", Err: errors.New("connection refused")}, http.StatusServiceUnavailable, ErrCodeExternalServiceFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newTestEnv(t, envOptions{})
			if tt.whErr != nil {
				e.warehouse.set(nil, tt.whErr)
			}

			rec, env := e.do(t, http.MethodGet, tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestRefetchChart(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/series")
	e.warehouse.set([]rows.RawRow{{"state": "WA", "job_count": 7}}, nil)

	rec, env := e.do(t, http.MethodPost, "/api/v1/charts/jobs-by-state/refetch")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	res := decodeData[charts.SeriesResult](t, env)
	if len(res.Points) != 1 || res.Points[0].Label != "WA" {
		t.Errorf("points = %+v", res.Points)
	}
	if got := e.warehouse.calls.Load(); got != 2 {
		t.Errorf("warehouse calls = %d, want 2", got)
	}

	rec, env = e.do(t, http.MethodGet, "/api/v1/charts/jobs-by-state/refetch")
	if rec.Code != http.StatusMethodNotAllowed || env.Error.Code != ErrCodeMethodNotAllowed {
		t.Errorf("GET refetch: status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	var down atomic.Bool
	e := newTestEnv(t, envOptions{pinger: pingerFunc(func(context.Context) error {
		if down.Load() {
			return errors.New("connection refused")
		}
		return nil
	})})

	rec, _ := e.do(t, http.MethodGet, "/api/v1/health/live")
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}

	rec, env := e.do(t, http.MethodGet, "/api/v1/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, body = %s", rec.Code, rec.Body.String())
	}
	status := decodeData[map[string]interface{}](t, env)
	if status["warehouse"] != "ok" || status["charts"] != float64(2) {
		t.Errorf("ready status = %v", status)
	}

	down.Store(true)
	rec, env = e.do(t, http.MethodGet, "/api/v1/health/ready")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("ready while down: status = %d, error = %+v", rec.Code, env.Error)
	}

	// Liveness does not depend on the warehouse.
	if rec, _ := e.do(t, http.MethodGet, "/api/v1/health/live"); rec.Code != http.StatusOK {
		t.Errorf("live while down: status = %d", rec.Code)
	}
}

func TestHealthReady_WithoutPinger(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v1/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if status := decodeData[map[string]interface{}](t, env); status["warehouse"] != "not_checked" {
		t.Errorf("status = %v", status)
	}
}

func TestRouter_NotFound(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	rec, env := e.do(t, http.MethodGet, "/api/v2/nothing")
	if rec.Code != http.StatusNotFound || env.Error.Code != ErrCodeNotFound {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	e.do(t, http.MethodGet, "/api/v1/charts")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "api_requests_total") {
		t.Error("metrics output missing API request counter")
	}
}

func TestRouter_CompressesChartResponses(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t, envOptions{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/charts", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", rec.Header().Get("Content-Encoding"))
	}
}
