// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package warehouse

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/dashflow/internal/metrics"
)

type rateLimited struct {
	next    Executor
	limiter *rate.Limiter
}

// WithRateLimit delays calls to next so the warehouse sees at most the
// limiter's rate. A caller whose context ends while waiting gets a
// *NetworkError and the reserved slot is returned.
func WithRateLimit(next Executor, limiter *rate.Limiter) Executor {
	return &rateLimited{next: next, limiter: limiter}
}

func (r *rateLimited) Execute(ctx context.Context, req Request) (*Result, error) {
	reservation := r.limiter.Reserve()
	if !reservation.OK() {
		return nil, &NetworkError{Op: "rate limit", Err: errors.New("request exceeds limiter burst")}
	}

	if delay := reservation.Delay(); delay > 0 {
		metrics.WarehouseRateLimitWaits.Inc()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			reservation.Cancel()
			return nil, &NetworkError{Op: "rate limit", Err: ctx.Err()}
		}
	}
	return r.next.Execute(ctx, req)
}
