// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package fetch

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/metrics"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// newBackOff returns the retry schedule: InitialBackoff doubling up to
// MaxBackoff, without jitter, for at most MaxRetries retries.
func (c *Controller) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.Multiplier = 2
	b.MaxInterval = c.cfg.MaxBackoff
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), c.ctx)
}

// execute runs spec's query with retries. Query errors stop immediately.
func (c *Controller) execute(spec Spec) (*warehouse.Result, int, error) {
	attempts := 0
	req := warehouse.Request{Query: spec.Query, Params: spec.Params}

	op := func() (*warehouse.Result, error) {
		attempts++
		ctx := c.ctx
		if c.cfg.QueryTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(c.ctx, c.cfg.QueryTimeout)
			defer cancel()
		}

		res, err := c.exec.Execute(ctx, req)
		if err != nil {
			if warehouse.Classify(err) == warehouse.ClassQuery {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if res == nil {
			res = &warehouse.Result{}
		}
		return res, nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.FetchRetries.Inc()
		logging.Warn().Err(err).Str("chart", spec.ID).Int("attempt", attempts).Dur("retry_in", wait).Msg("Query attempt failed, retrying")
	}

	res, err := backoff.RetryNotifyWithData(op, c.newBackOff(), notify)
	return res, attempts, err
}
