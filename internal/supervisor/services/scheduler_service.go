// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package services

import (
	"context"

	"github.com/tomtom215/dashflow/internal/logging"
)

// Scheduler is the poll scheduler lifecycle of *fetch.Controller. Start
// returns immediately; Stop blocks until running polls have returned.
type Scheduler interface {
	Start()
	Stop()
}

// RefreshSchedulerService runs the fetch controller's poll scheduler under
// a supervisor. Subscriptions made while the service is stopped keep their
// schedules and resume polling when it starts again.
type RefreshSchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewRefreshSchedulerService creates a new scheduler service.
func NewRefreshSchedulerService(scheduler Scheduler) *RefreshSchedulerService {
	return &RefreshSchedulerService{
		scheduler: scheduler,
		name:      "refresh-scheduler",
	}
}

// Serve implements suture.Service.
func (s *RefreshSchedulerService) Serve(ctx context.Context) error {
	s.scheduler.Start()
	logging.Debug().Str("service", s.name).Msg("Refresh scheduler started")

	<-ctx.Done()

	s.scheduler.Stop()
	logging.Debug().Str("service", s.name).Msg("Refresh scheduler stopped")
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *RefreshSchedulerService) String() string {
	return s.name
}
