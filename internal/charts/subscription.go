// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package charts

import (
	"github.com/tomtom215/dashflow/internal/fetch"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/pipeline"
)

// SeriesUpdate is one refresh outcome delivered to a SeriesSubscription.
// Exactly one of Result and Err is set. Err is an *EmptyResultError when the
// refresh produced no points.
type SeriesUpdate struct {
	ChartID string
	Result  *SeriesResult
	Err     error
}

// State names the update for consumers that render states.
func (u SeriesUpdate) State() string {
	switch {
	case u.Err == nil:
		return StateReady
	case IsEmptyResult(u.Err):
		return StateEmpty
	default:
		return StateError
	}
}

// SeriesSubscription follows one chart and yields its recomputed series after
// every completed refresh of the chart's query.
type SeriesSubscription struct {
	sub     *fetch.Subscription
	updates chan SeriesUpdate
	done    chan struct{}
}

// Subscribe attaches to chart id with the given selection. The current
// series, if the chart's query has completed before, is delivered first.
// The chart's query is polled at its refresh interval until Close.
func (s *Service) Subscribe(id string, sel pipeline.Selection) (*SeriesSubscription, error) {
	def, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.Build(def.Options, sel)
	if err != nil {
		return nil, err
	}
	sub, err := s.fetcher.Subscribe(def.FetchSpec(s.cfg.Dataset, s.cfg.MaxRows))
	if err != nil {
		return nil, err
	}

	ss := &SeriesSubscription{
		sub:     sub,
		updates: make(chan SeriesUpdate, 1),
		done:    make(chan struct{}),
	}
	go ss.run(s, &def, p, sel)
	return ss, nil
}

// Updates yields series updates. Only the latest undelivered update is kept.
// The channel is closed after Close.
func (ss *SeriesSubscription) Updates() <-chan SeriesUpdate {
	return ss.updates
}

// Close detaches from the chart's query and waits for the delivery loop to
// finish. It is safe to call more than once.
func (ss *SeriesSubscription) Close() {
	ss.sub.Close()
	<-ss.done
}

func (ss *SeriesSubscription) run(s *Service, def *Definition, p *pipeline.Pipeline, sel pipeline.Selection) {
	defer close(ss.done)
	defer close(ss.updates)

	log := logging.ForQuery(def.ID, ss.sub.Key())
	for entry := range ss.sub.Updates() {
		update := SeriesUpdate{ChartID: def.ID}
		switch entry.State {
		case fetch.StateReady:
			update.Result, update.Err = s.derive(&log, def, p, sel, entry)
		case fetch.StateError:
			update.Err = entry.Err
		default:
			continue
		}
		ss.deliver(update)
	}
}

// deliver replaces any pending update. run is the only sender, so the send
// never blocks.
func (ss *SeriesSubscription) deliver(u SeriesUpdate) {
	select {
	case <-ss.updates:
	default:
	}
	ss.updates <- u
}
