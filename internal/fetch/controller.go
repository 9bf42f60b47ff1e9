// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/metrics"
	"github.com/tomtom215/dashflow/internal/warehouse"
)

// ErrClosed is returned by requests made after Close.
var ErrClosed = errors.New("fetch controller closed")

// Config tunes caching, retry and result limits.
type Config struct {
	// DefaultTTL applies to specs without a refresh interval.
	DefaultTTL     time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// QueryTimeout bounds each executor attempt.
	QueryTimeout time.Duration
	// MaxRows caps the rows kept per entry; zero disables the cap.
	MaxRows int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTTL:     5 * time.Minute,
		MaxRetries:     2,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		QueryTimeout:   60 * time.Second,
		MaxRows:        1000,
	}
}

// slot is the controller's bookkeeping for one query key.
type slot struct {
	spec   Spec
	entry  *Entry
	subs   map[*Subscription]struct{}
	cronID cron.EntryID
	polled bool
}

// Controller mediates every query against the warehouse.
type Controller struct {
	exec  warehouse.Executor
	cfg   Config
	group singleflight.Group
	cron  *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	slots  map[string]*slot
	closed bool
}

// NewController creates a controller on top of exec. Call Start to enable
// polling and Close to release it.
func NewController(exec warehouse.Executor, cfg Config) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		exec:   exec,
		cfg:    cfg,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
		slots:  make(map[string]*slot),
	}
}

// Start runs the poll scheduler.
func (c *Controller) Start() {
	c.cron.Start()
}

// Stop halts the poll scheduler and waits for running polls to return.
func (c *Controller) Stop() {
	<-c.cron.Stop().Done()
}

// Close aborts in-flight executions, stops polling and closes every
// subscription. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var subs []*Subscription
	for _, s := range c.slots {
		for sub := range s.subs {
			subs = append(subs, sub)
		}
	}
	c.mu.Unlock()

	// Running polls wait on c.ctx, so cancel before waiting for them.
	c.cancel()
	c.Stop()

	for _, sub := range subs {
		sub.Close()
	}
}

// Request returns the entry for spec, fetching it unless a fresh Ready entry
// is cached. A failed cycle returns the Error entry together with its error.
func (c *Controller) Request(ctx context.Context, spec Spec) (*Entry, error) {
	key := spec.Key()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if s, ok := c.slots[key]; ok && s.entry.Fresh(time.Now()) {
		entry := s.entry
		c.mu.Unlock()
		metrics.RecordFetch("hit")
		return entry, nil
	}
	c.mu.Unlock()

	metrics.RecordFetch("miss")
	return c.await(ctx, spec, key)
}

// Refetch starts a new cycle for spec regardless of TTL, or joins the one in
// flight.
func (c *Controller) Refetch(ctx context.Context, spec Spec) (*Entry, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	metrics.RecordFetch("refetch")
	return c.await(ctx, spec, spec.Key())
}

// await joins or starts the shared execution for key and waits for it or for
// ctx, whichever ends first.
func (c *Controller) await(ctx context.Context, spec Spec, key string) (*Entry, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(spec, key), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.RecordFetch("coalesced")
		}
		entry := res.Val.(*Entry)
		if entry.State == StateError {
			return entry, entry.Err
		}
		return entry, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run performs one fetch cycle and publishes its outcome.
func (c *Controller) run(spec Spec, key string) *Entry {
	c.mu.Lock()
	s := c.slotLocked(key, spec)
	loading := s.entry.clone()
	loading.Key = key
	loading.State = StateLoading
	loading.Err = nil
	s.entry = loading
	c.mu.Unlock()

	log := logging.With().Str("chart", spec.ID).Str("query_key", key).Logger()
	start := time.Now()

	res, attempts, err := c.execute(spec)

	next := loading.clone()
	next.Attempts = attempts
	if err != nil {
		next.State = StateError
		next.Err = err
		class := warehouse.Classify(err)
		metrics.RecordFetchFailure(class.String())
		log.Error().Err(err).Str("error_class", class.String()).Int("attempts", attempts).Msg("Query failed")
	} else {
		now := time.Now()
		next.State = StateReady
		next.Rows = res.Rows
		next.TotalRows = res.TotalRows
		next.Truncated = false
		if c.cfg.MaxRows > 0 && len(next.Rows) > c.cfg.MaxRows {
			log.Warn().Int("rows", len(next.Rows)).Int("max_rows", c.cfg.MaxRows).Msg("Query result truncated to row limit")
			metrics.FetchTruncations.Inc()
			next.Rows = next.Rows[:c.cfg.MaxRows]
			next.Truncated = true
		}
		next.FetchedAt = now
		next.ExpiresAt = now.Add(c.ttl(spec))
		log.Debug().Int("rows", len(next.Rows)).Int("attempts", attempts).Dur("duration", time.Since(start)).Msg("Query completed")
	}

	c.publish(key, next)
	return next
}

func (c *Controller) ttl(spec Spec) time.Duration {
	if spec.RefreshInterval > 0 {
		return spec.RefreshInterval
	}
	return c.cfg.DefaultTTL
}

// publish stores entry as the key's current snapshot and hands it to every
// subscriber.
func (c *Controller) publish(key string, entry *Entry) {
	c.mu.Lock()
	var subs []*Subscription
	if s, ok := c.slots[key]; ok {
		s.entry = entry
		subs = make([]*Subscription, 0, len(s.subs))
		for sub := range s.subs {
			subs = append(subs, sub)
		}
	}
	c.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(entry)
	}
}

// slotLocked returns the slot for key, creating it if needed. c.mu must be held.
func (c *Controller) slotLocked(key string, spec Spec) *slot {
	s, ok := c.slots[key]
	if !ok {
		s = &slot{
			spec:  spec,
			entry: &Entry{Key: key, State: StateIdle},
			subs:  make(map[*Subscription]struct{}),
		}
		c.slots[key] = s
		metrics.FetchEntries.Set(float64(len(c.slots)))
	}
	return s
}

// Subscribe attaches a live consumer to spec. The current entry, if any data
// or error has been recorded, is delivered immediately. When the key has no
// fresh entry and no fetch in flight, a fetch is started in the background and
// its outcome is delivered like any other cycle.
func (c *Controller) Subscribe(spec Spec) (*Subscription, error) {
	key := spec.Key()
	sub := newSubscription(c, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	s := c.slotLocked(key, spec)
	s.subs[sub] = struct{}{}
	metrics.FetchSubscriptions.Inc()

	if spec.RefreshInterval > 0 && !s.polled {
		id, err := c.cron.AddFunc(fmt.Sprintf("@every %s", spec.RefreshInterval), func() { c.poll(key) })
		if err != nil {
			delete(s.subs, sub)
			metrics.FetchSubscriptions.Dec()
			return nil, fmt.Errorf("schedule refresh for %s: %w", spec.ID, err)
		}
		s.cronID = id
		s.polled = true
		logging.Info().Str("chart", spec.ID).Dur("interval", spec.RefreshInterval).Msg("Polling started")
	}

	if s.entry.State == StateReady || s.entry.State == StateError {
		sub.deliver(s.entry)
	}
	if s.entry.State != StateLoading && !s.entry.Fresh(time.Now()) {
		metrics.RecordFetch("miss")
		go func() {
			_, _ = c.await(c.ctx, spec, key)
		}()
	}
	return sub, nil
}

// detach removes sub and stops polling once the key has no consumers left.
// A refresh already in flight is left to complete.
func (c *Controller) detach(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.slots[sub.key]
	if !ok {
		return
	}
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	metrics.FetchSubscriptions.Dec()

	if len(s.subs) == 0 && s.polled {
		c.cron.Remove(s.cronID)
		s.polled = false
		s.cronID = 0
		logging.Info().Str("chart", s.spec.ID).Msg("Polling stopped")
	}
}

// poll is the scheduled refetch for key.
func (c *Controller) poll(key string) {
	c.mu.Lock()
	s, ok := c.slots[key]
	if !ok || len(s.subs) == 0 {
		c.mu.Unlock()
		return
	}
	spec := s.spec
	c.mu.Unlock()

	_, err := c.Refetch(c.ctx, spec)
	metrics.RecordPoll(err)
}

// Snapshot returns the current entry for key.
func (c *Controller) Snapshot(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		return nil, false
	}
	return s.entry, true
}

// Entries returns the current entry of every key, ordered by key.
func (c *Controller) Entries() []*Entry {
	c.mu.Lock()
	out := make([]*Entry, 0, len(c.slots))
	for _, s := range c.slots {
		out = append(out, s.entry)
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Subscribers returns how many live consumers key has.
func (c *Controller) Subscribers(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots[key]; ok {
		return len(s.subs)
	}
	return 0
}

// Polling reports whether key has a scheduled refresh.
func (c *Controller) Polling(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	return ok && s.polled
}
