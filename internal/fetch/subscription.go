// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package fetch

import "sync"

// Subscription is a live consumer of one query key.
type Subscription struct {
	c   *Controller
	key string

	mu     sync.Mutex
	ch     chan *Entry
	closed bool
}

func newSubscription(c *Controller, key string) *Subscription {
	return &Subscription{c: c, key: key, ch: make(chan *Entry, 1)}
}

// Key returns the query key the subscription follows.
func (s *Subscription) Key() string {
	return s.key
}

// Updates delivers the newest entry after each completed fetch cycle. Only
// the latest undelivered entry is kept. The channel is closed by Close.
func (s *Subscription) Updates() <-chan *Entry {
	return s.ch
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.c.detach(s)
}

// deliver replaces any pending entry with e without blocking.
func (s *Subscription) deliver(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- e
}
