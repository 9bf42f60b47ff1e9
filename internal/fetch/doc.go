// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

/*
Package fetch owns the lifecycle of every warehouse query: caching, request
coalescing, retry with exponential backoff, result truncation, manual refetch
and periodic polling for live subscribers.

# Entries

Each distinct (query, params) pair has one query key and one Entry. Entries
move through Idle, Loading, Ready and Error. An Entry value is an immutable
snapshot: the controller replaces it wholesale under its mutex and never
mutates a published one, so readers need no locking.

A Ready entry is served until ExpiresAt. The TTL is the Spec's refresh
interval, or Config.DefaultTTL when none is set. Error entries are never
served from cache; the next request starts a new cycle while the last good
rows remain on the entry for stale display.

# Coalescing and cancellation

Concurrent requests for one key share a single executor call
(golang.org/x/sync/singleflight). The shared call runs on the controller's own
context, so a caller whose context ends only stops waiting.

# Retry

Network failures are retried with exponential backoff (cenkalti/backoff/v4):
1s, 2s, 4s and so on, capped at 30s, for at most MaxRetries retries. Query
errors are permanent and fail the cycle at once. Every attempt runs under
QueryTimeout; a timed-out attempt counts as a network failure.

# Polling

Subscribe attaches a live consumer. A key with no fresh entry and no fetch in
flight is fetched at once, so a new consumer never waits for the first tick.
The first consumer of a spec with a
refresh interval schedules a background refetch with robfig/cron/v3
("@every <interval>"); the last consumer to leave removes the schedule without
aborting a refresh already in flight. Subscribers receive the newest entry
after every completed cycle; a slow subscriber only ever misses intermediate
entries, never blocks the controller.

Close cancels in-flight executions before waiting for running polls, then
closes every subscription's Updates channel.
*/
package fetch
