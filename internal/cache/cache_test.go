// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package cache

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	defer c.Close()

	c.Set("series:a", "value1")
	value, exists := c.Get("series:a")
	if !exists || value != "value1" {
		t.Errorf("Get = %v, %v; want value1, true", value, exists)
	}

	if _, exists := c.Get("series:b"); exists {
		t.Error("Expected series:b to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	defer c.Close()

	c.SetWithTTL("short", "value", 50*time.Millisecond)
	if _, exists := c.Get("short"); !exists {
		t.Fatal("Expected entry to exist immediately after set")
	}

	time.Sleep(80 * time.Millisecond)

	if _, exists := c.Get("short"); exists {
		t.Error("Expected entry to be expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry must be removed on Get, Len = %d", c.Len())
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	defer c.Close()

	c.Set("k1", 1)
	c.Set("k2", 2)
	c.Set("k3", 3)

	c.Delete("k1")
	if _, exists := c.Get("k1"); exists {
		t.Error("Expected k1 to be deleted")
	}
	if got := c.GetStats().TotalKeys; got != 2 {
		t.Errorf("TotalKeys after delete = %d, want 2", got)
	}

	c.Clear()
	for _, key := range []string{"k2", "k3"} {
		if _, exists := c.Get(key); exists {
			t.Errorf("Expected %s to be cleared", key)
		}
	}
	if got := c.GetStats().TotalKeys; got != 0 {
		t.Errorf("TotalKeys after clear = %d", got)
	}
}

func TestCacheStats(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Get("key1") // hit
	c.Get("key2") // miss
	c.Get("key1") // hit

	stats := c.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}

	expected := 200.0 / 3.0
	if hitRate := c.HitRate(); hitRate < expected-0.01 || hitRate > expected+0.01 {
		t.Errorf("hit rate = %.2f%%, want %.2f%%", hitRate, expected)
	}
}

func TestCacheBackgroundCleanup(t *testing.T) {
	t.Parallel()
	c := NewWithCleanup(10*time.Millisecond, 20*time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if c.Len() != 0 {
		t.Fatalf("sweep did not remove expired entries, Len = %d", c.Len())
	}
	if c.GetStats().Evictions < 2 {
		t.Errorf("evictions = %d, want >= 2", c.GetStats().Evictions)
	}
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	c.Close()
	c.Close()

	c.Set("still", "usable")
	if _, ok := c.Get("still"); !ok {
		t.Error("cache must remain usable after Close")
	}
}

func TestCacheConcurrency(t *testing.T) {
	t.Parallel()
	c := New(time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("key", id)
				c.Get("key")
				if j%10 == 0 {
					c.Delete("key")
				}
			}
		}(i)
	}
	wg.Wait()

	stats := c.GetStats()
	if stats.Hits == 0 && stats.Misses == 0 {
		t.Error("Expected some cache activity from concurrent operations")
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	type seriesKey struct {
		Chart   string
		Filters map[string][]string
	}

	k1 := GenerateKey("series", seriesKey{Chart: "ai-roles-salary", Filters: map[string][]string{"state": {"CA"}, "month": {"Apr"}}})
	k2 := GenerateKey("series", seriesKey{Chart: "ai-roles-salary", Filters: map[string][]string{"month": {"Apr"}, "state": {"CA"}}})
	k3 := GenerateKey("series", seriesKey{Chart: "ai-roles-salary", Filters: map[string][]string{"state": {"NY"}}})

	if k1 != k2 {
		t.Error("equal parameter maps must generate the same key")
	}
	if k1 == k3 {
		t.Error("different params must generate different keys")
	}
	if !strings.HasPrefix(k1, "series:") || len(k1) != len("series:")+32 {
		t.Errorf("key format = %q, want namespace:32 hex chars", k1)
	}
}

func TestGenerateKeyUnmarshalable(t *testing.T) {
	t.Parallel()

	key := GenerateKey("query", struct{ Ch chan int }{Ch: make(chan int)})
	if !strings.HasPrefix(key, "query:") {
		t.Errorf("fallback key = %q", key)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := New(time.Minute)
	defer c.Close()
	c.Set("key", "value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}
