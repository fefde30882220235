// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package memcache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string](time.Minute, 0)
	defer c.Close()

	c.Set("greeting", "hello")

	got, ok := c.Get("greeting")
	if !ok {
		t.Fatal("expected hit")
	}
	if got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestExpiration(t *testing.T) {
	c := New[int](20*time.Millisecond, 0)
	defer c.Close()

	c.Set("n", 42)
	if _, ok := c.Get("n"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("n"); ok {
		t.Error("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry dropped on contact, len %d", c.Len())
	}
}

func TestSetReplacesEntry(t *testing.T) {
	c := New[int](time.Minute, 0)
	defer c.Close()

	c.Set("n", 1)
	c.Set("n", 2)

	got, ok := c.Get("n")
	if !ok || got != 2 {
		t.Errorf("expected replaced value 2, got %d (ok=%v)", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected single entry, len %d", c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[string](time.Minute, 0)
	defer c.Close()

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
	// Deleting an absent key is a no-op.
	c.Delete("k")
}

func TestCleanupSweepsExpired(t *testing.T) {
	c := New[int](10*time.Millisecond, 20*time.Millisecond)
	defer c.Close()

	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanup did not sweep expired entries, len %d", c.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := c.Stats()
	if stats.Evictions != 10 {
		t.Errorf("expected 10 evictions, got %d", stats.Evictions)
	}
}

func TestStatsCounters(t *testing.T) {
	c := New[string](time.Minute, 0)
	defer c.Close()

	c.Set("a", "1")
	c.Get("a")
	c.Get("a")
	c.Get("b")

	stats := c.Stats()
	if stats.Hits != 2 {
		t.Errorf("expected 2 hits, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Keys != 1 {
		t.Errorf("expected 1 key, got %d", stats.Keys)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](time.Minute, 0)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", j%20)
				c.Set(key, n)
				c.Get(key)
				if j%50 == 0 {
					c.Delete(key)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New[string](time.Minute, 0)
	c.Close()
	c.Close()

	// The cache stays usable after the sweep stops.
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Error("expected hit after close")
	}
}
