// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package memcache provides a small thread-safe in-process TTL cache. It
// backs the tiers that are too hot and too short-lived for the disk cache:
// entries live for seconds to minutes and exist only to absorb repeated
// reads between refreshes of an authoritative tier.
package memcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Keys        int64
	LastCleanup time.Time
}

// Cache is a thread-safe in-memory cache where every entry carries the same
// TTL. A background goroutine sweeps expired entries; Get also drops an
// expired entry on contact, so readers never see stale values between
// sweeps.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration

	hits        int64
	misses      int64
	evictions   int64
	lastCleanup time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache whose entries expire ttl after Set. cleanupInterval
// controls the background sweep; zero or negative selects five minutes.
func New[V any](ttl, cleanupInterval time.Duration) *Cache[V] {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	c := &Cache[V]{
		entries:     make(map[string]entry[V]),
		ttl:         ttl,
		lastCleanup: time.Now(),
		stop:        make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

// Get returns the value for key if present and unexpired. An expired entry
// is removed and counted as a miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !exists {
		c.count(&c.misses)
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a Set may have raced us.
		if cur, ok := c.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.entries, key)
			c.evictions++
		}
		c.misses++
		c.mu.Unlock()
		return zero, false
	}

	c.count(&c.hits)
	return e.value, true
}

// Set stores value under key with the cache's TTL, replacing any previous
// entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Keys:        int64(len(c.entries)),
		LastCleanup: c.lastCleanup,
	}
}

// Close stops the background sweep. The cache remains usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) count(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

func (c *Cache[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[V]) cleanup() {
	now := time.Now()
	c.mu.Lock()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			c.evictions++
		}
	}
	c.lastCleanup = now
	c.mu.Unlock()
}
