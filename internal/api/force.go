// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// forceSweepThreshold is the map size past which idle entries are swept
	// on insert.
	forceSweepThreshold = 4096

	// forceEntryIdle is how long an entry may go unused before a sweep
	// reclaims it.
	forceEntryIdle = 10 * time.Minute
)

// forceLimiter budgets per-user force refreshes so a hammering client cannot
// route every request past the entitlement caches to the provider. Entries
// are swept lazily once the map grows past forceSweepThreshold.
type forceLimiter struct {
	perMinute int

	mu      sync.Mutex
	entries map[string]*forceEntry
}

type forceEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newForceLimiter(perMinute int) *forceLimiter {
	return &forceLimiter{
		perMinute: perMinute,
		entries:   make(map[string]*forceEntry),
	}
}

// Allow reports whether sub has force budget left, spending one unit if so.
func (f *forceLimiter) Allow(sub string) bool {
	if f.perMinute <= 0 {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.entries[sub]
	if !ok {
		e = &forceEntry{
			lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(f.perMinute)), f.perMinute),
		}
		f.entries[sub] = e
		if len(f.entries) > forceSweepThreshold {
			f.sweepLocked()
		}
	}
	e.lastSeen = time.Now()
	return e.lim.Allow()
}

func (f *forceLimiter) sweepLocked() {
	cutoff := time.Now().Add(-forceEntryIdle)
	for sub, e := range f.entries {
		if e.lastSeen.Before(cutoff) {
			delete(f.entries, sub)
		}
	}
}
