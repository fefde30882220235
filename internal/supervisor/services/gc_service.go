// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package services

import (
	"context"
	"time"

	"github.com/oseh/backend/internal/logging"
)

// ValueLogGC interface matches the cache's garbage collection hook.
//
// Satisfied by *localcache.Cache, whose RunGC already treats "nothing to
// collect" as success.
type ValueLogGC interface {
	RunGC() error
}

// CacheGCService runs badger value log garbage collection on a fixed
// interval. Badger never reclaims value log space on its own; without this
// service the cache directory grows until the disk fills.
//
// GC failures are logged and the ticker keeps running. A transient failure
// is retried on the next tick, so crashing the service (and paying suture's
// restart backoff) would only delay the next attempt.
type CacheGCService struct {
	cache    ValueLogGC
	interval time.Duration
	name     string
}

// NewCacheGCService creates a new cache GC service.
//
// Example usage:
//
//	svc := services.NewCacheGCService(local, cfg.LocalCache.GCInterval)
//	tree.AddDataService(svc)
func NewCacheGCService(cache ValueLogGC, interval time.Duration) *CacheGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CacheGCService{
		cache:    cache,
		interval: interval,
		name:     "cache-gc",
	}
}

// Serve implements suture.Service. Runs GC every interval until the context
// is canceled.
func (g *CacheGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.cache.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("Cache value log GC failed; will retry next tick")
			}
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (g *CacheGCService) String() string {
	return g.name
}
