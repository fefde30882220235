// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oseh/backend/internal/localcache"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/metrics"
	"github.com/oseh/backend/internal/sharedcache"
)

// Fetcher builds a view template from the system of record. A nil template
// with a nil error means the entity does not exist.
type Fetcher func(ctx context.Context, uid, variant string) ([]byte, error)

// Config configures one view's coordinator.
type Config struct {
	// View names the view ("journeys", "daily_events"); it namespaces cache
	// keys, pub/sub channels, and metric labels.
	View string
	// Local is the disk tier, shared across views.
	Local *localcache.Cache
	// Shared provides the fill lock and the pub/sub channels. For content
	// views redis stores nothing; it only coordinates.
	Shared *sharedcache.Client
	// Fetch is the system-of-record read for this view.
	Fetch Fetcher
	// LockTTL bounds how long a crashed filler blocks others. Default 3s.
	LockTTL time.Duration
	// WaitMin/WaitMax bound the jittered wait for another instance's fill
	// broadcast. Defaults 1s and 3s.
	WaitMin time.Duration
	WaitMax time.Duration
}

// Coordinator serves one view's templates through three tiers: the local
// disk cache, a peer's broadcast fill, and the system of record. At most one
// instance fills a given key at a time, arranged by an advisory lock that is
// deliberately best-effort: a duplicate fill costs a redundant query, never
// a wrong result.
type Coordinator struct {
	view     string
	local    *localcache.Cache
	shared   *sharedcache.Client
	fetch    Fetcher
	registry *Registry

	lockTTL time.Duration
	waitMin time.Duration
	waitMax time.Duration

	fillChannel  string
	evictChannel string
}

// NewCoordinator creates the coordinator for one view.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 3 * time.Second
	}
	if cfg.WaitMin <= 0 {
		cfg.WaitMin = time.Second
	}
	if cfg.WaitMax <= cfg.WaitMin {
		cfg.WaitMax = cfg.WaitMin + 2*time.Second
	}

	return &Coordinator{
		view:         cfg.View,
		local:        cfg.Local,
		shared:       cfg.Shared,
		fetch:        cfg.Fetch,
		registry:     NewRegistry(),
		lockTTL:      cfg.LockTTL,
		waitMin:      cfg.WaitMin,
		waitMax:      cfg.WaitMax,
		fillChannel:  "oseh:views:" + cfg.View,
		evictChannel: "oseh:views:" + cfg.View + ":evict",
	}
}

func (c *Coordinator) localKey(uid, variant string) string {
	return "views:" + c.view + ":" + uid + ":" + variant
}

// localPrefix covers every variant of uid; neither view names nor uids
// contain the ':' delimiter.
func (c *Coordinator) localPrefix(uid string) string {
	return "views:" + c.view + ":" + uid + ":"
}

func (c *Coordinator) lockKey(uid, variant string) string {
	return "locks:views:" + c.view + ":" + uid + ":" + variant
}

// ReadOne returns the template for (uid, variant), filling from the system
// of record when no tier has it. A nil template with nil error means the
// entity does not exist - including when the fill itself failed, since a
// logged not-found beats an error page on a read path.
func (c *Coordinator) ReadOne(ctx context.Context, uid, variant string) ([]byte, error) {
	key := c.localKey(uid, variant)

	value, _, ok, err := c.local.Get(key)
	if err != nil {
		// Disk cache trouble is not a reason to fail the read.
		logging.Warn().Err(err).Str("view", c.view).Str("uid", uid).Msg("local cache read failed")
	}
	if ok {
		metrics.ViewCacheHits.WithLabelValues(c.view, "local").Inc()
		return value, nil
	}
	metrics.ViewCacheMisses.WithLabelValues(c.view).Inc()

	lock, acquired, err := c.shared.AcquireLock(ctx, c.lockKey(uid, variant), c.lockTTL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The lock is advisory; with redis down the worst case is every
		// instance filling on its own.
		logging.Warn().Err(err).Str("view", c.view).Str("uid", uid).Msg("fill lock unavailable, filling without it")
		return c.fill(ctx, uid, variant)
	}
	if acquired {
		metrics.FillLockAcquired.WithLabelValues(c.view).Inc()
		defer lock.Release(ctx)

		// The fill we raced may have finished between our miss and the
		// acquire; its result is already installed locally.
		if value, _, ok, err := c.local.Get(key); err == nil && ok {
			metrics.ViewCacheHits.WithLabelValues(c.view, "local").Inc()
			return value, nil
		}
		return c.fill(ctx, uid, variant)
	}

	// Another instance is filling. Register before re-checking the local
	// cache: the filler installs locally before delivering, so one of the
	// two must observe its result.
	metrics.FillLockWaits.WithLabelValues(c.view).Inc()
	ch, cancel := c.registry.Register(uid, variant)
	defer cancel()

	if value, _, ok, err := c.local.Get(key); err == nil && ok {
		metrics.ViewCacheHits.WithLabelValues(c.view, "local").Inc()
		return value, nil
	}

	timer := time.NewTimer(c.waitJitter())
	defer timer.Stop()

	select {
	case template := <-ch:
		metrics.ViewCacheHits.WithLabelValues(c.view, "broadcast").Inc()
		return template, nil
	case <-timer.C:
		metrics.FillLockWaitTimeouts.WithLabelValues(c.view).Inc()
		logging.Warn().Str("view", c.view).Str("uid", uid).Str("variant", variant).
			Msg("no fill broadcast before timeout, assuming filler died")
		return c.fill(ctx, uid, variant)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fill queries the system of record and propagates the result: local cache,
// pub/sub broadcast for peers, direct delivery to this process's waiters.
func (c *Coordinator) fill(ctx context.Context, uid, variant string) ([]byte, error) {
	start := time.Now()

	template, err := c.fetch(ctx, uid, variant)
	if err != nil {
		metrics.RecordFill(c.view, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Error().Err(err).Str("view", c.view).Str("uid", uid).Msg("view fill failed")
		return nil, nil
	}
	if template == nil {
		metrics.RecordFill(c.view, "not_found", time.Since(start))
		return nil, nil
	}
	metrics.RecordFill(c.view, "ok", time.Since(start))

	// Stamp the fill with when the query began: if the entity mutated while
	// we read, the mutation's evict cutoff lands after this and purges us.
	fetchedAt := start.Unix()
	if err := c.local.Set(c.localKey(uid, variant), template, fetchedAt); err != nil {
		logging.Warn().Err(err).Str("view", c.view).Str("uid", uid).Msg("local cache write failed")
	}

	if err := c.shared.Publish(ctx, c.fillChannel, encodeBroadcast(uid, variant, fetchedAt, template)); err != nil {
		logging.Warn().Err(err).Str("view", c.view).Str("uid", uid).
			Msg("fill broadcast failed; peers will fill on their own")
	} else {
		metrics.ViewCacheBroadcasts.WithLabelValues(c.view).Inc()
	}

	c.registry.Deliver(uid, variant, template)
	return template, nil
}

// Evict announces that uid changed at minCheckedAt (unix seconds). This
// instance purges immediately; peers purge on receipt. Invalidation is
// eventual and lossy - an instance that misses the message serves stale data
// until its local TTL expires.
func (c *Coordinator) Evict(ctx context.Context, uid string, minCheckedAt int64) error {
	c.applyEvict(evictMessage{UID: uid, MinCheckedAt: minCheckedAt})

	msg, err := encodeEvict(uid, minCheckedAt)
	if err != nil {
		return fmt.Errorf("encode evict for %s: %w", uid, err)
	}
	if err := c.shared.Publish(ctx, c.evictChannel, msg); err != nil {
		return fmt.Errorf("publish evict for %s: %w", uid, err)
	}
	return nil
}

// EvictNow evicts uid as of now. The cutoff lands one second past the
// current one: fill stamps truncate to whole seconds, so a cutoff of plain
// now would spare an entry filled earlier in the same second.
func (c *Coordinator) EvictNow(ctx context.Context, uid string) error {
	return c.Evict(ctx, uid, time.Now().Unix()+1)
}

// applyBroadcast installs a fill received over pub/sub and wakes waiters.
// This instance's own broadcasts loop back through here; reapplying them is
// harmless.
func (c *Coordinator) applyBroadcast(msg []byte) {
	uid, variant, fetchedAt, template, err := decodeBroadcast(msg)
	if err != nil {
		logging.Warn().Err(err).Str("view", c.view).Msg("dropping malformed fill broadcast")
		return
	}

	if err := c.local.Set(c.localKey(uid, variant), template, fetchedAt); err != nil {
		logging.Warn().Err(err).Str("view", c.view).Str("uid", uid).Msg("local cache write from broadcast failed")
	}
	c.registry.Deliver(uid, variant, template)
}

func (c *Coordinator) applyEvictMessage(msg []byte) {
	ev, err := decodeEvict(msg)
	if err != nil {
		logging.Warn().Err(err).Str("view", c.view).Msg("dropping malformed evict message")
		return
	}
	c.applyEvict(ev)
}

func (c *Coordinator) applyEvict(ev evictMessage) {
	purged, err := c.local.PurgePrefixOlderThan(c.localPrefix(ev.UID), ev.MinCheckedAt)
	if err != nil {
		logging.Warn().Err(err).Str("view", c.view).Str("uid", ev.UID).Msg("local purge failed")
		return
	}
	if purged > 0 {
		metrics.ViewCacheEvictions.WithLabelValues(c.view).Add(float64(purged))
	}
}

// waitJitter picks a timeout in [waitMin, waitMax); the spread keeps every
// waiter from declaring the filler dead in the same instant.
func (c *Coordinator) waitJitter() time.Duration {
	if c.waitMax <= c.waitMin {
		return c.waitMin
	}
	//nolint:gosec // G404: non-cryptographic jitter
	return c.waitMin + time.Duration(rand.Int63n(int64(c.waitMax-c.waitMin)))
}
