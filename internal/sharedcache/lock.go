// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package sharedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oseh/backend/internal/logging"
)

// releaseScript deletes the lock only if this holder still owns it, so a
// holder that outlived its TTL cannot delete the next holder's lock.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Lock is an advisory fill lock. It is best-effort coordination, not mutual
// exclusion: the TTL can hand the lock to another instance while the original
// holder is still working, and that is acceptable - the worst case is a
// duplicate fill, never a wrong result.
type Lock struct {
	client *Client
	key    string
	owner  string
}

// AcquireLock attempts SET key owner NX EX ttl. acquired is false when
// another holder has the lock.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, bool, error) {
	owner := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	return &Lock{client: c, key: key, owner: owner}, true, nil
}

// Release frees the lock if still owned. Safe to call from a defer with an
// already-canceled request context; release falls back to a short background
// context so the lock does not linger for its full TTL.
func (l *Lock) Release(ctx context.Context) {
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}

	err := l.client.rdb.Eval(ctx, releaseScript, []string{l.key}, l.owner).Err()
	if err != nil {
		// The TTL will clean up; nothing to do but note it.
		logging.Warn().Err(err).Str("key", l.key).Msg("fill lock release failed")
	}
}
