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
	"github.com/redis/go-redis/v9"
)

// ErrorWindow counts recent failures across all instances using a redis
// sorted set: members are unique per failure, scores are unix seconds. Counts
// include every instance's failures, which is the point - one instance's view
// of a struggling provider should benefit the whole fleet.
type ErrorWindow struct {
	client *Client
	key    string
	window time.Duration
}

// NewErrorWindow creates a window over the given sorted-set key. window is
// how far back failures count.
func NewErrorWindow(client *Client, key string, window time.Duration) *ErrorWindow {
	return &ErrorWindow{client: client, key: key, window: window}
}

// Record adds one failure at the given time. The member embeds a uuid so
// concurrent failures in the same second all count.
func (w *ErrorWindow) Record(ctx context.Context, at time.Time) error {
	member := fmt.Sprintf("%d:%s", at.Unix(), uuid.NewString())

	pipe := w.client.rdb.Pipeline()
	pipe.ZAdd(ctx, w.key, redis.Z{Score: float64(at.Unix()), Member: member})
	// Self-clean if nothing consults the window for a while.
	pipe.Expire(ctx, w.key, w.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record error in %s: %w", w.key, err)
	}
	return nil
}

// Count prunes entries older than the window and returns how many remain.
func (w *ErrorWindow) Count(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-w.window).Unix()

	pipe := w.client.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, w.key, "-inf", fmt.Sprintf("(%d", cutoff))
	card := pipe.ZCard(ctx, w.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count errors in %s: %w", w.key, err)
	}
	return card.Val(), nil
}
