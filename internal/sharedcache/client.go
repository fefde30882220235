// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package sharedcache is the cross-instance tier of the cache stack: a redis
// client wrapper providing the advisory fill lock, the broadcast/evict
// pub/sub channels, hash storage for entitlement records, and the rolling
// provider-error window.
//
// The shared tier stores nothing for content views; for those it only
// coordinates (lock + broadcast). Entitlements are the exception: their
// records live in redis hashes so all instances read the same result.
package sharedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures the redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
}

// Client wraps a redis connection with the operations the cache layers use.
// Tests back it with miniredis; there is no mock interface.
type Client struct {
	rdb *redis.Client
}

// Connect opens a redis connection and verifies it with PING.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromRedis wraps an existing client. The caller keeps ownership of its
// lifecycle; Close becomes a no-op pass-through to the same handle.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Ping verifies the connection; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Publish sends payload on channel. Publishing is fire-and-forget: redis
// pub/sub delivers only to currently connected subscribers, so a message
// published while a subscriber is down is lost. Callers rely on TTLs as the
// backstop, not on delivery.
func (c *Client) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a subscription on the given channels. The caller consumes
// pubsub.Channel() and must Close the subscription when done.
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}

// HashGet reads one field of a hash. ok is false when the key or field is
// absent.
func (c *Client) HashGet(ctx context.Context, key, field string) (value []byte, ok bool, err error) {
	res, err := c.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget %s %s: %w", key, field, err)
	}
	return []byte(res), true, nil
}

// HashSet writes one field of a hash and refreshes the key's TTL. The TTL is
// per-key, not per-field: any write extends the whole hash, which is the
// wanted behavior for per-user entitlement hashes.
func (c *Client) HashSet(ctx context.Context, key, field string, value []byte, ttl time.Duration) error {
	pipe := c.rdb.Pipeline()
	pipe.HSet(ctx, key, field, value)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset %s %s: %w", key, field, err)
	}
	return nil
}

// HashDelete removes fields from a hash. Absent fields are not an error.
func (c *Client) HashDelete(ctx context.Context, key string, fields ...string) error {
	if err := c.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}
