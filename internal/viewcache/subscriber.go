// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/sharedcache"
)

// Subscriber consumes fill and evict messages for every registered view over
// a single redis subscription. It runs as a suture service; a dropped
// connection surfaces as an error so the supervisor restarts (and thereby
// resubscribes) it.
type Subscriber struct {
	shared   *sharedcache.Client
	handlers map[string]func(payload []byte)
}

// NewSubscriber wires the given coordinators' fill and evict channels.
func NewSubscriber(shared *sharedcache.Client, coords ...*Coordinator) *Subscriber {
	s := &Subscriber{shared: shared, handlers: make(map[string]func([]byte))}
	for _, c := range coords {
		s.handlers[c.fillChannel] = c.applyBroadcast
		s.handlers[c.evictChannel] = c.applyEvictMessage
	}
	return s
}

// Handle registers fn for one additional channel. Must be called before
// Serve.
func (s *Subscriber) Handle(channel string, fn func(payload []byte)) {
	s.handlers[channel] = fn
}

// String implements suture's nameable convention for supervisor logs.
func (s *Subscriber) String() string { return "viewcache-subscriber" }

// Serve implements suture.Service. Messages published before the
// subscription is established are lost; that is the protocol's documented
// lossiness, backstopped by local cache TTLs.
func (s *Subscriber) Serve(ctx context.Context) error {
	channels := make([]string, 0, len(s.handlers))
	for ch := range s.handlers {
		channels = append(channels, ch)
	}

	pubsub := s.shared.Subscribe(ctx, channels...)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe views: %w", err)
	}

	logging.Info().Int("channels", len(channels)).Msg("view cache subscriber started")

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("view cache subscriber stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("pub/sub connection closed")
			}
			if handler, ok := s.handlers[msg.Channel]; ok {
				handler([]byte(msg.Payload))
			}
		}
	}
}
