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

// CurrentWarmer interface matches the daily event warm-fill hook.
//
// Satisfied by *dailyevents.Service. WarmCurrent fills the template cache
// for whichever event is live, without rendering any credentials.
type CurrentWarmer interface {
	WarmCurrent(ctx context.Context, now int64) error
}

// PremiereWarmerService keeps the live daily event's template cached ahead of
// readers. When a premiere boundary passes, the first request for the new
// event would otherwise pay the full system-of-record fill under the thundering
// herd of clients polling for it; the warmer absorbs that fill on a timer
// instead.
//
// Warm failures are logged and the ticker keeps running, same reasoning as
// the GC service: the next tick is the retry.
type PremiereWarmerService struct {
	warmer   CurrentWarmer
	interval time.Duration
	name     string
}

// NewPremiereWarmerService creates a new premiere warmer service.
//
// Example usage:
//
//	svc := services.NewPremiereWarmerService(dailyEvents, 30*time.Second)
//	tree.AddDataService(svc)
func NewPremiereWarmerService(warmer CurrentWarmer, interval time.Duration) *PremiereWarmerService {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PremiereWarmerService{
		warmer:   warmer,
		interval: interval,
		name:     "premiere-warmer",
	}
}

// Serve implements suture.Service. Warms once immediately so a restart
// right after a premiere doesn't leave a cold window, then on every tick.
func (p *PremiereWarmerService) Serve(ctx context.Context) error {
	p.warmOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.warmOnce(ctx)
		}
	}
}

func (p *PremiereWarmerService) warmOnce(ctx context.Context) {
	if err := p.warmer.WarmCurrent(ctx, time.Now().Unix()); err != nil {
		logging.Warn().Err(err).Msg("Premiere warm failed; will retry next tick")
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (p *PremiereWarmerService) String() string {
	return p.name
}
