// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockWarmer is a test double for the CurrentWarmer interface.
type mockWarmer struct {
	calls   atomic.Int32
	lastNow atomic.Int64
	err     error
}

func (m *mockWarmer) WarmCurrent(ctx context.Context, now int64) error {
	m.calls.Add(1)
	m.lastNow.Store(now)
	return m.err
}

func TestPremiereWarmerService_Interface(t *testing.T) {
	var _ suture.Service = (*PremiereWarmerService)(nil)
}

func TestNewPremiereWarmerService_DefaultInterval(t *testing.T) {
	svc := NewPremiereWarmerService(&mockWarmer{}, 0)
	if svc.interval != 30*time.Second {
		t.Errorf("expected default interval 30s, got %v", svc.interval)
	}
}

func TestPremiereWarmerService_Serve(t *testing.T) {
	t.Run("warms immediately and then on each tick", func(t *testing.T) {
		warmer := &mockWarmer{}
		svc := NewPremiereWarmerService(warmer, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := svc.Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}

		// One immediate warm plus at least one tick
		if warmer.calls.Load() < 2 {
			t.Errorf("expected at least 2 warms, got %d", warmer.calls.Load())
		}

		now := warmer.lastNow.Load()
		if now < time.Now().Add(-time.Minute).Unix() || now > time.Now().Unix() {
			t.Errorf("warm used implausible clock value %d", now)
		}
	})

	t.Run("a failing warm does not stop the loop", func(t *testing.T) {
		warmer := &mockWarmer{err: errors.New("redis gone")}
		svc := NewPremiereWarmerService(warmer, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		err := svc.Serve(ctx)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}

		if warmer.calls.Load() < 2 {
			t.Errorf("expected warmer to keep retrying after failure, got %d calls", warmer.calls.Load())
		}
	})
}

func TestPremiereWarmerService_String(t *testing.T) {
	svc := NewPremiereWarmerService(&mockWarmer{}, time.Minute)
	if svc.String() != "premiere-warmer" {
		t.Errorf("expected 'premiere-warmer', got %q", svc.String())
	}
}
