// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package entitlements

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/oseh/backend/internal/config"
)

func newTestProviderClient(t *testing.T, handler http.HandlerFunc) *ProviderClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewProviderClient(&config.EntitlementsConfig{
		ProviderURL:        srv.URL,
		ProviderKey:        "sk_test",
		ProviderTimeout:    2 * time.Second,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	})
}

func TestProviderEntitlementsParsesSubscriber(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	client := newTestProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"subscriber": {
				"entitlements": {
					"pro":      {"expires_date": "2030-01-01T00:00:00Z"},
					"lapsed":   {"expires_date": "2020-01-01T00:00:00Z"},
					"lifetime": {"expires_date": null}
				}
			}
		}`))
	})

	grants, err := client.Entitlements(context.Background(), "rc_123")
	if err != nil {
		t.Fatalf("Entitlements failed: %v", err)
	}

	if gotPath != "/subscribers/rc_123" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" {
		t.Errorf("unexpected authorization header %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("unexpected accept header %q", gotAccept)
	}

	byID := make(map[string]ProviderEntitlement, len(grants))
	for _, g := range grants {
		byID[g.Identifier] = g
	}
	if len(byID) != 3 {
		t.Fatalf("expected 3 grants, got %v", grants)
	}

	pro := byID["pro"]
	if !pro.IsActive {
		t.Error("expected pro active")
	}
	if pro.ActiveUntil == nil || *pro.ActiveUntil != time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix() {
		t.Errorf("unexpected pro active_until %v", pro.ActiveUntil)
	}

	lapsed := byID["lapsed"]
	if lapsed.IsActive {
		t.Error("expected lapsed inactive")
	}
	if lapsed.ActiveUntil == nil {
		t.Error("expected lapsed to carry its expiry")
	}

	lifetime := byID["lifetime"]
	if !lifetime.IsActive {
		t.Error("expected lifetime active")
	}
	if lifetime.ActiveUntil != nil {
		t.Errorf("expected nil active_until for lifetime grant, got %v", *lifetime.ActiveUntil)
	}
}

func TestProviderEntitlementsAcceptsCreated(t *testing.T) {
	client := newTestProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"subscriber": {"entitlements": {}}}`))
	})

	grants, err := client.Entitlements(context.Background(), "rc_new")
	if err != nil {
		t.Fatalf("Entitlements failed: %v", err)
	}
	if len(grants) != 0 {
		t.Errorf("expected no grants for a fresh subscriber, got %v", grants)
	}
}

func TestProviderEntitlementsErrorStatus(t *testing.T) {
	client := newTestProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	})

	_, err := client.Entitlements(context.Background(), "rc_123")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestProviderEntitlementsBadJSON(t *testing.T) {
	client := newTestProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.Entitlements(context.Background(), "rc_123")
	if err == nil {
		t.Fatal("expected error for undecodable response")
	}
}

func TestProviderBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int64
	client := newTestProviderClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := client.Entitlements(ctx, "rc_123"); err == nil {
			t.Fatalf("expected failure on call %d", i+1)
		}
	}

	// The breaker is open now; the provider stops seeing traffic.
	_, err := client.Entitlements(ctx, "rc_123")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if got := hits.Load(); got != 5 {
		t.Errorf("expected 5 provider hits, got %d", got)
	}
}
