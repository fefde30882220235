// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package entitlements

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/oseh/backend/internal/config"
	"github.com/oseh/backend/internal/metrics"
)

const (
	breakerName = "entitlement_provider"

	// maxProviderResponse bounds how much of a subscriber document we read.
	maxProviderResponse = 1 << 20
)

// ProviderEntitlement is one entitlement as the billing provider reports it.
// ActiveUntil is nil for lifetime grants.
type ProviderEntitlement struct {
	Identifier  string
	IsActive    bool
	ActiveUntil *int64
}

// ProviderClient talks to the RevenueCat-style subscriber API. Calls pass
// through a rate limiter and a circuit breaker; the breaker rejecting a call
// is reported like any other provider failure so the caller's error window
// sees outages whether they manifest as timeouts or as an open breaker.
type ProviderClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]ProviderEntitlement]
	now     func() time.Time
}

// NewProviderClient creates a client for the configured provider.
func NewProviderClient(cfg *config.EntitlementsConfig) *ProviderClient {
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	return &ProviderClient{
		baseURL: cfg.ProviderURL,
		apiKey:  cfg.ProviderKey,
		client:  &http.Client{Timeout: cfg.ProviderTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
		breaker: gobreaker.NewCircuitBreaker[[]ProviderEntitlement](settings),
		now:     time.Now,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Entitlements fetches the subscriber's entitlements from the provider.
func (c *ProviderClient) Entitlements(ctx context.Context, revenueCatID string) ([]ProviderEntitlement, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("provider rate limit wait: %w", err)
	}

	start := time.Now()
	grants, err := c.breaker.Execute(func() ([]ProviderEntitlement, error) {
		return c.fetch(ctx, revenueCatID)
	})
	metrics.ProviderRequestDuration.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		recordProviderResult("rejected")
		return nil, fmt.Errorf("provider circuit open: %w", err)
	case err != nil:
		recordProviderResult("failure")
		return nil, err
	}
	recordProviderResult("success")
	return grants, nil
}

// recordProviderResult feeds both the provider counter and the per-breaker
// request counter.
func recordProviderResult(result string) {
	metrics.ProviderRequests.WithLabelValues(result).Inc()
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
}

// subscriberResponse is the shape of GET /subscribers/{id}. Only expiry
// matters here; the provider's purchase metadata stays with the provider.
type subscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate *time.Time `json:"expires_date"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

func (c *ProviderClient) fetch(ctx context.Context, revenueCatID string) ([]ProviderEntitlement, error) {
	endpoint := c.baseURL + "/subscribers/" + url.PathEscape(revenueCatID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	// The provider creates the subscriber on first read, answering 201.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}

	var parsed subscriberResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse provider response: %w", err)
	}

	now := c.now()
	grants := make([]ProviderEntitlement, 0, len(parsed.Subscriber.Entitlements))
	for identifier, ent := range parsed.Subscriber.Entitlements {
		grant := ProviderEntitlement{Identifier: identifier}
		if ent.ExpiresDate == nil {
			// No expiry means a lifetime grant.
			grant.IsActive = true
		} else {
			until := ent.ExpiresDate.Unix()
			grant.ActiveUntil = &until
			grant.IsActive = now.Before(*ent.ExpiresDate)
		}
		grants = append(grants, grant)
	}
	return grants, nil
}
