// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package entitlements answers "does this user hold this entitlement". It
// is the read-through coordinator's billing variant: a short-lived
// in-process tier over a per-user redis hash over the billing provider.
// Unlike the content views, the shared tier is the store of truth between
// provider refreshes, so there is no fill lock and no broadcast; the hash
// is simply written by whichever instance refreshed last.
//
// The provider is assumed unreliable. Every provider failure is recorded
// in a shared rolling window and answered by failing open with
// a short-lived granted entry; once the window shows the provider is down
// (ten errors inside five minutes) the provider is not consulted at all
// until the window drains. Over-granting for a bounded interval is the
// accepted cost of keeping sessions working through a billing outage.
package entitlements

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/oseh/backend/internal/config"
	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/memcache"
	"github.com/oseh/backend/internal/metrics"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/sharedcache"
)

const (
	// errorWindowKey is the shared sorted set tracking provider failures
	// across all instances.
	errorWindowKey = "entitlements:provider:errors"

	failOpenThreshold = 10
	failOpenWindow    = 5 * time.Minute

	// failOpenGrant is how long a fabricated entry stays servable.
	failOpenGrant = 10 * time.Minute
)

// ErrUnknownUser is returned when the authenticated subject has no user row.
var ErrUnknownUser = errors.New("unknown user")

// Provider is the billing-provider surface the checker consumes.
type Provider interface {
	Entitlements(ctx context.Context, revenueCatID string) ([]ProviderEntitlement, error)
}

// Checker resolves entitlement checks through the tiers.
type Checker struct {
	cfg      *config.EntitlementsConfig
	db       *database.DB
	shared   *sharedcache.Client
	provider Provider
	window   *sharedcache.ErrorWindow
	local    *memcache.Cache[models.Entitlement]
}

// New creates a checker over the given store, shared cache, and provider.
func New(cfg *config.EntitlementsConfig, db *database.DB, shared *sharedcache.Client, provider Provider) *Checker {
	return &Checker{
		cfg:      cfg,
		db:       db,
		shared:   shared,
		provider: provider,
		window:   sharedcache.NewErrorWindow(shared, errorWindowKey, failOpenWindow),
		local:    memcache.New[models.Entitlement](cfg.LocalTTL, time.Minute),
	}
}

// Close stops the local tier's sweep goroutine.
func (c *Checker) Close() {
	c.local.Close()
}

func userKey(sub string) string {
	return "entitlements:" + sub
}

func localKey(sub, identifier string) string {
	return sub + ":" + identifier
}

// Check resolves one entitlement for one user. force skips both cache tiers
// and demands a provider round-trip; callers are expected to rate-limit it.
func (c *Checker) Check(ctx context.Context, sub, identifier string, force bool) (*models.Entitlement, error) {
	now := time.Now()

	if !force {
		if ent, ok := c.local.Get(localKey(sub, identifier)); ok && ent.Fresh(now.Unix()) {
			return &ent, nil
		}
		if ent := c.readShared(ctx, sub, identifier, now); ent != nil {
			return ent, nil
		}
	}

	return c.refresh(ctx, sub, identifier, now)
}

// readShared consults the per-user hash. Redis trouble degrades to a miss;
// the provider path behind it still works.
func (c *Checker) readShared(ctx context.Context, sub, identifier string, now time.Time) *models.Entitlement {
	raw, ok, err := c.shared.HashGet(ctx, userKey(sub), identifier)
	if err != nil {
		logging.Warn().Err(err).Str("sub", sub).Msg("entitlement shared tier read failed")
		return nil
	}
	if !ok {
		return nil
	}

	var ent models.Entitlement
	if err := json.Unmarshal(raw, &ent); err != nil {
		logging.Warn().Err(err).Str("sub", sub).Str("identifier", identifier).
			Msg("discarding undecodable cached entitlement")
		return nil
	}
	if !ent.Fresh(now.Unix()) {
		return nil
	}

	c.local.Set(localKey(sub, identifier), ent)
	return &ent
}

// refresh consults the provider, guarded by the shared error window.
func (c *Checker) refresh(ctx context.Context, sub, identifier string, now time.Time) (*models.Entitlement, error) {
	count, err := c.window.Count(ctx, now)
	if err != nil {
		logging.Warn().Err(err).Msg("provider error window unavailable, assuming healthy")
		count = 0
	}
	metrics.ProviderErrorWindow.Set(float64(count))

	if count >= failOpenThreshold {
		logging.Warn().Int64("window_errors", count).Str("sub", sub).Str("identifier", identifier).
			Msg("entitlement provider in outage window, failing open")
		return c.failOpen(ctx, sub, identifier, now), nil
	}

	revenueCatID, err := c.revenueCatID(ctx, sub)
	if err != nil {
		return nil, err
	}

	grants, err := c.provider.Entitlements(ctx, revenueCatID)
	if err != nil {
		// The caller abandoning the request is not the provider's fault.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if recordErr := c.window.Record(ctx, now); recordErr != nil {
			logging.Warn().Err(recordErr).Msg("failed to record provider error")
		}
		logging.Warn().Err(err).Str("sub", sub).Str("identifier", identifier).
			Msg("entitlement provider error, failing open")
		return c.failOpen(ctx, sub, identifier, now), nil
	}

	ents := make(map[string]models.Entitlement, len(grants)+1)
	for _, grant := range grants {
		ents[grant.Identifier] = models.Entitlement{
			Identifier:  grant.Identifier,
			IsActive:    grant.IsActive,
			ActiveUntil: grant.ActiveUntil,
			CheckedAt:   now.Unix(),
			ExpiresAt:   now.Add(c.cfg.SharedTTL).Unix(),
		}
	}
	// The provider omits entitlements the user never held; cache the
	// negative answer so free users do not cost a round-trip per check.
	if _, ok := ents[identifier]; !ok {
		ents[identifier] = models.Entitlement{
			Identifier: identifier,
			IsActive:   false,
			CheckedAt:  now.Unix(),
			ExpiresAt:  now.Add(c.cfg.SharedTTL).Unix(),
		}
	}

	for id, ent := range ents {
		c.writeShared(ctx, sub, id, ent)
	}
	requested := ents[identifier]
	c.local.Set(localKey(sub, identifier), requested)
	return &requested, nil
}

// failOpen fabricates a granted entry and caches it in both tiers so the
// outage does not turn into a stampede against the dead provider.
func (c *Checker) failOpen(ctx context.Context, sub, identifier string, now time.Time) *models.Entitlement {
	metrics.ProviderFailOpens.Inc()

	ent := models.Entitlement{
		Identifier: identifier,
		IsActive:   true,
		CheckedAt:  now.Unix(),
		ExpiresAt:  now.Add(failOpenGrant).Unix(),
	}
	c.writeShared(ctx, sub, identifier, ent)
	c.local.Set(localKey(sub, identifier), ent)
	return &ent
}

func (c *Checker) writeShared(ctx context.Context, sub, identifier string, ent models.Entitlement) {
	raw, err := json.Marshal(ent)
	if err != nil {
		logging.Error().Err(err).Str("identifier", identifier).Msg("failed to encode entitlement")
		return
	}
	if err := c.shared.HashSet(ctx, userKey(sub), identifier, raw, c.cfg.SharedTTL); err != nil {
		logging.Warn().Err(err).Str("sub", sub).Msg("entitlement shared tier write failed")
	}
}

// revenueCatID returns the user's provider-side customer id, assigning one
// on first use.
func (c *Checker) revenueCatID(ctx context.Context, sub string) (string, error) {
	user, err := c.db.GetUserBySub(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return "", ErrUnknownUser
	}
	if user.RevenueCatID != "" {
		return user.RevenueCatID, nil
	}

	assigned := uuid.NewString()
	if err := c.db.SetUserRevenueCatID(ctx, sub, assigned); err != nil {
		return "", fmt.Errorf("failed to assign revenue cat id: %w", err)
	}
	// A concurrent first check may have won the assignment; the row holds
	// whichever id stuck.
	user, err = c.db.GetUserBySub(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("failed to reload user: %w", err)
	}
	if user == nil {
		return "", ErrUnknownUser
	}
	return user.RevenueCatID, nil
}
