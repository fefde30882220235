// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package journeys serves the external journey view through the cache-fill
// coordinator and routes admin mutations through it so cached copies are
// invalidated. The view is cached as a template; session uids and JWTs are
// rendered fresh on every read.
package journeys

import (
	"context"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/localcache"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/sharedcache"
	"github.com/oseh/backend/internal/viewcache"
)

// Service owns the journey view coordinator and the journey mutation paths.
type Service struct {
	db     *database.DB
	signer *auth.Signer
	coord  *viewcache.Coordinator
}

// New wires the journeys view onto the shared cache tiers.
func New(db *database.DB, signer *auth.Signer, local *localcache.Cache, shared *sharedcache.Client) *Service {
	s := &Service{db: db, signer: signer}
	s.coord = viewcache.NewCoordinator(viewcache.Config{
		View:   "journeys",
		Local:  local,
		Shared: shared,
		Fetch:  s.buildTemplate,
	})
	return s
}

// Coordinator exposes the view coordinator so the pub/sub subscriber can be
// wired to its channels.
func (s *Service) Coordinator() *viewcache.Coordinator { return s.coord }

// Read returns the rendered external view of the journey, or nil when no
// such journey exists. Soft-deleted journeys read as missing.
func (s *Service) Read(ctx context.Context, uid string) ([]byte, error) {
	template, err := s.coord.ReadOne(ctx, uid, "")
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}
	return viewcache.Render(template, renderer{signer: s.signer, uid: uid})
}

// Search runs an admin search over journeys.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.Journey], error) {
	return s.db.SearchJourneys(ctx, req)
}

// Get returns the admin row for a journey, nil when missing. Unlike Read it
// includes soft-deleted journeys.
func (s *Service) Get(ctx context.Context, uid string) (*models.Journey, error) {
	return s.db.GetJourneyByUID(ctx, uid)
}

// Update applies the patch and announces the change to every cache holding
// the old view. found=false means no journey has that uid.
func (s *Service) Update(ctx context.Context, uid string, req *models.UpdateJourneyRequest) (bool, error) {
	found, err := s.db.UpdateJourney(ctx, uid, req)
	if err != nil || !found {
		return found, err
	}
	s.evict(ctx, uid)
	return true, nil
}

// Delete soft-deletes the journey at now (unix seconds) and evicts its view.
func (s *Service) Delete(ctx context.Context, uid string, now int64) (bool, error) {
	found, err := s.db.SoftDeleteJourney(ctx, uid, now)
	if err != nil || !found {
		return found, err
	}
	s.evict(ctx, uid)
	return true, nil
}

// evict never fails the mutation: the write committed, and a lost evict only
// means peers serve the old view until their local TTL expires.
func (s *Service) evict(ctx context.Context, uid string) {
	if err := s.coord.EvictNow(ctx, uid); err != nil {
		logging.Warn().Err(err).Str("journey", uid).Msg("evict publish failed; peers serve stale until TTL")
	}
}
