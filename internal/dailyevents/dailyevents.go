// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package dailyevents curates daily events and serves the "what's live now"
// external view. Which event is current is resolved against the database on
// every read (a single indexed lookup); only the event's rendered lineup
// goes through the cache-fill coordinator.
package dailyevents

import (
	"context"
	"time"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/localcache"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/sharedcache"
	"github.com/oseh/backend/internal/viewcache"
)

// Service owns the daily event view coordinator and the curation paths.
type Service struct {
	db     *database.DB
	signer *auth.Signer
	coord  *viewcache.Coordinator
}

// New wires the daily events view onto the shared cache tiers.
func New(db *database.DB, signer *auth.Signer, local *localcache.Cache, shared *sharedcache.Client) *Service {
	s := &Service{db: db, signer: signer}
	s.coord = viewcache.NewCoordinator(viewcache.Config{
		View:   "daily_events",
		Local:  local,
		Shared: shared,
		Fetch:  s.buildTemplate,
	})
	return s
}

// Coordinator exposes the view coordinator so the pub/sub subscriber can be
// wired to its channels.
func (s *Service) Coordinator() *viewcache.Coordinator { return s.coord }

// ReadCurrent returns the rendered view of the event live at now (unix
// seconds), or nil when nothing has premiered yet.
func (s *Service) ReadCurrent(ctx context.Context, now int64) ([]byte, error) {
	de, err := s.db.GetCurrentDailyEvent(ctx, now)
	if err != nil {
		return nil, err
	}
	if de == nil {
		return nil, nil
	}

	template, err := s.coord.ReadOne(ctx, de.UID, "")
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, nil
	}
	return viewcache.Render(template, renderer{signer: s.signer, uid: de.UID})
}

// WarmCurrent fills the template cache for the event live at now without
// rendering it, so the first real reader after a premiere skips the
// system-of-record fill. A nil error with no live event is a no-op.
func (s *Service) WarmCurrent(ctx context.Context, now int64) error {
	de, err := s.db.GetCurrentDailyEvent(ctx, now)
	if err != nil {
		return err
	}
	if de == nil {
		return nil
	}
	_, err = s.coord.ReadOne(ctx, de.UID, "")
	return err
}

// Search runs an admin search over daily events.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.DailyEvent], error) {
	return s.db.SearchDailyEvents(ctx, req)
}

// Create inserts an empty event. A non-nil availableAt schedules it
// immediately; otherwise it stays invisible until premiered.
func (s *Service) Create(ctx context.Context, availableAt *int64) (*models.DailyEvent, error) {
	de := &models.DailyEvent{
		UID:         models.NewUID("de"),
		AvailableAt: availableAt,
		CreatedAt:   time.Now().Unix(),
	}
	if err := s.db.CreateDailyEvent(ctx, de); err != nil {
		return nil, err
	}
	return de, nil
}

// AddJourney appends the journey to the event's lineup and evicts the
// event's cached view. Missing references surface as
// database.ErrReferenceNotFound.
func (s *Service) AddJourney(ctx context.Context, eventUID, journeyUID string) error {
	if err := s.db.AddJourneyToDailyEvent(ctx, eventUID, journeyUID); err != nil {
		return err
	}
	s.evict(ctx, eventUID)
	return nil
}

// Premiere sets when the event becomes the current one. found=false means
// no event has that uid.
func (s *Service) Premiere(ctx context.Context, uid string, availableAt int64) (bool, error) {
	found, err := s.db.PremiereDailyEvent(ctx, uid, availableAt)
	if err != nil || !found {
		return found, err
	}
	s.evict(ctx, uid)
	return true, nil
}

// evict never fails the mutation; a lost message only delays peers until
// their local TTL expires.
func (s *Service) evict(ctx context.Context, uid string) {
	if err := s.coord.EvictNow(ctx, uid); err != nil {
		logging.Warn().Err(err).Str("daily_event", uid).Msg("evict publish failed; peers serve stale until TTL")
	}
}
