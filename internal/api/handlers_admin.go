// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/models"
)

// UpdateJourney patches journey fields and responds with the updated admin
// row.
//
// PUT /api/1/journeys/{uid}
func (rt *Router) UpdateJourney(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req models.UpdateJourneyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	found, err := rt.journeys.Update(r.Context(), uid, &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondNotFound(w, "journey not found")
		return
	}

	journey, err := rt.journeys.Get(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, journey, time.Since(start))
}

// DeleteJourney soft-deletes a journey. The journey stops rendering for
// users immediately but stays reachable through admin search.
//
// DELETE /api/1/journeys/{uid}
func (rt *Router) DeleteJourney(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	start := time.Now()
	found, err := rt.journeys.Delete(r.Context(), uid, time.Now().Unix())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondNotFound(w, "journey not found")
		return
	}
	respondData(w, http.StatusOK, nil, time.Since(start))
}

// CreateDailyEvent creates a daily event, optionally already premiered.
//
// POST /api/1/daily_events
func (rt *Router) CreateDailyEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDailyEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	event, err := rt.dailyEvents.Create(r.Context(), req.AvailableAt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, event, time.Since(start))
}

// AddDailyEventJourney appends a journey to the event's lineup.
//
// POST /api/1/daily_events/{uid}/journeys
func (rt *Router) AddDailyEventJourney(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req models.AddDailyEventJourneyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	if err := rt.dailyEvents.AddJourney(r.Context(), uid, req.JourneyUID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{
		"daily_event_uid": uid,
		"journey_uid":     req.JourneyUID,
	}, time.Since(start))
}

// PremiereDailyEvent schedules the event. An omitted available_at premieres
// it immediately; re-premiering moves the time.
//
// POST /api/1/daily_events/{uid}/premiere
func (rt *Router) PremiereDailyEvent(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	var req models.PremiereDailyEventRequest
	if !decodeBody(w, r, &req) {
		return
	}

	availableAt := time.Now().Unix()
	if req.AvailableAt != nil {
		availableAt = *req.AvailableAt
	}

	start := time.Now()
	found, err := rt.dailyEvents.Premiere(r.Context(), uid, availableAt)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if !found {
		respondNotFound(w, "daily event not found")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{
		"uid":          uid,
		"available_at": availableAt,
	}, time.Since(start))
}

// CreateInstructor adds an instructor to the catalog.
//
// POST /api/1/instructors
func (rt *Router) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInstructorRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	instructor, err := rt.instructors.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, instructor, time.Since(start))
}

// GetInstructor reads one instructor row.
//
// GET /api/1/instructors/{uid}
func (rt *Router) GetInstructor(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	start := time.Now()
	instructor, err := rt.instructors.Get(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if instructor == nil {
		respondNotFound(w, "instructor not found")
		return
	}
	respondData(w, http.StatusOK, instructor, time.Since(start))
}

// CreateUser provisions a user row with a freshly minted sub.
//
// POST /api/1/users
func (rt *Router) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	user, err := rt.users.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, user, time.Since(start))
}

// createAdminTokenResponse carries the one-time plaintext next to the stored
// row. The plaintext is never retrievable again.
type createAdminTokenResponse struct {
	Token   string             `json:"token"`
	Details *models.AdminToken `json:"details"`
}

// ListAdminTokens lists all admin tokens, hashes omitted.
//
// GET /api/1/admin_tokens
func (rt *Router) ListAdminTokens(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	tokens, err := rt.tokens.List(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, tokens, time.Since(start))
}

// CreateAdminToken mints a personal access token. The response is the only
// place the plaintext ever appears.
//
// POST /api/1/admin_tokens
func (rt *Router) CreateAdminToken(w http.ResponseWriter, r *http.Request) {
	var req auth.CreateAdminTokenRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	token, plaintext, err := rt.tokens.Create(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, createAdminTokenResponse{
		Token:   plaintext,
		Details: token,
	}, time.Since(start))
}

// RevokeAdminToken revokes a token by uid. Revocation is visible on the next
// request that presents the token.
//
// DELETE /api/1/admin_tokens/{uid}
func (rt *Router) RevokeAdminToken(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	start := time.Now()
	if err := rt.tokens.Revoke(r.Context(), uid); err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			respondNotFound(w, "admin token not found")
			return
		}
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, nil, time.Since(start))
}
