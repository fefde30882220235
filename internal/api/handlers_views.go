// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// GetJourney serves the rendered external view of one journey.
//
// GET /api/1/journeys/{uid}
//
// The body comes from the view cache; the embedded session uid and JWTs are
// rendered fresh for this request. Unknown and soft-deleted journeys 404.
func (rt *Router) GetJourney(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	body, err := rt.journeys.Read(r.Context(), uid)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if body == nil {
		respondNotFound(w, "journey not found")
		return
	}
	respondView(w, body)
}

// GetCurrentDailyEvent serves the rendered lineup of the daily event
// premiered most recently before now.
//
// GET /api/1/daily_events/now
func (rt *Router) GetCurrentDailyEvent(w http.ResponseWriter, r *http.Request) {
	body, err := rt.dailyEvents.ReadCurrent(r.Context(), time.Now().Unix())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if body == nil {
		respondNotFound(w, "no daily event is live")
		return
	}
	respondView(w, body)
}
