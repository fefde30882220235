// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"net/http"
	"time"

	"github.com/oseh/backend/internal/models"
)

// Admin search endpoints. Each accepts a models.SearchRequest body and
// returns one keyset page; the client resubmits next_page_sort verbatim to
// get the page after. Filter and sort mistakes come back as 422 with a
// stable error code.

// SearchJourneys handles POST /api/1/journeys/search.
func (rt *Router) SearchJourneys(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	page, err := rt.journeys.Search(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page, time.Since(start))
}

// SearchDailyEvents handles POST /api/1/daily_events/search.
func (rt *Router) SearchDailyEvents(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	page, err := rt.dailyEvents.Search(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page, time.Since(start))
}

// SearchInstructors handles POST /api/1/instructors/search.
func (rt *Router) SearchInstructors(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	page, err := rt.instructors.Search(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page, time.Since(start))
}

// SearchUsers handles POST /api/1/users/search.
func (rt *Router) SearchUsers(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	page, err := rt.users.Search(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, page, time.Since(start))
}
