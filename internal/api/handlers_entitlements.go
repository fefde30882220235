// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
)

// GetEntitlement reports whether the authenticated user holds the named
// entitlement.
//
// GET /api/1/users/me/entitlements/{identifier}?force=1
//
// force bypasses the caches and asks the provider directly. It spends from a
// small per-user budget and silently degrades to a cached read once the
// budget is gone, so a stuck client retry loop cannot become a provider
// outage.
func (rt *Router) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, &models.APIError{
			Code:    "unauthorized",
			Message: "authentication required",
		})
		return
	}

	identifier := chi.URLParam(r, "identifier")

	force := false
	switch r.URL.Query().Get("force") {
	case "1", "true":
		force = rt.force.Allow(claims.Subject)
		if !force {
			logging.Debug().Str("sub", claims.Subject).Msg("force refresh budget exhausted, serving cached")
		}
	}

	start := time.Now()
	ent, err := rt.entitlements.Check(r.Context(), claims.Subject, identifier, force)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, ent, time.Since(start))
}
