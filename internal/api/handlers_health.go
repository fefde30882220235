// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/oseh/backend/internal/models"
)

// readyzTimeout bounds the dependency pings so a wedged store cannot hang
// the probe.
const readyzTimeout = 2 * time.Second

// Healthz is the liveness probe: the process is up and serving.
//
// GET /healthz
func (rt *Router) Healthz(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"}, 0)
}

// Readyz is the readiness probe: both backing stores answer.
//
// GET /readyz
func (rt *Router) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()

	checks := map[string]interface{}{"database": "ok", "redis": "ok"}
	healthy := true

	if err := rt.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if err := rt.shared.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	}

	if !healthy {
		respondError(w, http.StatusServiceUnavailable, &models.APIError{
			Code:    "not_ready",
			Message: "dependencies unavailable",
			Details: map[string]interface{}{"checks": checks},
		})
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"}, 0)
}
