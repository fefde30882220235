// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package authz

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
)

// Require gates a route group behind an object/action policy check. It must
// sit inside auth.RequireAdmin, which puts the token row in the context.
func Require(enforcer *Enforcer, object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.AdminFromContext(r.Context())
			if !ok {
				respond(w, http.StatusForbidden, "forbidden", "no admin authentication context")
				return
			}

			allowed, err := enforcer.Allowed(token.Role, object, action)
			if err != nil {
				logging.Error().Err(err).Msg("authorization check failed")
				respond(w, http.StatusInternalServerError, "internal_error", "authorization check failed")
				return
			}
			if !allowed {
				logging.Debug().
					Str("role", string(token.Role)).
					Str("object", object).
					Str("action", action).
					Msg("admin action denied")
				respond(w, http.StatusForbidden, "forbidden",
					fmt.Sprintf("role %s may not %s %s", token.Role, action, object))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respond(w http.ResponseWriter, status int, code, message string) {
	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	}
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
