// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
)

// contextKey is a private type for context values to avoid collisions.
type contextKey string

const (
	// UserContextKey holds the *UserClaims of the authenticated user.
	UserContextKey contextKey = "user"

	// AdminContextKey holds the *models.AdminToken of the authenticated
	// admin. The token row is re-read on every request, so revocation is
	// visible immediately.
	AdminContextKey contextKey = "admin"
)

// RequireUser authenticates requests carrying a user JWT in the
// Authorization header. On success the validated claims are stored in the
// request context under UserContextKey.
func RequireUser(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			claims, err := signer.ValidateUserToken(token)
			if err != nil {
				logging.Debug().Err(err).Msg("user token rejected")
				unauthorized(w, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin authenticates requests carrying an admin personal access
// token in the Authorization header. On success the token row is stored in
// the request context under AdminContextKey; role-based route gating is
// layered on top by the authz package.
func RequireAdmin(manager *AdminTokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}
			if !IsAdminToken(token) {
				unauthorized(w, "admin endpoints require a personal access token")
				return
			}
			record, err := manager.Validate(r.Context(), token)
			if err != nil {
				logging.Debug().Err(err).Msg("admin token rejected")
				unauthorized(w, "invalid, revoked, or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), AdminContextKey, record)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user's claims, if present.
func UserFromContext(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*UserClaims)
	return claims, ok
}

// AdminFromContext returns the authenticated admin's token row, if present.
func AdminFromContext(ctx context.Context) (*models.AdminToken, bool) {
	record, ok := ctx.Value(AdminContextKey).(*models.AdminToken)
	return record, ok
}

// bearerToken extracts the credential from an "Authorization: Bearer ..."
// header. The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter, message string) {
	resp := models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: "unauthorized", Message: message},
	}
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, message, http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(body)
}
