// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/models"
)

// requestAs runs a request through Require with the given token row already
// in the context, the way auth.RequireAdmin would leave it.
func requestAs(t *testing.T, enforcer *Enforcer, token *models.AdminToken, object, action string) *httptest.ResponseRecorder {
	t.Helper()

	handler := Require(enforcer, object, action)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/1/admin/journeys/search", nil)
	if token != nil {
		req = req.WithContext(context.WithValue(req.Context(), auth.AdminContextKey, token))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRequireAllowsPermittedRole(t *testing.T) {
	enforcer := setupEnforcer(t)
	token := &models.AdminToken{UID: "oseh_at_x", Role: models.RoleSupport}

	rec := requestAs(t, enforcer, token, ObjectJourneys, ActionRead)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireDeniesForbiddenRole(t *testing.T) {
	enforcer := setupEnforcer(t)
	token := &models.AdminToken{UID: "oseh_at_x", Role: models.RoleSupport}

	rec := requestAs(t, enforcer, token, ObjectJourneys, ActionWrite)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response body is not the JSON envelope: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != "forbidden" {
		t.Errorf("expected error code forbidden, got %+v", resp.Error)
	}
}

func TestRequireDeniesMissingContext(t *testing.T) {
	enforcer := setupEnforcer(t)

	rec := requestAs(t, enforcer, nil, ObjectJourneys, ActionRead)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
