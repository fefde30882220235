// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/oseh/backend/internal/models"
)

func TestGetJourneyView(t *testing.T) {
	a := newTestAPI(t)
	cat := seedCatalog(t, a.db)
	uid := models.NewUID("j")
	seedJourney(t, a.db, cat, uid, "Morning Calm", 1000)
	token := a.userToken(t, models.NewUID("u"))

	rec := a.do(t, http.MethodGet, "/api/1/journeys/"+uid, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	// View endpoints skip the envelope; the body is the view itself.
	var view models.ExternalJourney
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("body is not a journey view: %v\n%s", err, rec.Body.String())
	}
	if view.UID != uid || view.Title != "Morning Calm" {
		t.Errorf("uid/title = %q/%q", view.UID, view.Title)
	}
	if !strings.HasPrefix(view.SessionUID, "oseh_vs_") {
		t.Errorf("session uid = %q", view.SessionUID)
	}
	if view.JWT == "" || view.BackgroundImage.JWT == "" || view.AudioContent.JWT == "" {
		t.Error("expected fresh credentials in the view")
	}

	// A second read mints fresh per-request credentials for the same view.
	rec2 := a.do(t, http.MethodGet, "/api/1/journeys/"+uid, token, nil)
	var view2 models.ExternalJourney
	if err := json.Unmarshal(rec2.Body.Bytes(), &view2); err != nil {
		t.Fatalf("second body is not a journey view: %v", err)
	}
	if view2.SessionUID == view.SessionUID {
		t.Error("session uid reused across requests")
	}
}

func TestGetJourneyViewNotFound(t *testing.T) {
	a := newTestAPI(t)
	token := a.userToken(t, models.NewUID("u"))

	rec := a.do(t, http.MethodGet, "/api/1/journeys/oseh_j_AAAAAAAAAAAAAAAAAAAAAA", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if code := errorCode(t, rec); code != "not_found" {
		t.Errorf("error code = %q", code)
	}
}

func TestGetCurrentDailyEventView(t *testing.T) {
	a := newTestAPI(t)
	cat := seedCatalog(t, a.db)
	j1 := models.NewUID("j")
	j2 := models.NewUID("j")
	seedJourney(t, a.db, cat, j1, "Settle In", 1000)
	seedJourney(t, a.db, cat, j2, "Let Go", 1001)
	token := a.userToken(t, models.NewUID("u"))

	ctx := context.Background()
	eventUID := models.NewUID("de")
	if err := a.db.CreateDailyEvent(ctx, &models.DailyEvent{UID: eventUID, CreatedAt: 1000}); err != nil {
		t.Fatalf("CreateDailyEvent failed: %v", err)
	}
	if err := a.db.AddJourneyToDailyEvent(ctx, eventUID, j1); err != nil {
		t.Fatalf("AddJourneyToDailyEvent failed: %v", err)
	}
	if err := a.db.AddJourneyToDailyEvent(ctx, eventUID, j2); err != nil {
		t.Fatalf("AddJourneyToDailyEvent failed: %v", err)
	}

	// Nothing premiered yet.
	rec := a.do(t, http.MethodGet, "/api/1/daily_events/now", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("before premiere: status = %d, want 404", rec.Code)
	}

	if _, err := a.db.PremiereDailyEvent(ctx, eventUID, 1000); err != nil {
		t.Fatalf("PremiereDailyEvent failed: %v", err)
	}

	rec = a.do(t, http.MethodGet, "/api/1/daily_events/now", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var view models.ExternalDailyEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("body is not a daily event view: %v\n%s", err, rec.Body.String())
	}
	if view.UID != eventUID || view.AvailableAt != 1000 {
		t.Errorf("uid/available_at = %q/%d", view.UID, view.AvailableAt)
	}
	if len(view.Journeys) != 2 || view.Journeys[0].Title != "Settle In" || view.Journeys[1].Title != "Let Go" {
		t.Fatalf("lineup = %+v", view.Journeys)
	}
	if view.JWT == "" || view.Journeys[0].BackgroundImage.JWT == "" {
		t.Error("expected fresh credentials in the lineup")
	}
}
