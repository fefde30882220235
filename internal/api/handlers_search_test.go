// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/query"
)

func TestSearchJourneysPaginates(t *testing.T) {
	a := newTestAPI(t)
	cat := seedCatalog(t, a.db)
	seedJourney(t, a.db, cat, models.NewUID("j"), "A Quiet Start", 1000)
	seedJourney(t, a.db, cat, models.NewUID("j"), "Body Scan", 2000)
	seedJourney(t, a.db, cat, models.NewUID("j"), "Counting Breaths", 3000)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Sort:  []query.SortItem{{Key: "created_at", Dir: query.DirAscending}},
		Limit: 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var page models.SearchResponse[models.Journey]
	dataAs(t, decodeEnvelope(t, rec), &page)
	if len(page.Items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(page.Items))
	}
	if page.Items[0].Title != "A Quiet Start" || page.Items[1].Title != "Body Scan" {
		t.Errorf("page 1 = %q, %q", page.Items[0].Title, page.Items[1].Title)
	}
	if page.NextPageSort == nil {
		t.Fatal("expected next_page_sort on a full page")
	}

	// The client resubmits next_page_sort verbatim.
	rec = a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Sort:  page.NextPageSort,
		Limit: 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("page 2 status = %d: %s", rec.Code, rec.Body.String())
	}

	var page2 models.SearchResponse[models.Journey]
	dataAs(t, decodeEnvelope(t, rec), &page2)
	if len(page2.Items) != 1 || page2.Items[0].Title != "Counting Breaths" {
		t.Fatalf("page 2 = %+v", page2.Items)
	}
	if page2.NextPageSort != nil {
		t.Error("last page should have no next_page_sort")
	}
}

func TestSearchJourneysFilters(t *testing.T) {
	a := newTestAPI(t)
	cat := seedCatalog(t, a.db)
	seedJourney(t, a.db, cat, models.NewUID("j"), "Morning Calm", 1000)
	seedJourney(t, a.db, cat, models.NewUID("j"), "Evening Wind Down", 2000)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Filters: map[string]*query.FilterItem{
			"title": {Operator: query.OpEqualCaseInsensitive, Value: "morning calm"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var page models.SearchResponse[models.Journey]
	dataAs(t, decodeEnvelope(t, rec), &page)
	if len(page.Items) != 1 || page.Items[0].Title != "Morning Calm" {
		t.Fatalf("items = %+v", page.Items)
	}
}

func TestSearchRejectsUnknownSortKey(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Sort: []query.SortItem{{Key: "popularity", Dir: query.DirAscending}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	if code := errorCode(t, rec); code != "unknown_sort_item" {
		t.Errorf("error code = %q, want unknown_sort_item", code)
	}
}

func TestSearchRejectsDuplicateSortKeys(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Sort: []query.SortItem{
			{Key: "title", Dir: query.DirAscending},
			{Key: "title", Dir: query.DirDescending},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if code := errorCode(t, rec); code != "duplicate_sort_items" {
		t.Errorf("error code = %q, want duplicate_sort_items", code)
	}
}

func TestSearchRejectsPartialCursor(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	// A cursor on title but none on the appended unique key means the
	// client edited next_page_sort instead of resubmitting it.
	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Sort: []query.SortItem{{Key: "title", Dir: query.DirAscending, After: "m"}},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if code := errorCode(t, rec); code != "inconsistent_pagination" {
		t.Errorf("error code = %q, want inconsistent_pagination", code)
	}
}

func TestSearchRejectsUnknownFilterKey(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{
		Filters: map[string]*query.FilterItem{
			"popularity": {Operator: query.OpEqual, Value: 1},
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if code := errorCode(t, rec); code != "unknown_filter" {
		t.Errorf("error code = %q, want unknown_filter", code)
	}
}

func TestSearchRejectsOversizedLimit(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, &models.SearchRequest{Limit: 10000})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	if code := errorCode(t, rec); code != "validation_error" {
		t.Errorf("error code = %q, want validation_error", code)
	}
}

func TestSearchBodyHandling(t *testing.T) {
	a := newTestAPI(t)
	admin := a.adminToken(t, models.RoleAdmin)

	// An omitted body is a valid all-defaults search.
	rec := a.do(t, http.MethodPost, "/api/1/journeys/search", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body: status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = a.doRaw(t, http.MethodPost, "/api/1/journeys/search", admin, "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken body: status = %d, want 400", rec.Code)
	}
	if code := errorCode(t, rec); code != "invalid_body" {
		t.Errorf("error code = %q, want invalid_body", code)
	}
}

func TestSearchOtherEntities(t *testing.T) {
	a := newTestAPI(t)
	cat := seedCatalog(t, a.db)
	seedUser(t, a.db)
	admin := a.adminToken(t, models.RoleAdmin)

	// Instructor seeded by the catalog.
	rec := a.do(t, http.MethodPost, "/api/1/instructors/search", admin, &models.SearchRequest{
		Filters: map[string]*query.FilterItem{
			"uid": {Operator: query.OpEqual, Value: cat.InstructorUID},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("instructors: status = %d: %s", rec.Code, rec.Body.String())
	}
	var instructors models.SearchResponse[models.Instructor]
	dataAs(t, decodeEnvelope(t, rec), &instructors)
	if len(instructors.Items) != 1 || instructors.Items[0].Name != "Anna Wise" {
		t.Fatalf("instructors = %+v", instructors.Items)
	}

	rec = a.do(t, http.MethodPost, "/api/1/users/search", admin, &models.SearchRequest{
		Filters: map[string]*query.FilterItem{
			"email": {Operator: query.OpILike, Value: "%example.com"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("users: status = %d: %s", rec.Code, rec.Body.String())
	}
	var userPage models.SearchResponse[models.User]
	dataAs(t, decodeEnvelope(t, rec), &userPage)
	if len(userPage.Items) != 1 || !strings.HasPrefix(userPage.Items[0].Sub, "oseh_u_") {
		t.Fatalf("users = %+v", userPage.Items)
	}

	rec = a.do(t, http.MethodPost, "/api/1/daily_events/search", admin, &models.SearchRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("daily events: status = %d: %s", rec.Code, rec.Body.String())
	}
}
