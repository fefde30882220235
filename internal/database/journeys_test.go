// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package database

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/oseh/backend/internal/models"
)

func TestCreateJourneyAndGetByUID(t *testing.T) {
	db := newTestDB(t)
	fix := seedCatalog(t, db)
	ctx := context.Background()

	uid := models.NewUID("j")
	seedJourney(t, db, fix, uid, "morning calm", 1234)

	j, err := db.GetJourneyByUID(ctx, uid)
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if j == nil {
		t.Fatal("expected journey, got nil")
	}
	if j.Title != "morning calm" || j.CreatedAt != 1234 {
		t.Errorf("unexpected journey row: %+v", j)
	}
	if j.InstructorUID != fix.InstructorUID || j.InstructorName != "Dylan Werner" {
		t.Errorf("expected denormalized instructor, got %+v", j)
	}
	if j.SubcategoryInternalName != "anxiety" || j.SubcategoryExternalName != "Anxiety" {
		t.Errorf("expected denormalized subcategory, got %+v", j)
	}
	if j.AudioContentFileUID != fix.AudioUID || j.DurationSeconds != 300 {
		t.Errorf("expected audio file detail, got %+v", j)
	}
	if j.BackgroundImageFileUID != fix.BackgroundUID || j.BlurredImageFileUID != fix.BlurredUID {
		t.Errorf("expected image file uids, got %+v", j)
	}
	if j.DeletedAt != nil {
		t.Errorf("expected live journey, got deleted_at %v", *j.DeletedAt)
	}

	var prompt map[string]any
	if err := json.Unmarshal(j.Prompt, &prompt); err != nil {
		t.Fatalf("prompt is not valid JSON: %v", err)
	}
	if prompt["style"] != "numeric" {
		t.Errorf("unexpected prompt: %s", j.Prompt)
	}

	missing, err := db.GetJourneyByUID(ctx, "oseh_j_missing")
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing journey, got %+v", missing)
	}
}

func TestCreateJourneyMissingReference(t *testing.T) {
	db := newTestDB(t)
	fix := seedCatalog(t, db)
	ctx := context.Background()

	broken := fix
	broken.InstructorUID = "oseh_i_missing"
	err := db.CreateJourney(ctx, &models.Journey{
		UID:                    models.NewUID("j"),
		Title:                  "orphaned",
		Description:            "a class",
		AudioContentFileUID:    broken.AudioUID,
		BackgroundImageFileUID: broken.BackgroundUID,
		BlurredImageFileUID:    broken.BlurredUID,
		InstructorUID:          broken.InstructorUID,
		SubcategoryUID:         broken.SubcategoryUID,
		CreatedAt:              1000,
	})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
}

func TestUpdateJourney(t *testing.T) {
	db := newTestDB(t)
	fix := seedCatalog(t, db)
	ctx := context.Background()

	uid := models.NewUID("j")
	seedJourney(t, db, fix, uid, "old title", 1000)

	title := "new title"
	found, err := db.UpdateJourney(ctx, uid, &models.UpdateJourneyRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateJourney failed: %v", err)
	}
	if !found {
		t.Fatal("expected found")
	}

	j, err := db.GetJourneyByUID(ctx, uid)
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if j.Title != "new title" {
		t.Errorf("expected updated title, got %q", j.Title)
	}

	// Swapping the instructor re-reads through the join.
	otherUID := models.NewUID("i")
	if err := db.CreateInstructor(ctx, &models.Instructor{
		UID: otherUID, Name: "Anna Wise", CreatedAt: 1000,
	}); err != nil {
		t.Fatalf("CreateInstructor failed: %v", err)
	}
	found, err = db.UpdateJourney(ctx, uid, &models.UpdateJourneyRequest{
		InstructorUID: &otherUID,
		Prompt:        json.RawMessage(`{"style":"word","text":"One word for today?","options":["calm","tired"]}`),
	})
	if err != nil {
		t.Fatalf("UpdateJourney failed: %v", err)
	}
	if !found {
		t.Fatal("expected found")
	}
	j, err = db.GetJourneyByUID(ctx, uid)
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if j.InstructorUID != otherUID || j.InstructorName != "Anna Wise" {
		t.Errorf("expected swapped instructor, got %+v", j)
	}
	var prompt map[string]any
	if err := json.Unmarshal(j.Prompt, &prompt); err != nil {
		t.Fatalf("prompt is not valid JSON: %v", err)
	}
	if prompt["style"] != "word" {
		t.Errorf("expected updated prompt, got %s", j.Prompt)
	}

	// Patching toward a missing reference fails without clearing anything.
	missingInstructor := "oseh_i_missing"
	_, err = db.UpdateJourney(ctx, uid, &models.UpdateJourneyRequest{InstructorUID: &missingInstructor})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("expected ErrReferenceNotFound, got %v", err)
	}
	j, err = db.GetJourneyByUID(ctx, uid)
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if j.InstructorUID != otherUID {
		t.Errorf("expected instructor unchanged after failed update, got %+v", j)
	}

	// An empty patch is an existence check.
	found, err = db.UpdateJourney(ctx, uid, &models.UpdateJourneyRequest{})
	if err != nil {
		t.Fatalf("UpdateJourney failed: %v", err)
	}
	if !found {
		t.Error("expected found for existing journey")
	}
	found, err = db.UpdateJourney(ctx, "oseh_j_missing", &models.UpdateJourneyRequest{Title: &title})
	if err != nil {
		t.Fatalf("UpdateJourney failed: %v", err)
	}
	if found {
		t.Error("expected not found for missing journey")
	}
}

func TestSoftDeleteJourney(t *testing.T) {
	db := newTestDB(t)
	fix := seedCatalog(t, db)
	ctx := context.Background()

	uid := models.NewUID("j")
	seedJourney(t, db, fix, uid, "short lived", 1000)

	found, err := db.SoftDeleteJourney(ctx, uid, 2000)
	if err != nil {
		t.Fatalf("SoftDeleteJourney failed: %v", err)
	}
	if !found {
		t.Fatal("expected found")
	}

	j, err := db.GetJourneyByUID(ctx, uid)
	if err != nil {
		t.Fatalf("GetJourneyByUID failed: %v", err)
	}
	if j == nil {
		t.Fatal("soft-deleted journey should still read back")
	}
	if j.DeletedAt == nil || *j.DeletedAt != 2000 {
		t.Errorf("expected deleted_at 2000, got %v", j.DeletedAt)
	}

	// Deleting again is a no-op and keeps the original stamp.
	found, err = db.SoftDeleteJourney(ctx, uid, 3000)
	if err != nil {
		t.Fatalf("second SoftDeleteJourney failed: %v", err)
	}
	if found {
		t.Error("expected not found for already-deleted journey")
	}

	found, err = db.SoftDeleteJourney(ctx, "oseh_j_missing", 2000)
	if err != nil {
		t.Fatalf("SoftDeleteJourney failed: %v", err)
	}
	if found {
		t.Error("expected not found for missing journey")
	}
}
