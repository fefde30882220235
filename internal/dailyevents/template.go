// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package dailyevents

import (
	"context"
	"fmt"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/viewcache"
)

// buildTemplate is the system-of-record read behind the coordinator. Events
// that do not exist or have never premiered have no external view.
func (s *Service) buildTemplate(ctx context.Context, uid, variant string) ([]byte, error) {
	if variant != "" {
		return nil, nil
	}
	de, err := s.db.GetDailyEventByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load daily event %s: %w", uid, err)
	}
	if de == nil || de.AvailableAt == nil {
		return nil, nil
	}

	lineup, err := s.db.GetDailyEventJourneys(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load daily event %s lineup: %w", uid, err)
	}
	return externalDailyEventTemplate(de, lineup)
}

// externalDailyEventTemplate encodes the models.ExternalDailyEvent shape:
// one entity JWT placeholder for the event, one image JWT placeholder per
// lineup entry. The lineup itself is cacheable.
func externalDailyEventTemplate(de *models.DailyEvent, lineup []models.Journey) ([]byte, error) {
	var t viewcache.JSONTemplate
	t.Text(`{"uid":`)
	t.Value(de.UID)
	t.Text(`,"jwt":"`)
	t.EntityJWT()
	t.Text(`","available_at":`)
	t.Value(*de.AvailableAt)
	t.Text(`,"journeys":[`)
	for i := range lineup {
		j := &lineup[i]
		if i > 0 {
			t.Text(`,`)
		}
		t.Text(`{"uid":`)
		t.Value(j.UID)
		t.Text(`,"title":`)
		t.Value(j.Title)
		t.Text(`,"description":`)
		t.Value(j.Description)
		t.Text(`,"category":{"external_name":`)
		t.Value(j.SubcategoryExternalName)
		t.Text(`},"instructor":{"name":`)
		t.Value(j.InstructorName)
		t.Text(`},"duration_seconds":`)
		t.Value(j.DurationSeconds)
		t.Text(`,"background_image":{"uid":`)
		t.Value(j.BackgroundImageFileUID)
		t.Text(`,"jwt":"`)
		t.ImageFileJWT(j.BackgroundImageFileUID)
		t.Text(`"}}`)
	}
	t.Text(`]}`)
	return t.Bytes()
}

// renderer resolves placeholders for one serving of a daily event view. The
// view carries no session uid; SessionUID exists to satisfy the interface.
type renderer struct {
	signer *auth.Signer
	uid    string
}

func (r renderer) SessionUID() (string, error) {
	return models.NewUID("vs"), nil
}

func (r renderer) EntityJWT() (string, error) {
	return r.signer.DailyEventJWT(r.uid)
}

func (r renderer) ImageFileJWT(fileUID string) (string, error) {
	return r.signer.ImageFileJWT(fileUID)
}

func (r renderer) ContentFileJWT(fileUID string) (string, error) {
	return r.signer.ContentFileJWT(fileUID)
}
