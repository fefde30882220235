// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package journeys

import (
	"context"
	"fmt"

	"github.com/oseh/backend/internal/auth"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/viewcache"
)

// buildTemplate is the system-of-record read behind the coordinator. A nil
// result means the journey does not exist or is soft-deleted; the journeys
// view has no variants.
func (s *Service) buildTemplate(ctx context.Context, uid, variant string) ([]byte, error) {
	if variant != "" {
		return nil, nil
	}
	j, err := s.db.GetJourneyByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("load journey %s: %w", uid, err)
	}
	if j == nil || j.DeletedAt != nil {
		return nil, nil
	}
	return externalJourneyTemplate(j)
}

// externalJourneyTemplate encodes the models.ExternalJourney shape with
// placeholders for the session uid and every token.
func externalJourneyTemplate(j *models.Journey) ([]byte, error) {
	var t viewcache.JSONTemplate
	t.Text(`{"uid":`)
	t.Value(j.UID)
	t.Text(`,"session_uid":"`)
	t.SessionUID()
	t.Text(`","jwt":"`)
	t.EntityJWT()
	t.Text(`","title":`)
	t.Value(j.Title)
	t.Text(`,"description":`)
	t.Value(j.Description)
	t.Text(`,"category":{"external_name":`)
	t.Value(j.SubcategoryExternalName)
	t.Text(`},"instructor":{"name":`)
	t.Value(j.InstructorName)
	t.Text(`},"prompt":`)
	t.Raw(j.Prompt)
	t.Text(`,"duration_seconds":`)
	t.Value(j.DurationSeconds)
	t.Text(`,"background_image":{"uid":`)
	t.Value(j.BackgroundImageFileUID)
	t.Text(`,"jwt":"`)
	t.ImageFileJWT(j.BackgroundImageFileUID)
	t.Text(`"},"blurred_background_image":{"uid":`)
	t.Value(j.BlurredImageFileUID)
	t.Text(`,"jwt":"`)
	t.ImageFileJWT(j.BlurredImageFileUID)
	t.Text(`"},"audio_content":{"uid":`)
	t.Value(j.AudioContentFileUID)
	t.Text(`,"jwt":"`)
	t.ContentFileJWT(j.AudioContentFileUID)
	t.Text(`"},"created_at":`)
	t.Value(j.CreatedAt)
	t.Text(`}`)
	return t.Bytes()
}

// renderer resolves placeholders for one serving of a journey view.
type renderer struct {
	signer *auth.Signer
	uid    string
}

func (r renderer) SessionUID() (string, error) {
	return models.NewUID("vs"), nil
}

func (r renderer) EntityJWT() (string, error) {
	return r.signer.JourneyJWT(r.uid)
}

func (r renderer) ImageFileJWT(fileUID string) (string, error) {
	return r.signer.ImageFileJWT(fileUID)
}

func (r renderer) ContentFileJWT(fileUID string) (string, error) {
	return r.signer.ContentFileJWT(fileUID)
}
