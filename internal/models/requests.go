// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

import (
	"encoding/json"
)

// UpdateJourneyRequest patches a journey. Nil fields are left unchanged.
type UpdateJourneyRequest struct {
	Title          *string         `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description    *string         `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	InstructorUID  *string         `json:"instructor_uid,omitempty" validate:"omitempty,oseh_uid"`
	SubcategoryUID *string         `json:"subcategory_uid,omitempty" validate:"omitempty,oseh_uid"`
	Prompt         json.RawMessage `json:"prompt,omitempty"`
}

// PremiereDailyEventRequest schedules a daily event. AvailableAt is unix
// seconds; nil premieres immediately.
type PremiereDailyEventRequest struct {
	AvailableAt *int64 `json:"available_at,omitempty" validate:"omitempty,min=0"`
}

// CreateDailyEventRequest creates an empty daily event, optionally already
// scheduled.
type CreateDailyEventRequest struct {
	AvailableAt *int64 `json:"available_at,omitempty" validate:"omitempty,min=0"`
}

// AddDailyEventJourneyRequest appends a journey to an event's lineup.
type AddDailyEventJourneyRequest struct {
	JourneyUID string `json:"journey_uid" validate:"required,oseh_uid"`
}

// CreateInstructorRequest adds an instructor to the catalog.
type CreateInstructorRequest struct {
	Name                string  `json:"name" validate:"required,min=1,max=120"`
	Bias                float64 `json:"bias"`
	PictureImageFileUID string  `json:"picture_image_file_uid,omitempty" validate:"omitempty,oseh_uid"`
}

// CreateUserRequest provisions an account row; the sub is minted server-side.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	GivenName  string `json:"given_name,omitempty" validate:"omitempty,max=120"`
	FamilyName string `json:"family_name,omitempty" validate:"omitempty,max=120"`
	Admin      bool   `json:"admin"`
}
