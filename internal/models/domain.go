// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

import (
	"encoding/json"
)

// User is an account row. Sub is the stable identifier minted at signup
// ("oseh_u_…") and is the subject claim of the user's bearer tokens.
type User struct {
	Sub          string `json:"sub" db:"sub"`
	Email        string `json:"email" db:"email"`
	GivenName    string `json:"given_name" db:"given_name"`
	FamilyName   string `json:"family_name" db:"family_name"`
	Admin        bool   `json:"admin" db:"admin"`
	RevenueCatID string `json:"revenue_cat_id,omitempty" db:"revenue_cat_id"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

// ImageFile is an uploaded image (journey backgrounds, instructor pictures).
// The bytes live in object storage keyed by UID; the row is bookkeeping.
type ImageFile struct {
	UID            string `json:"uid" db:"uid"`
	Name           string `json:"name" db:"name"`
	OriginalSHA512 string `json:"original_sha512" db:"original_sha512"`
	CreatedAt      int64  `json:"created_at" db:"created_at"`
}

// ContentFile is an uploaded audio asset.
type ContentFile struct {
	UID             string  `json:"uid" db:"uid"`
	Name            string  `json:"name" db:"name"`
	DurationSeconds float64 `json:"duration_seconds" db:"duration_seconds"`
	CreatedAt       int64   `json:"created_at" db:"created_at"`
}

// Instructor leads journeys. Bias nudges content selection toward or away
// from this instructor when curating daily events; zero is neutral.
type Instructor struct {
	UID                 string  `json:"uid" db:"uid"`
	Name                string  `json:"name" db:"name"`
	Bias                float64 `json:"bias" db:"bias"`
	PictureImageFileUID string  `json:"picture_image_file_uid,omitempty"`
	CreatedAt           int64   `json:"created_at" db:"created_at"`
	DeletedAt           *int64  `json:"deleted_at,omitempty" db:"deleted_at"`
}

// JourneySubcategory groups journeys for display ("Anxiety", "Sleep").
// InternalName is for curation tooling; ExternalName is what clients see.
type JourneySubcategory struct {
	UID          string  `json:"uid" db:"uid"`
	InternalName string  `json:"internal_name" db:"internal_name"`
	ExternalName string  `json:"external_name" db:"external_name"`
	Bias         float64 `json:"bias" db:"bias"`
}

// Journey is a single meditation class: one audio content file, a background
// image (plus its blurred derivative), an instructor, and a subcategory.
// Related entities are referenced by uid; integer keys stay inside the
// database layer. Prompt is the lobby prompt definition, stored as JSON.
type Journey struct {
	UID                     string          `json:"uid"`
	Title                   string          `json:"title"`
	Description             string          `json:"description"`
	Prompt                  json.RawMessage `json:"prompt"`
	AudioContentFileUID     string          `json:"audio_content_file_uid"`
	BackgroundImageFileUID  string          `json:"background_image_file_uid"`
	BlurredImageFileUID     string          `json:"blurred_image_file_uid"`
	InstructorUID           string          `json:"instructor_uid"`
	InstructorName          string          `json:"instructor_name"`
	SubcategoryUID          string          `json:"subcategory_uid"`
	SubcategoryInternalName string          `json:"subcategory_internal_name"`
	SubcategoryExternalName string          `json:"subcategory_external_name"`
	DurationSeconds         float64         `json:"duration_seconds"`
	CreatedAt               int64           `json:"created_at"`
	DeletedAt               *int64          `json:"deleted_at,omitempty"`
}

// DailyEvent is a curated set of journeys premiered together. AvailableAt is
// null until the event is premiered; the current event is the one with the
// greatest available_at not in the future.
type DailyEvent struct {
	UID         string `json:"uid" db:"uid"`
	AvailableAt *int64 `json:"available_at,omitempty" db:"available_at"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
	// JourneyUIDs is populated on point reads, not by search.
	JourneyUIDs []string `json:"journey_uids,omitempty"`
}

// ImageRef points a client at an image file with a fresh access token.
type ImageRef struct {
	UID string `json:"uid"`
	JWT string `json:"jwt"`
}

// ContentRef points a client at a content file with a fresh access token.
type ContentRef struct {
	UID string `json:"uid"`
	JWT string `json:"jwt"`
}

// ExternalInstructor is the instructor summary embedded in external views.
type ExternalInstructor struct {
	Name string `json:"name"`
}

// ExternalCategory is the subcategory summary embedded in external views.
type ExternalCategory struct {
	ExternalName string `json:"external_name"`
}

// ExternalJourney is the client-facing journey view. SessionUID and the JWT
// fields are rendered fresh on every read; everything else is cacheable.
type ExternalJourney struct {
	UID                    string             `json:"uid"`
	SessionUID             string             `json:"session_uid"`
	JWT                    string             `json:"jwt"`
	Title                  string             `json:"title"`
	Description            string             `json:"description"`
	Category               ExternalCategory   `json:"category"`
	Instructor             ExternalInstructor `json:"instructor"`
	Prompt                 json.RawMessage    `json:"prompt"`
	DurationSeconds        float64            `json:"duration_seconds"`
	BackgroundImage        ImageRef           `json:"background_image"`
	BlurredBackgroundImage ImageRef           `json:"blurred_background_image"`
	AudioContent           ContentRef         `json:"audio_content"`
	CreatedAt              int64              `json:"created_at"`
}

// ExternalDailyEventJourney is a journey summary within a daily event view.
type ExternalDailyEventJourney struct {
	UID             string             `json:"uid"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Category        ExternalCategory   `json:"category"`
	Instructor      ExternalInstructor `json:"instructor"`
	DurationSeconds float64            `json:"duration_seconds"`
	BackgroundImage ImageRef           `json:"background_image"`
}

// ExternalDailyEvent is the client-facing daily event view.
type ExternalDailyEvent struct {
	UID         string                      `json:"uid"`
	JWT         string                      `json:"jwt"`
	AvailableAt int64                       `json:"available_at"`
	Journeys    []ExternalDailyEventJourney `json:"journeys"`
}

// Entitlement is one cached entitlement check result for a user. CheckedAt is
// when the provider (or fail-open path) produced it; ExpiresAt bounds how long
// caches may serve it. ActiveUntil is the subscription's own end, when known.
type Entitlement struct {
	Identifier  string `json:"identifier"`
	IsActive    bool   `json:"is_active"`
	ActiveUntil *int64 `json:"active_until,omitempty"`
	CheckedAt   int64  `json:"checked_at"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Fresh reports whether the cached result is still servable at now
// (unix seconds).
func (e *Entitlement) Fresh(now int64) bool {
	return now < e.ExpiresAt
}
