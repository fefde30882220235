// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package database

import (
	"context"
	"fmt"

	"github.com/oseh/backend/internal/models"
)

// CreateImageFile records an uploaded image. The bytes themselves live in
// object storage keyed by the uid.
func (db *DB) CreateImageFile(ctx context.Context, f *models.ImageFile) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO image_files (uid, name, original_sha512, created_at) VALUES (?, ?, ?, ?)",
		f.UID, f.Name, f.OriginalSHA512, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert image file: %w", err)
	}
	return nil
}

// CreateContentFile records an uploaded audio asset.
func (db *DB) CreateContentFile(ctx context.Context, f *models.ContentFile) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO content_files (uid, name, duration_seconds, created_at) VALUES (?, ?, ?, ?)",
		f.UID, f.Name, f.DurationSeconds, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert content file: %w", err)
	}
	return nil
}

// CreateJourneySubcategory inserts a display grouping for journeys.
func (db *DB) CreateJourneySubcategory(ctx context.Context, sc *models.JourneySubcategory) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO journey_subcategories (uid, internal_name, external_name, bias) VALUES (?, ?, ?, ?)",
		sc.UID, sc.InternalName, sc.ExternalName, sc.Bias)
	if err != nil {
		return fmt.Errorf("failed to insert journey subcategory: %w", err)
	}
	return nil
}
