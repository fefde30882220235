// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

/*
schema.go - Database Schema Management

Tables:
  - users: accounts; sub is the stable identifier and bearer-token subject
  - image_files / content_files: uploaded media bookkeeping (bytes live in
    object storage keyed by uid)
  - instructors: journey leaders, soft-deleted via deleted_at
  - journey_subcategories: display grouping for journeys
  - journeys: one meditation class each, soft-deleted via deleted_at
  - daily_events: curated journey sets; available_at null until premiered
  - daily_event_journeys: ordered membership of journeys in a daily event
  - admin_tokens: personal access tokens for the admin surface

Conventions:
  - every externally visible row carries a TEXT uid (unique); integer
    primary keys are join plumbing and never leave this package
  - timestamps are unix seconds (INTEGER); nullable ones mark state
    (deleted_at, available_at, revoked_at)

All tables are defined in the initial CREATE TABLE statements; there is no
migration machinery yet. Revisit once a release has data worth carrying.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			sub TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			given_name TEXT NOT NULL DEFAULT '',
			family_name TEXT NOT NULL DEFAULT '',
			admin INTEGER NOT NULL DEFAULT 0,
			revenue_cat_id TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS image_files (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			original_sha512 TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS content_files (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			duration_seconds REAL NOT NULL,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS instructors (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			bias REAL NOT NULL DEFAULT 0,
			picture_image_file_id INTEGER REFERENCES image_files(id),
			created_at INTEGER NOT NULL,
			deleted_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS journey_subcategories (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			internal_name TEXT NOT NULL,
			external_name TEXT NOT NULL,
			bias REAL NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS journeys (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			prompt TEXT NOT NULL,
			audio_content_file_id INTEGER NOT NULL REFERENCES content_files(id),
			background_image_file_id INTEGER NOT NULL REFERENCES image_files(id),
			blurred_background_image_file_id INTEGER NOT NULL REFERENCES image_files(id),
			instructor_id INTEGER NOT NULL REFERENCES instructors(id),
			journey_subcategory_id INTEGER NOT NULL REFERENCES journey_subcategories(id),
			created_at INTEGER NOT NULL,
			deleted_at INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS daily_events (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			available_at INTEGER,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS daily_event_journeys (
			id INTEGER PRIMARY KEY,
			daily_event_id INTEGER NOT NULL REFERENCES daily_events(id) ON DELETE CASCADE,
			journey_id INTEGER NOT NULL REFERENCES journeys(id),
			position INTEGER NOT NULL,
			UNIQUE (daily_event_id, journey_id),
			UNIQUE (daily_event_id, position)
		)`,

		`CREATE TABLE IF NOT EXISTS admin_tokens (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			token_prefix TEXT NOT NULL,
			token_hash TEXT NOT NULL,
			expires_at INTEGER,
			created_at INTEGER NOT NULL,
			revoked_at INTEGER,
			last_used_at INTEGER
		)`,
	}
}

func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_created_at ON users(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_instructors_name ON instructors(name)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_created_at ON journeys(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_instructor ON journeys(instructor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_journeys_subcategory ON journeys(journey_subcategory_id)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_events_available_at ON daily_events(available_at)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_event_journeys_event ON daily_event_journeys(daily_event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_event_journeys_journey ON daily_event_journeys(journey_id)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
