// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/query"
)

var dailyEventPseudocolumns = map[string]query.Column{
	"uid":          {Expr: "de.uid"},
	"available_at": {Expr: "de.available_at", Nullable: true},
	"created_at":   {Expr: "de.created_at"},
}

// available_at is a nullable sort key: unpremiered events have no value and
// collate below every premiered one.
var dailyEventSortOptions = []query.SortOption{
	{Key: "uid", Unique: true},
	{Key: "available_at"},
	{Key: "created_at"},
}

func scanDailyEvent(row rowScanner) (models.DailyEvent, error) {
	var de models.DailyEvent
	var availableAt sql.NullInt64

	if err := row.Scan(&de.UID, &availableAt, &de.CreatedAt); err != nil {
		return models.DailyEvent{}, err
	}
	if availableAt.Valid {
		de.AvailableAt = &availableAt.Int64
	}
	return de, nil
}

func dailyEventSearchSpec() SearchSpec[models.DailyEvent] {
	return SearchSpec[models.DailyEvent]{
		Table:       "daily_events",
		From:        "daily_events de",
		Columns:     "de.uid, de.available_at, de.created_at",
		Resolve:     resolverFromMap(dailyEventPseudocolumns),
		SortOptions: dailyEventSortOptions,
		Scan: func(rows *sql.Rows) (models.DailyEvent, error) {
			return scanDailyEvent(rows)
		},
		Project: func(de models.DailyEvent) query.Projection {
			var availableAt any
			if de.AvailableAt != nil {
				availableAt = *de.AvailableAt
			}
			return query.Projection{
				"uid":          de.UID,
				"available_at": availableAt,
				"created_at":   de.CreatedAt,
			}
		},
	}
}

// SearchDailyEvents runs one page of the admin daily event search. Search
// results do not carry journey memberships; point reads do.
func (db *DB) SearchDailyEvents(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.DailyEvent], error) {
	return Search(ctx, db, dailyEventSearchSpec(), req)
}

// CreateDailyEvent inserts a daily event, unpremiered unless AvailableAt is
// set.
func (db *DB) CreateDailyEvent(ctx context.Context, de *models.DailyEvent) error {
	var availableAt any
	if de.AvailableAt != nil {
		availableAt = *de.AvailableAt
	}

	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO daily_events (uid, available_at, created_at) VALUES (?, ?, ?)",
		de.UID, availableAt, de.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert daily event: %w", err)
	}
	return nil
}

// AddJourneyToDailyEvent appends a journey to an event's lineup. Position is
// assigned automatically; adding the same journey twice is an error.
func (db *DB) AddJourneyToDailyEvent(ctx context.Context, eventUID, journeyUID string) error {
	res, err := db.conn.ExecContext(ctx, `INSERT INTO daily_event_journeys
		(daily_event_id, journey_id, position)
		SELECT de.id, j.id, COALESCE(
			(SELECT MAX(position) + 1 FROM daily_event_journeys WHERE daily_event_id = de.id), 0)
		FROM daily_events de, journeys j
		WHERE de.uid = ? AND j.uid = ?`,
		eventUID, journeyUID)
	if err != nil {
		return fmt.Errorf("failed to add journey to daily event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("daily event %q or journey %q: %w", eventUID, journeyUID, ErrReferenceNotFound)
	}
	return nil
}

// PremiereDailyEvent sets the event's availability time. Returns whether the
// event exists. Premiering an already premiered event moves it.
func (db *DB) PremiereDailyEvent(ctx context.Context, uid string, availableAt int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE daily_events SET available_at = ? WHERE uid = ?", availableAt, uid)
	if err != nil {
		return false, fmt.Errorf("failed to premiere daily event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetDailyEventByUID returns the event with its journey lineup, or
// (nil, nil) when no such row exists.
func (db *DB) GetDailyEventByUID(ctx context.Context, uid string) (*models.DailyEvent, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT de.uid, de.available_at, de.created_at FROM daily_events de WHERE de.uid = ?", uid)

	de, err := scanDailyEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read daily event: %w", err)
	}

	if err := db.fillDailyEventJourneyUIDs(ctx, &de); err != nil {
		return nil, err
	}
	return &de, nil
}

// GetCurrentDailyEvent returns the premiered event with the greatest
// available_at not in the future, or (nil, nil) when none is live yet.
func (db *DB) GetCurrentDailyEvent(ctx context.Context, now int64) (*models.DailyEvent, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT de.uid, de.available_at, de.created_at
		FROM daily_events de
		WHERE de.available_at IS NOT NULL AND de.available_at <= ?
		ORDER BY de.available_at DESC LIMIT 1`, now)

	de, err := scanDailyEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current daily event: %w", err)
	}

	if err := db.fillDailyEventJourneyUIDs(ctx, &de); err != nil {
		return nil, err
	}
	return &de, nil
}

func (db *DB) fillDailyEventJourneyUIDs(ctx context.Context, de *models.DailyEvent) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT j.uid
		FROM daily_event_journeys dej
		JOIN journeys j ON j.id = dej.journey_id
		WHERE dej.daily_event_id = (SELECT id FROM daily_events WHERE uid = ?)
		ORDER BY dej.position`, de.UID)
	if err != nil {
		return fmt.Errorf("failed to read daily event journeys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return fmt.Errorf("failed to scan journey uid: %w", err)
		}
		de.JourneyUIDs = append(de.JourneyUIDs, uid)
	}
	return rows.Err()
}

// GetDailyEventJourneys returns the event's journeys in lineup order with
// full joined detail, for view building.
func (db *DB) GetDailyEventJourneys(ctx context.Context, eventUID string) ([]models.Journey, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+journeySelectColumns+" FROM "+journeyFrom+`
		JOIN daily_event_journeys dej ON dej.journey_id = j.id
		WHERE dej.daily_event_id = (SELECT id FROM daily_events WHERE uid = ?)
		ORDER BY dej.position`, eventUID)
	if err != nil {
		return nil, fmt.Errorf("failed to read daily event journeys: %w", err)
	}
	defer rows.Close()

	var journeys []models.Journey
	for rows.Next() {
		j, err := scanJourney(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journey: %w", err)
		}
		journeys = append(journeys, j)
	}
	return journeys, rows.Err()
}
