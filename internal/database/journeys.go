// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/query"
)

// ErrReferenceNotFound is returned by mutations naming a related entity
// that does not exist.
var ErrReferenceNotFound = errors.New("referenced entity not found")

// rowScanner lets scan helpers serve both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// lookupID resolves a uid to the table's integer key inside a transaction.
func lookupID(ctx context.Context, tx *sql.Tx, table, uid string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM "+table+" WHERE uid = ?", uid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s %q: %w", table, uid, ErrReferenceNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve %s uid: %w", table, err)
	}
	return id, nil
}

const journeySelectColumns = `j.uid, j.title, j.description, j.prompt,
	cf.uid, bg.uid, bl.uid,
	i.uid, i.name,
	sc.uid, sc.internal_name, sc.external_name,
	cf.duration_seconds, j.created_at, j.deleted_at`

const journeyFrom = `journeys j
	JOIN content_files cf ON cf.id = j.audio_content_file_id
	JOIN image_files bg ON bg.id = j.background_image_file_id
	JOIN image_files bl ON bl.id = j.blurred_background_image_file_id
	JOIN instructors i ON i.id = j.instructor_id
	JOIN journey_subcategories sc ON sc.id = j.journey_subcategory_id`

// journeyPseudocolumns is the journey search surface. Keys resolve to
// expressions over the joined tables, so clients filter on instructor or
// category names without knowing the schema.
var journeyPseudocolumns = map[string]query.Column{
	"uid":                       {Expr: "j.uid"},
	"title":                     {Expr: "j.title"},
	"description":               {Expr: "j.description"},
	"instructor_uid":            {Expr: "i.uid"},
	"instructor_name":           {Expr: "i.name"},
	"subcategory_uid":           {Expr: "sc.uid"},
	"subcategory_internal_name": {Expr: "sc.internal_name"},
	"subcategory_external_name": {Expr: "sc.external_name"},
	"duration_seconds":          {Expr: "cf.duration_seconds"},
	"created_at":                {Expr: "j.created_at"},
	"deleted_at":                {Expr: "j.deleted_at", Nullable: true},
}

var journeySortOptions = []query.SortOption{
	{Key: "uid", Unique: true},
	{Key: "title"},
	{Key: "created_at"},
}

func scanJourney(row rowScanner) (models.Journey, error) {
	var j models.Journey
	var prompt []byte
	var deletedAt sql.NullInt64

	err := row.Scan(
		&j.UID, &j.Title, &j.Description, &prompt,
		&j.AudioContentFileUID, &j.BackgroundImageFileUID, &j.BlurredImageFileUID,
		&j.InstructorUID, &j.InstructorName,
		&j.SubcategoryUID, &j.SubcategoryInternalName, &j.SubcategoryExternalName,
		&j.DurationSeconds, &j.CreatedAt, &deletedAt,
	)
	if err != nil {
		return models.Journey{}, err
	}

	j.Prompt = json.RawMessage(prompt)
	if deletedAt.Valid {
		j.DeletedAt = &deletedAt.Int64
	}
	return j, nil
}

func journeySearchSpec() SearchSpec[models.Journey] {
	return SearchSpec[models.Journey]{
		Table:       "journeys",
		From:        journeyFrom,
		Columns:     journeySelectColumns,
		Resolve:     resolverFromMap(journeyPseudocolumns),
		SortOptions: journeySortOptions,
		Scan: func(rows *sql.Rows) (models.Journey, error) {
			return scanJourney(rows)
		},
		Project: func(j models.Journey) query.Projection {
			return query.Projection{
				"uid":        j.UID,
				"title":      j.Title,
				"created_at": j.CreatedAt,
			}
		},
	}
}

// SearchJourneys runs one page of the admin journey search.
func (db *DB) SearchJourneys(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.Journey], error) {
	return Search(ctx, db, journeySearchSpec(), req)
}

// GetJourneyByUID returns the journey with all its joined detail, or
// (nil, nil) when no such row exists. Soft-deleted journeys are returned
// with DeletedAt set; callers decide whether those count.
func (db *DB) GetJourneyByUID(ctx context.Context, uid string) (*models.Journey, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+journeySelectColumns+" FROM "+journeyFrom+" WHERE j.uid = ?", uid)

	j, err := scanJourney(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read journey: %w", err)
	}
	return &j, nil
}

// CreateJourney inserts a journey, resolving the related uids. Denormalized
// fields on j (instructor name, category names, duration) are ignored; read
// the row back for those.
func (db *DB) CreateJourney(ctx context.Context, j *models.Journey) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	audioID, err := lookupID(ctx, tx, "content_files", j.AudioContentFileUID)
	if err != nil {
		return err
	}
	backgroundID, err := lookupID(ctx, tx, "image_files", j.BackgroundImageFileUID)
	if err != nil {
		return err
	}
	blurredID, err := lookupID(ctx, tx, "image_files", j.BlurredImageFileUID)
	if err != nil {
		return err
	}
	instructorID, err := lookupID(ctx, tx, "instructors", j.InstructorUID)
	if err != nil {
		return err
	}
	subcategoryID, err := lookupID(ctx, tx, "journey_subcategories", j.SubcategoryUID)
	if err != nil {
		return err
	}

	prompt := j.Prompt
	if len(prompt) == 0 {
		prompt = json.RawMessage("{}")
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO journeys
		(uid, title, description, prompt,
		 audio_content_file_id, background_image_file_id, blurred_background_image_file_id,
		 instructor_id, journey_subcategory_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.UID, j.Title, j.Description, string(prompt),
		audioID, backgroundID, blurredID,
		instructorID, subcategoryID, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert journey: %w", err)
	}

	return tx.Commit()
}

// UpdateJourney patches the named fields of a journey. Returns whether the
// row existed. A request with no fields set degenerates to an existence
// check.
func (db *DB) UpdateJourney(ctx context.Context, uid string, req *models.UpdateJourneyRequest) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		sets []string
		args []any
	)
	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}
	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}
	if req.InstructorUID != nil {
		instructorID, err := lookupID(ctx, tx, "instructors", *req.InstructorUID)
		if err != nil {
			return false, err
		}
		sets = append(sets, "instructor_id = ?")
		args = append(args, instructorID)
	}
	if req.SubcategoryUID != nil {
		subcategoryID, err := lookupID(ctx, tx, "journey_subcategories", *req.SubcategoryUID)
		if err != nil {
			return false, err
		}
		sets = append(sets, "journey_subcategory_id = ?")
		args = append(args, subcategoryID)
	}
	if len(req.Prompt) > 0 {
		sets = append(sets, "prompt = ?")
		args = append(args, string(req.Prompt))
	}

	if len(sets) == 0 {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM journeys WHERE uid = ?", uid).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to check journey: %w", err)
		}
		return true, tx.Commit()
	}

	args = append(args, uid)
	res, err := tx.ExecContext(ctx, "UPDATE journeys SET "+strings.Join(sets, ", ")+" WHERE uid = ?", args...)
	if err != nil {
		return false, fmt.Errorf("failed to update journey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	return affected > 0, tx.Commit()
}

// SoftDeleteJourney marks a journey deleted at now. Returns false when the
// journey does not exist or is already deleted.
func (db *DB) SoftDeleteJourney(ctx context.Context, uid string, now int64) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		"UPDATE journeys SET deleted_at = ? WHERE uid = ? AND deleted_at IS NULL", now, uid)
	if err != nil {
		return false, fmt.Errorf("failed to delete journey: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}
