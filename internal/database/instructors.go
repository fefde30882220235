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

const instructorSelectColumns = "i.uid, i.name, i.bias, pic.uid, i.created_at, i.deleted_at"

const instructorFrom = "instructors i LEFT JOIN image_files pic ON pic.id = i.picture_image_file_id"

var instructorPseudocolumns = map[string]query.Column{
	"uid":        {Expr: "i.uid"},
	"name":       {Expr: "i.name"},
	"bias":       {Expr: "i.bias"},
	"created_at": {Expr: "i.created_at"},
	"deleted_at": {Expr: "i.deleted_at", Nullable: true},
}

var instructorSortOptions = []query.SortOption{
	{Key: "uid", Unique: true},
	{Key: "name"},
	{Key: "bias"},
	{Key: "created_at"},
}

func scanInstructor(row rowScanner) (models.Instructor, error) {
	var inst models.Instructor
	var pictureUID sql.NullString
	var deletedAt sql.NullInt64

	if err := row.Scan(&inst.UID, &inst.Name, &inst.Bias, &pictureUID, &inst.CreatedAt, &deletedAt); err != nil {
		return models.Instructor{}, err
	}
	inst.PictureImageFileUID = pictureUID.String
	if deletedAt.Valid {
		inst.DeletedAt = &deletedAt.Int64
	}
	return inst, nil
}

func instructorSearchSpec() SearchSpec[models.Instructor] {
	return SearchSpec[models.Instructor]{
		Table:       "instructors",
		From:        instructorFrom,
		Columns:     instructorSelectColumns,
		Resolve:     resolverFromMap(instructorPseudocolumns),
		SortOptions: instructorSortOptions,
		Scan: func(rows *sql.Rows) (models.Instructor, error) {
			return scanInstructor(rows)
		},
		Project: func(inst models.Instructor) query.Projection {
			return query.Projection{
				"uid":        inst.UID,
				"name":       inst.Name,
				"bias":       inst.Bias,
				"created_at": inst.CreatedAt,
			}
		},
	}
}

// SearchInstructors runs one page of the admin instructor search.
func (db *DB) SearchInstructors(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.Instructor], error) {
	return Search(ctx, db, instructorSearchSpec(), req)
}

// GetInstructorByUID returns the instructor, or (nil, nil) when no such row
// exists.
func (db *DB) GetInstructorByUID(ctx context.Context, uid string) (*models.Instructor, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+instructorSelectColumns+" FROM "+instructorFrom+" WHERE i.uid = ?", uid)

	inst, err := scanInstructor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read instructor: %w", err)
	}
	return &inst, nil
}

// CreateInstructor inserts an instructor. An empty PictureImageFileUID
// stores NULL.
func (db *DB) CreateInstructor(ctx context.Context, inst *models.Instructor) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var pictureID any
	if inst.PictureImageFileUID != "" {
		id, err := lookupID(ctx, tx, "image_files", inst.PictureImageFileUID)
		if err != nil {
			return err
		}
		pictureID = id
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO instructors
		(uid, name, bias, picture_image_file_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		inst.UID, inst.Name, inst.Bias, pictureID, inst.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert instructor: %w", err)
	}

	return tx.Commit()
}
