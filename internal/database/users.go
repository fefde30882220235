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

const userSelectColumns = "u.sub, u.email, u.given_name, u.family_name, u.admin, u.revenue_cat_id, u.created_at"

var userPseudocolumns = map[string]query.Column{
	"sub":            {Expr: "u.sub"},
	"email":          {Expr: "u.email"},
	"given_name":     {Expr: "u.given_name"},
	"family_name":    {Expr: "u.family_name"},
	"admin":          {Expr: "u.admin"},
	"revenue_cat_id": {Expr: "u.revenue_cat_id"},
	"created_at":     {Expr: "u.created_at"},
}

var userSortOptions = []query.SortOption{
	{Key: "sub", Unique: true},
	{Key: "email"},
	{Key: "given_name"},
	{Key: "family_name"},
	{Key: "created_at"},
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.Sub, &u.Email, &u.GivenName, &u.FamilyName, &u.Admin, &u.RevenueCatID, &u.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func userSearchSpec() SearchSpec[models.User] {
	return SearchSpec[models.User]{
		Table:       "users",
		From:        "users u",
		Columns:     userSelectColumns,
		Resolve:     resolverFromMap(userPseudocolumns),
		SortOptions: userSortOptions,
		Scan: func(rows *sql.Rows) (models.User, error) {
			return scanUser(rows)
		},
		Project: func(u models.User) query.Projection {
			return query.Projection{
				"sub":         u.Sub,
				"email":       u.Email,
				"given_name":  u.GivenName,
				"family_name": u.FamilyName,
				"created_at":  u.CreatedAt,
			}
		},
	}
}

// SearchUsers runs one page of the admin user search.
func (db *DB) SearchUsers(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.User], error) {
	return Search(ctx, db, userSearchSpec(), req)
}

// GetUserBySub returns the user, or (nil, nil) when no such row exists.
func (db *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+userSelectColumns+" FROM users u WHERE u.sub = ?", sub)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user: %w", err)
	}
	return &u, nil
}

// CreateUser inserts a user row.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.conn.ExecContext(ctx, `INSERT INTO users
		(sub, email, given_name, family_name, admin, revenue_cat_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Sub, u.Email, u.GivenName, u.FamilyName, u.Admin, u.RevenueCatID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// SetUserRevenueCatID records the provider-side customer id for a user, set
// lazily on the first entitlement check. First writer wins; concurrent
// checks re-read the row for the id that stuck.
func (db *DB) SetUserRevenueCatID(ctx context.Context, sub, revenueCatID string) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE users SET revenue_cat_id = ? WHERE sub = ? AND (revenue_cat_id IS NULL OR revenue_cat_id = '')",
		revenueCatID, sub)
	if err != nil {
		return fmt.Errorf("failed to set revenue cat id: %w", err)
	}
	return nil
}
