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
)

// The admin token methods implement auth.AdminTokenStore.

const adminTokenSelectColumns = "uid, name, role, token_prefix, token_hash, expires_at, created_at, revoked_at, last_used_at"

func scanAdminToken(row rowScanner) (models.AdminToken, error) {
	var token models.AdminToken
	var expiresAt, revokedAt, lastUsedAt sql.NullInt64

	err := row.Scan(&token.UID, &token.Name, &token.Role, &token.TokenPrefix, &token.TokenHash,
		&expiresAt, &token.CreatedAt, &revokedAt, &lastUsedAt)
	if err != nil {
		return models.AdminToken{}, err
	}

	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Int64
	}
	if revokedAt.Valid {
		token.RevokedAt = &revokedAt.Int64
	}
	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Int64
	}
	return token, nil
}

// CreateAdminToken inserts a token row.
func (db *DB) CreateAdminToken(ctx context.Context, token *models.AdminToken) error {
	var expiresAt any
	if token.ExpiresAt != nil {
		expiresAt = *token.ExpiresAt
	}

	_, err := db.conn.ExecContext(ctx, `INSERT INTO admin_tokens
		(uid, name, role, token_prefix, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		token.UID, token.Name, token.Role, token.TokenPrefix, token.TokenHash,
		expiresAt, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert admin token: %w", err)
	}
	return nil
}

// GetAdminTokenByUID returns the token row, or (nil, nil) when no such row
// exists.
func (db *DB) GetAdminTokenByUID(ctx context.Context, uid string) (*models.AdminToken, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+adminTokenSelectColumns+" FROM admin_tokens WHERE uid = ?", uid)

	token, err := scanAdminToken(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read admin token: %w", err)
	}
	return &token, nil
}

// ListAdminTokens returns all token rows, newest first.
func (db *DB) ListAdminTokens(ctx context.Context) ([]models.AdminToken, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+adminTokenSelectColumns+" FROM admin_tokens ORDER BY created_at DESC, uid")
	if err != nil {
		return nil, fmt.Errorf("failed to list admin tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.AdminToken
	for rows.Next() {
		token, err := scanAdminToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// RevokeAdminToken stamps the token revoked.
func (db *DB) RevokeAdminToken(ctx context.Context, uid string, revokedAt int64) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE admin_tokens SET revoked_at = ? WHERE uid = ? AND revoked_at IS NULL", revokedAt, uid)
	if err != nil {
		return fmt.Errorf("failed to revoke admin token: %w", err)
	}
	return nil
}

// TouchAdminToken records when the token last authenticated a request.
func (db *DB) TouchAdminToken(ctx context.Context, uid string, lastUsedAt int64) error {
	_, err := db.conn.ExecContext(ctx,
		"UPDATE admin_tokens SET last_used_at = ? WHERE uid = ?", lastUsedAt, uid)
	if err != nil {
		return fmt.Errorf("failed to touch admin token: %w", err)
	}
	return nil
}
