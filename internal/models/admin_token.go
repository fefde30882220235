// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

// AdminRole determines which admin route groups a token may reach. The
// authorization layer maps roles to route groups; handlers never check roles
// directly.
type AdminRole string

const (
	// RoleAdmin grants the full admin surface including mutations.
	RoleAdmin AdminRole = "admin"
	// RoleSupport grants the read-only admin surface (search endpoints).
	RoleSupport AdminRole = "support"
)

// ValidAdminRole reports whether role is a known role.
func ValidAdminRole(role AdminRole) bool {
	return role == RoleAdmin || role == RoleSupport
}

// AdminTokenPrefix starts every admin personal access token.
// Format: oseh_pat_<base64url id>_<random secret>
const AdminTokenPrefix = "oseh_pat_"

// AdminToken is a personal access token for the admin surface. The plaintext
// token is shown once at creation; only the bcrypt hash is stored.
//
// Security:
//   - TokenHash is a bcrypt hash, never the plaintext
//   - TokenPrefix (first characters after oseh_pat_) identifies the token in
//     listings without revealing the secret
//   - revocation and expiry are enforced on every request
type AdminToken struct {
	UID         string    `json:"uid" db:"uid"`
	Name        string    `json:"name" db:"name"`
	Role        AdminRole `json:"role" db:"role"`
	TokenPrefix string    `json:"token_prefix" db:"token_prefix"`
	TokenHash   string    `json:"-" db:"token_hash"`
	ExpiresAt   *int64    `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt   int64     `json:"created_at" db:"created_at"`
	RevokedAt   *int64    `json:"revoked_at,omitempty" db:"revoked_at"`
	LastUsedAt  *int64    `json:"last_used_at,omitempty" db:"last_used_at"`
}

// IsExpired reports whether the token expired before now (unix seconds).
func (t *AdminToken) IsExpired(now int64) bool {
	return t.ExpiresAt != nil && now >= *t.ExpiresAt
}

// IsRevoked reports whether the token has been revoked.
func (t *AdminToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive reports whether the token may authenticate at now (unix seconds).
func (t *AdminToken) IsActive(now int64) bool {
	return !t.IsExpired(now) && !t.IsRevoked()
}
