// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Personal access tokens for the admin surface.
//
// Token format: oseh_pat_<base64url token uid>_<base64url random secret>
//
// Security:
//   - Tokens are hashed with bcrypt (cost 12) before storage; the plaintext
//     is shown once at creation and never again
//   - bcrypt has a 72-byte input limit, so the token is SHA-256'd first -
//     the same pattern GitHub and GitLab use
//   - A validated token's SHA-256 is cached in memory so the hot path skips
//     the bcrypt compare; revocation still bites immediately because the
//     token row is re-read on every request

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
)

// ErrTokenNotFound is returned by Revoke when no token has the given uid.
var ErrTokenNotFound = errors.New("admin token not found")

const (
	// patSecretLength is the length of the random secret portion (bytes).
	patSecretLength = 32

	// patPrefixDisplayLength is how many characters past the scheme prefix
	// identify the token in listings.
	patPrefixDisplayLength = 8

	// bcryptCost is the bcrypt cost factor for token hashing.
	bcryptCost = 12

	// verifiedCacheTTL bounds how long a bcrypt verification is remembered.
	verifiedCacheTTL = 5 * time.Minute
)

// AdminTokenStore is the persistence the manager needs.
type AdminTokenStore interface {
	CreateAdminToken(ctx context.Context, token *models.AdminToken) error
	GetAdminTokenByUID(ctx context.Context, uid string) (*models.AdminToken, error)
	ListAdminTokens(ctx context.Context) ([]models.AdminToken, error)
	RevokeAdminToken(ctx context.Context, uid string, revokedAt int64) error
	TouchAdminToken(ctx context.Context, uid string, lastUsedAt int64) error
}

// CreateAdminTokenRequest carries the inputs for minting a token.
type CreateAdminTokenRequest struct {
	Name string           `json:"name" validate:"required,min=1,max=120"`
	Role models.AdminRole `json:"role" validate:"required,oneof=admin support"`
	// TTL of zero means the token never expires.
	TTL time.Duration `json:"-"`
}

type verifiedEntry struct {
	uid     string
	expires time.Time
}

// AdminTokenManager creates and validates admin personal access tokens.
type AdminTokenManager struct {
	store AdminTokenStore

	mu       sync.RWMutex
	verified map[[sha256.Size]byte]verifiedEntry
}

// NewAdminTokenManager creates a manager over the given store.
func NewAdminTokenManager(store AdminTokenStore) *AdminTokenManager {
	return &AdminTokenManager{
		store:    store,
		verified: make(map[[sha256.Size]byte]verifiedEntry),
	}
}

// Create mints a new token. The returned plaintext is shown only once.
func (m *AdminTokenManager) Create(ctx context.Context, req CreateAdminTokenRequest) (*models.AdminToken, string, error) {
	if !models.ValidAdminRole(req.Role) {
		return nil, "", fmt.Errorf("invalid role: %s", req.Role)
	}

	uid := models.NewUID("at")

	secretBytes := make([]byte, patSecretLength)
	if _, err := rand.Read(secretBytes); err != nil {
		return nil, "", fmt.Errorf("generate token secret: %w", err)
	}
	secret := base64.RawURLEncoding.EncodeToString(secretBytes)

	uidEncoded := base64.RawURLEncoding.EncodeToString([]byte(uid))
	plaintext := models.AdminTokenPrefix + uidEncoded + "_" + secret

	tokenHash, err := hashToken(plaintext)
	if err != nil {
		return nil, "", fmt.Errorf("hash token: %w", err)
	}

	now := time.Now().Unix()
	var expiresAt *int64
	if req.TTL > 0 {
		exp := now + int64(req.TTL/time.Second)
		expiresAt = &exp
	}

	token := &models.AdminToken{
		UID:         uid,
		Name:        req.Name,
		Role:        req.Role,
		TokenPrefix: plaintext[:len(models.AdminTokenPrefix)+patPrefixDisplayLength],
		TokenHash:   tokenHash,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
	}

	if err := m.store.CreateAdminToken(ctx, token); err != nil {
		return nil, "", fmt.Errorf("store token: %w", err)
	}

	logging.Info().
		Str("token_uid", uid).
		Str("name", req.Name).
		Str("role", string(req.Role)).
		Msg("admin token created")

	return token, plaintext, nil
}

// Validate checks a plaintext token and returns its record when it may
// authenticate right now.
func (m *AdminTokenManager) Validate(ctx context.Context, plaintext string) (*models.AdminToken, error) {
	if !strings.HasPrefix(plaintext, models.AdminTokenPrefix) {
		return nil, fmt.Errorf("invalid token format")
	}

	parts := strings.SplitN(strings.TrimPrefix(plaintext, models.AdminTokenPrefix), "_", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid token format")
	}
	uidBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid token format")
	}
	uid := string(uidBytes)

	token, err := m.store.GetAdminTokenByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("token lookup failed: %w", err)
	}
	if token == nil {
		return nil, fmt.Errorf("unknown token")
	}

	sha := sha256.Sum256([]byte(plaintext))
	if !m.recentlyVerified(sha, uid) {
		if !verifyToken(sha, token.TokenHash) {
			return nil, fmt.Errorf("invalid token")
		}
		m.rememberVerified(sha, uid)
	}

	now := time.Now().Unix()
	if token.IsRevoked() {
		return nil, fmt.Errorf("token has been revoked")
	}
	if token.IsExpired(now) {
		return nil, fmt.Errorf("token has expired")
	}

	// Record the use without holding up the request.
	go func() {
		touchCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.TouchAdminToken(touchCtx, uid, now); err != nil {
			logging.Warn().Err(err).Str("token_uid", uid).Msg("failed to record token use")
		}
	}()

	return token, nil
}

// Revoke marks a token unusable from now on.
func (m *AdminTokenManager) Revoke(ctx context.Context, uid string) error {
	token, err := m.store.GetAdminTokenByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("token lookup failed: %w", err)
	}
	if token == nil {
		return fmt.Errorf("%q: %w", uid, ErrTokenNotFound)
	}

	if err := m.store.RevokeAdminToken(ctx, uid, time.Now().Unix()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	logging.Info().Str("token_uid", uid).Msg("admin token revoked")
	return nil
}

// List returns all tokens, hashes omitted by the model's json tags.
func (m *AdminTokenManager) List(ctx context.Context) ([]models.AdminToken, error) {
	tokens, err := m.store.ListAdminTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return tokens, nil
}

// IsAdminToken reports whether a credential string looks like an admin
// token, routing it away from JWT validation.
func IsAdminToken(token string) bool {
	return strings.HasPrefix(token, models.AdminTokenPrefix)
}

func (m *AdminTokenManager) recentlyVerified(sha [sha256.Size]byte, uid string) bool {
	m.mu.RLock()
	entry, ok := m.verified[sha]
	m.mu.RUnlock()
	return ok && entry.uid == uid && time.Now().Before(entry.expires)
}

func (m *AdminTokenManager) rememberVerified(sha [sha256.Size]byte, uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop stale entries while we are here; the map only ever holds a few
	// live operator tokens.
	now := time.Now()
	for k, v := range m.verified {
		if now.After(v.expires) {
			delete(m.verified, k)
		}
	}
	m.verified[sha] = verifiedEntry{uid: uid, expires: now.Add(verifiedCacheTTL)}
}

// hashToken bcrypt-hashes the SHA-256 of a token.
func hashToken(plaintext string) (string, error) {
	sha := sha256.Sum256([]byte(plaintext))
	hash, err := bcrypt.GenerateFromPassword(sha[:], bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt failed: %w", err)
	}
	return string(hash), nil
}

// verifyToken checks a token's SHA-256 against the stored bcrypt hash.
func verifyToken(sha [sha256.Size]byte, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), sha[:]) == nil
}
