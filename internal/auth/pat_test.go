// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oseh/backend/internal/models"
)

// fakeAdminTokenStore is an in-memory AdminTokenStore. A mutex guards the
// map because the manager touches last-used from a goroutine.
type fakeAdminTokenStore struct {
	mu        sync.Mutex
	tokens    map[string]*models.AdminToken
	createErr error
	getErr    error
}

func newFakeAdminTokenStore() *fakeAdminTokenStore {
	return &fakeAdminTokenStore{tokens: make(map[string]*models.AdminToken)}
}

func (s *fakeAdminTokenStore) CreateAdminToken(ctx context.Context, token *models.AdminToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	copied := *token
	s.tokens[token.UID] = &copied
	return nil
}

func (s *fakeAdminTokenStore) GetAdminTokenByUID(ctx context.Context, uid string) (*models.AdminToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	token, ok := s.tokens[uid]
	if !ok {
		return nil, nil
	}
	copied := *token
	return &copied, nil
}

func (s *fakeAdminTokenStore) ListAdminTokens(ctx context.Context) ([]models.AdminToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AdminToken, 0, len(s.tokens))
	for _, token := range s.tokens {
		out = append(out, *token)
	}
	return out, nil
}

func (s *fakeAdminTokenStore) RevokeAdminToken(ctx context.Context, uid string, revokedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[uid]
	if !ok {
		return errors.New("token not found")
	}
	token.RevokedAt = &revokedAt
	return nil
}

func (s *fakeAdminTokenStore) TouchAdminToken(ctx context.Context, uid string, lastUsedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[uid]
	if !ok {
		return errors.New("token not found")
	}
	token.LastUsedAt = &lastUsedAt
	return nil
}

// mutate edits a stored row in place, for forcing expiry or corrupting the
// hash without racing the manager.
func (s *fakeAdminTokenStore) mutate(uid string, fn func(*models.AdminToken)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token, ok := s.tokens[uid]; ok {
		fn(token)
	}
}

func (s *fakeAdminTokenStore) lastUsed(uid string) *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[uid]
	if !ok {
		return nil
	}
	return token.LastUsedAt
}

func TestAdminTokenCreateAndValidate(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	token, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{
		Name: "CI deploy",
		Role: models.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(token.UID, "oseh_at_") {
		t.Errorf("expected uid with oseh_at_ prefix, got %q", token.UID)
	}
	if !strings.HasPrefix(plaintext, models.AdminTokenPrefix) {
		t.Errorf("expected plaintext with %q prefix, got %q", models.AdminTokenPrefix, plaintext)
	}
	if !strings.HasPrefix(plaintext, token.TokenPrefix) {
		t.Errorf("TokenPrefix %q is not a prefix of the plaintext", token.TokenPrefix)
	}
	if token.TokenHash == "" || token.TokenHash == plaintext {
		t.Error("TokenHash must be a hash, not empty or the plaintext")
	}
	if token.ExpiresAt != nil {
		t.Errorf("expected no expiry, got %d", *token.ExpiresAt)
	}

	validated, err := manager.Validate(ctx, plaintext)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if validated.UID != token.UID {
		t.Errorf("expected uid %q, got %q", token.UID, validated.UID)
	}
	if validated.Role != models.RoleAdmin {
		t.Errorf("expected role admin, got %q", validated.Role)
	}

	// The last-used stamp is written from a goroutine; poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for store.lastUsed(token.UID) == nil {
		if time.Now().After(deadline) {
			t.Fatal("last-used stamp never recorded")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAdminTokenCreateInvalidRole(t *testing.T) {
	manager := NewAdminTokenManager(newFakeAdminTokenStore())

	_, _, err := manager.Create(context.Background(), CreateAdminTokenRequest{
		Name: "bad",
		Role: models.AdminRole("root"),
	})
	if err == nil {
		t.Fatal("expected error for invalid role, got nil")
	}
	if !strings.Contains(err.Error(), "invalid role") {
		t.Errorf("expected invalid role error, got %q", err.Error())
	}
}

func TestAdminTokenCreateWithTTL(t *testing.T) {
	manager := NewAdminTokenManager(newFakeAdminTokenStore())

	token, _, err := manager.Create(context.Background(), CreateAdminTokenRequest{
		Name: "short lived",
		Role: models.RoleSupport,
		TTL:  time.Hour,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if token.ExpiresAt == nil {
		t.Fatal("expected expiry to be set")
	}

	want := time.Now().Unix() + 3600
	if *token.ExpiresAt < want-5 || *token.ExpiresAt > want+5 {
		t.Errorf("expected expiry near %d, got %d", want, *token.ExpiresAt)
	}
}

func TestAdminTokenValidateFormatRejections(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		token  string
		errMsg string
	}{
		{
			name:   "wrong scheme",
			token:  "Bearer abc123",
			errMsg: "invalid token format",
		},
		{
			name:   "prefix only",
			token:  "oseh_pat_",
			errMsg: "invalid token format",
		},
		{
			name:   "missing secret separator",
			token:  "oseh_pat_b3NlaF9hdF94",
			errMsg: "invalid token format",
		},
		{
			name:   "uid not base64",
			token:  "oseh_pat_%%%_secret",
			errMsg: "invalid token format",
		},
		{
			name:   "unknown uid",
			token:  "oseh_pat_b3NlaF9hdF9taXNzaW5n_c2VjcmV0",
			errMsg: "unknown token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.Validate(ctx, tt.token)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestAdminTokenValidateWrongSecret(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	_, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{Name: "t", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tampered := plaintext[:len(plaintext)-1]
	if plaintext[len(plaintext)-1] == 'A' {
		tampered += "B"
	} else {
		tampered += "A"
	}

	if _, err := manager.Validate(ctx, tampered); err == nil {
		t.Fatal("expected error for tampered secret, got nil")
	}
}

func TestAdminTokenValidateRevoked(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	token, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{Name: "t", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := manager.Revoke(ctx, token.UID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	_, err = manager.Validate(ctx, plaintext)
	if err == nil {
		t.Fatal("expected error for revoked token, got nil")
	}
	if !strings.Contains(err.Error(), "revoked") {
		t.Errorf("expected revoked error, got %q", err.Error())
	}
}

func TestAdminTokenValidateExpired(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	token, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{Name: "t", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	past := time.Now().Unix() - 60
	store.mutate(token.UID, func(row *models.AdminToken) {
		row.ExpiresAt = &past
	})

	_, err = manager.Validate(ctx, plaintext)
	if err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Errorf("expected expired error, got %q", err.Error())
	}
}

// A validated token's SHA-256 is remembered so repeat requests skip the
// bcrypt compare. Corrupting the stored hash after the first validation
// proves the second one never touched bcrypt; a fresh manager with no cache
// must reject the same token.
func TestAdminTokenValidateCachesVerification(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	token, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{Name: "t", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := manager.Validate(ctx, plaintext); err != nil {
		t.Fatalf("first Validate failed: %v", err)
	}

	store.mutate(token.UID, func(row *models.AdminToken) {
		row.TokenHash = "$2a$12$invalidinvalidinvalidinvalidinvalidinvalidinvalidinva"
	})

	if _, err := manager.Validate(ctx, plaintext); err != nil {
		t.Fatalf("cached Validate failed: %v", err)
	}

	fresh := NewAdminTokenManager(store)
	if _, err := fresh.Validate(ctx, plaintext); err == nil {
		t.Fatal("expected uncached manager to reject the corrupted hash")
	}
}

// Revocation must bite even when the bcrypt verification is cached.
func TestAdminTokenRevocationBeatsCache(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	token, plaintext, err := manager.Create(ctx, CreateAdminTokenRequest{Name: "t", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := manager.Validate(ctx, plaintext); err != nil {
		t.Fatalf("first Validate failed: %v", err)
	}
	if err := manager.Revoke(ctx, token.UID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := manager.Validate(ctx, plaintext); err == nil {
		t.Fatal("expected revoked token to fail despite cached verification")
	}
}

func TestAdminTokenRevokeUnknown(t *testing.T) {
	manager := NewAdminTokenManager(newFakeAdminTokenStore())

	err := manager.Revoke(context.Background(), "oseh_at_missing")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown token") {
		t.Errorf("expected unknown token error, got %q", err.Error())
	}
}

func TestAdminTokenList(t *testing.T) {
	store := newFakeAdminTokenStore()
	manager := NewAdminTokenManager(store)
	ctx := context.Background()

	for _, name := range []string{"first", "second"} {
		if _, _, err := manager.Create(ctx, CreateAdminTokenRequest{Name: name, Role: models.RoleSupport}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tokens, err := manager.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
}

func TestIsAdminToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"oseh_pat_abc_def", true},
		{"oseh_pat_", true},
		{"eyJhbGciOiJIUzI1NiJ9.x.y", false},
		{"", false},
		{"pat_abc", false},
	}

	for _, tt := range tests {
		if got := IsAdminToken(tt.token); got != tt.want {
			t.Errorf("IsAdminToken(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}
