// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oseh/backend/internal/config"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	signer, err := NewSigner(&config.AuthConfig{
		JWTSecret: "test-secret-0123456789abcdef",
		Issuer:    "oseh-test",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	return signer
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner(&config.AuthConfig{Issuer: "oseh-test"})
	if err == nil {
		t.Fatal("expected error for empty secret, got nil")
	}
	if !strings.Contains(err.Error(), "jwt secret") {
		t.Errorf("expected secret error, got %q", err.Error())
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	signer := newTestSigner(t)

	token, err := signer.UserJWT("oseh_u_abc123", "tim@example.com", time.Hour)
	if err != nil {
		t.Fatalf("UserJWT failed: %v", err)
	}

	claims, err := signer.ValidateUserToken(token)
	if err != nil {
		t.Fatalf("ValidateUserToken failed: %v", err)
	}
	if claims.Subject != "oseh_u_abc123" {
		t.Errorf("expected subject oseh_u_abc123, got %q", claims.Subject)
	}
	if claims.Email != "tim@example.com" {
		t.Errorf("expected email tim@example.com, got %q", claims.Email)
	}
	if claims.Issuer != "oseh-test" {
		t.Errorf("expected issuer oseh-test, got %q", claims.Issuer)
	}
}

func TestValidateUserTokenRejections(t *testing.T) {
	signer := newTestSigner(t)

	otherSecret, err := NewSigner(&config.AuthConfig{
		JWTSecret: "a-completely-different-secret",
		Issuer:    "oseh-test",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	otherIssuer, err := NewSigner(&config.AuthConfig{
		JWTSecret: "test-secret-0123456789abcdef",
		Issuer:    "someone-else",
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	mustSign := func(fn func() (string, error)) string {
		t.Helper()
		token, err := fn()
		if err != nil {
			t.Fatalf("minting test token failed: %v", err)
		}
		return token
	}

	tests := []struct {
		name  string
		token string
	}{
		{
			name: "expired",
			token: mustSign(func() (string, error) {
				return signer.UserJWT("oseh_u_abc", "", -time.Minute)
			}),
		},
		{
			name: "wrong secret",
			token: mustSign(func() (string, error) {
				return otherSecret.UserJWT("oseh_u_abc", "", time.Hour)
			}),
		},
		{
			name: "wrong issuer",
			token: mustSign(func() (string, error) {
				return otherIssuer.UserJWT("oseh_u_abc", "", time.Hour)
			}),
		},
		{
			name: "wrong audience",
			token: mustSign(func() (string, error) {
				return signer.JourneyJWT("oseh_j_abc")
			}),
		},
		{
			name: "no subject",
			token: mustSign(func() (string, error) {
				return signer.UserJWT("", "", time.Hour)
			}),
		},
		{
			name:  "garbage",
			token: "not.a.jwt",
		},
		{
			name:  "empty",
			token: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.ValidateUserToken(tt.token); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidateUserTokenRejectsUnsignedAlgorithm(t *testing.T) {
	signer := newTestSigner(t)

	claims := jwt.RegisteredClaims{
		Issuer:    "oseh-test",
		Subject:   "oseh_u_abc",
		Audience:  jwt.ClaimStrings{AudienceID},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("minting unsigned token failed: %v", err)
	}

	if _, err := signer.ValidateUserToken(unsigned); err == nil {
		t.Fatal("expected rejection of alg=none token, got nil")
	}
}

func TestEntityJWTAudiences(t *testing.T) {
	signer := newTestSigner(t)

	tests := []struct {
		name     string
		mint     func() (string, error)
		subject  string
		audience string
	}{
		{
			name:     "journey",
			mint:     func() (string, error) { return signer.JourneyJWT("oseh_j_x1") },
			subject:  "oseh_j_x1",
			audience: AudienceJourney,
		},
		{
			name:     "daily event",
			mint:     func() (string, error) { return signer.DailyEventJWT("oseh_de_x2") },
			subject:  "oseh_de_x2",
			audience: AudienceDailyEvent,
		},
		{
			name:     "image file",
			mint:     func() (string, error) { return signer.ImageFileJWT("oseh_if_x3") },
			subject:  "oseh_if_x3",
			audience: AudienceImage,
		},
		{
			name:     "content file",
			mint:     func() (string, error) { return signer.ContentFileJWT("oseh_cf_x4") },
			subject:  "oseh_cf_x4",
			audience: AudienceContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenString, err := tt.mint()
			if err != nil {
				t.Fatalf("minting failed: %v", err)
			}

			claims := &jwt.RegisteredClaims{}
			_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return []byte("test-secret-0123456789abcdef"), nil
			}, jwt.WithAudience(tt.audience))
			if err != nil {
				t.Fatalf("parsing failed: %v", err)
			}

			if claims.Subject != tt.subject {
				t.Errorf("expected subject %q, got %q", tt.subject, claims.Subject)
			}
			if len(claims.Audience) != 1 || claims.Audience[0] != tt.audience {
				t.Errorf("expected audience %q, got %v", tt.audience, claims.Audience)
			}

			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl < 29*time.Minute || ttl > 31*time.Minute {
				t.Errorf("expected ~30m expiry, got %v", ttl)
			}
		})
	}
}

func TestFileJWTTTLConfigurable(t *testing.T) {
	signer, err := NewSigner(&config.AuthConfig{
		JWTSecret:  "test-secret-0123456789abcdef",
		Issuer:     "oseh-test",
		FileJWTTTL: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	tokenString, err := signer.ImageFileJWT("oseh_if_y1")
	if err != nil {
		t.Fatalf("ImageFileJWT failed: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-0123456789abcdef"), nil
	}); err != nil {
		t.Fatalf("parsing failed: %v", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 4*time.Minute || ttl > 6*time.Minute {
		t.Errorf("expected ~5m expiry, got %v", ttl)
	}
}
