// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package auth provides the two credential schemes the API accepts and the
// short-lived JWTs it mints into rendered views.
//
// User requests carry HS256 bearer JWTs (audience "oseh-id") issued by the
// identity service with the same shared secret; this package only validates
// them. Admin requests carry personal access tokens (see pat.go).
//
// Rendered views embed JWTs scoping access to a single entity or media file.
// These are minted fresh on every render and never cached, so their
// expiries can stay short without bounding the cache's lifetime.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oseh/backend/internal/config"
)

// Audience values scope a token to one resource type; a journey JWT is
// useless against an image endpoint.
const (
	AudienceID         = "oseh-id"
	AudienceJourney    = "oseh-journey"
	AudienceImage      = "oseh-image"
	AudienceContent    = "oseh-content"
	AudienceDailyEvent = "oseh-daily-event"
)

// UserClaims are the claims of a user bearer token. Subject is the user uid.
type UserClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints and validates every HS256 token this service touches.
type Signer struct {
	secret  []byte
	issuer  string
	fileTTL time.Duration
}

// NewSigner creates a Signer from the auth configuration.
func NewSigner(cfg *config.AuthConfig) (*Signer, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required but was empty")
	}

	fileTTL := cfg.FileJWTTTL
	if fileTTL <= 0 {
		fileTTL = 30 * time.Minute
	}

	return &Signer{
		secret:  []byte(cfg.JWTSecret),
		issuer:  cfg.Issuer,
		fileTTL: fileTTL,
	}, nil
}

func (s *Signer) sign(subject, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", audience, err)
	}
	return signed, nil
}

// JourneyJWT mints a token granting access to one journey.
func (s *Signer) JourneyJWT(journeyUID string) (string, error) {
	return s.sign(journeyUID, AudienceJourney, s.fileTTL)
}

// DailyEventJWT mints a token granting access to one daily event.
func (s *Signer) DailyEventJWT(eventUID string) (string, error) {
	return s.sign(eventUID, AudienceDailyEvent, s.fileTTL)
}

// ImageFileJWT mints a token granting access to one image file's exports.
func (s *Signer) ImageFileJWT(fileUID string) (string, error) {
	return s.sign(fileUID, AudienceImage, s.fileTTL)
}

// ContentFileJWT mints a token granting access to one content file's exports.
func (s *Signer) ContentFileJWT(fileUID string) (string, error) {
	return s.sign(fileUID, AudienceContent, s.fileTTL)
}

// UserJWT mints a user bearer token. The identity service owns this in
// production; tests and local development mint through here.
func (s *Signer) UserJWT(userUID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userUID,
			Audience:  jwt.ClaimStrings{AudienceID},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// ValidateUserToken validates a user bearer token and returns its claims.
func (s *Signer) ValidateUserToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(AudienceID))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}
