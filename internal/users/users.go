// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package users is store glue for account rows: admin search, point reads,
// and operational provisioning. Sign-in identity flows live outside this
// service, so rows exist before their owners ever authenticate.
package users

import (
	"context"
	"time"

	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/models"
)

// Service exposes the user store to the API layer.
type Service struct {
	db *database.DB
}

func New(db *database.DB) *Service { return &Service{db: db} }

// Search runs an admin search over users.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.User], error) {
	return s.db.SearchUsers(ctx, req)
}

// GetBySub returns the user, or nil when no such row exists.
func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.db.GetUserBySub(ctx, sub)
}

// Create provisions an account row with a freshly minted sub.
func (s *Service) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	u := &models.User{
		Sub:        models.NewUID("u"),
		Email:      req.Email,
		GivenName:  req.GivenName,
		FamilyName: req.FamilyName,
		Admin:      req.Admin,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
