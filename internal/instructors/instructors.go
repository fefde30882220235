// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package instructors is store glue for the instructor catalog. Instructors
// have no external view of their own; they ride along inside journey and
// daily event views.
package instructors

import (
	"context"
	"time"

	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/models"
)

// Service exposes the instructor store to the API layer.
type Service struct {
	db *database.DB
}

func New(db *database.DB) *Service { return &Service{db: db} }

// Search runs an admin search over instructors.
func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse[models.Instructor], error) {
	return s.db.SearchInstructors(ctx, req)
}

// Get returns the instructor, or nil when no such row exists.
func (s *Service) Get(ctx context.Context, uid string) (*models.Instructor, error) {
	return s.db.GetInstructorByUID(ctx, uid)
}

// Create adds an instructor. A picture uid referencing no image file
// surfaces as database.ErrReferenceNotFound.
func (s *Service) Create(ctx context.Context, req *models.CreateInstructorRequest) (*models.Instructor, error) {
	inst := &models.Instructor{
		UID:                 models.NewUID("i"),
		Name:                req.Name,
		Bias:                req.Bias,
		PictureImageFileUID: req.PictureImageFileUID,
		CreatedAt:           time.Now().Unix(),
	}
	if err := s.db.CreateInstructor(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}
