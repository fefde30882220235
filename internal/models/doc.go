// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package models holds the data structures shared across the application:
// the API response envelope, the domain rows backed by the system of record,
// the external (client-facing) views rendered by the cache layer, and the
// request types for the admin search and mutation endpoints.
//
// Models carry no behavior beyond small predicate helpers; persistence lives
// in internal/database and rendering in internal/viewcache.
//
// Conventions:
//   - Unique identifiers are prefixed strings ("oseh_j_…", "oseh_u_…") minted
//     at insert time. Integer primary keys never leave the database layer.
//   - Timestamps are unix seconds (int64). Nullable timestamps are *int64.
//   - External views embed short-lived JWT references for every file they
//     point at; those fields are rendered per-request and never stored.
package models
