// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

/*
Package middleware provides the infrastructure HTTP middleware: request id
tracking, Prometheus instrumentation, and gzip compression. Authentication
and authorization middleware live with their packages (internal/auth,
internal/authz); this package is concern-free plumbing that every route
group shares.

All middleware uses the standard func(http.Handler) http.Handler shape so
it composes with chi's Use/With:

	r.Use(middleware.RequestID)
	r.Use(middleware.Prometheus)
	r.Use(middleware.Compression)

Prometheus labels requests by chi route pattern rather than raw URL path,
so /api/1/journeys/{uid} stays one series no matter how many journeys
exist.
*/
package middleware
