// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package api wires the HTTP surface: the chi route tree, request decoding
// and validation, the response envelope, and the translation from service
// errors to status codes.
//
// The surface splits in two. User routes authenticate with a user JWT and
// serve rendered views plus entitlement checks. Admin routes authenticate
// with a personal access token and are gated per object and action by the
// authz enforcer; they serve search and catalog mutations.
//
// Rendered view endpoints (the external journey and daily event reads) write
// cached template bytes directly and skip the envelope - the template already
// carries the full response body, with credentials rendered per request.
package api
