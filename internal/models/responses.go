// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

import (
	"time"
)

// APIResponse is the standardized envelope used by all JSON endpoints.
// It provides a consistent structure for successful and error responses,
// with metadata for observability and caching information.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"items": [...], "next_page_sort": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-25T12:00:00Z",
//	    "query_time_ms": 4,
//	    "cached": false
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "unknown_sort_item",
//	    "message": "journeys cannot be sorted by \"popularity\"",
//	    "details": {"key": "popularity"}
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
//
// Endpoints that return rendered view bytes (the external journey and daily
// event reads) bypass this envelope: the cached template already carries the
// full response body.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
//
// Query time tracking:
//   - cached responses: QueryTimeMS is 0, Cached is true
//   - fresh queries: QueryTimeMS shows actual DB execution time
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError carries structured error details. Code is machine-readable and
// stable; Message is for humans; Details is optional context (offending
// field, constraint, etc.).
//
// Common codes:
//   - "validation_error": request body failed validation
//   - "unknown_sort_item", "duplicate_sort_items", "inconsistent_pagination",
//     "unknown_filter", "invalid_filter": search request errors (422)
//   - "unauthorized", "forbidden": authentication / authorization failures
//   - "not_found": resource does not exist
//   - "rate_limited": too many requests
//   - "internal_error": unexpected server failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
