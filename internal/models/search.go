// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

import (
	"github.com/oseh/backend/internal/query"
)

// SearchRequest is the body every admin search endpoint accepts. Filters map
// pseudocolumn keys to comparisons; a JSON null filter decodes as a nil
// pointer and counts as unset. Sort is validated and completed against the
// entity's sort options before use.
//
// Example:
//
//	{
//	  "filters": {
//	    "title": {"operator": "ilike", "value": "%calm%"},
//	    "deleted_at": {"operator": "eq", "value": null}
//	  },
//	  "sort": [{"key": "created_at", "dir": "desc"}],
//	  "limit": 25
//	}
type SearchRequest struct {
	Filters map[string]*query.FilterItem `json:"filters"`
	Sort    []query.SortItem             `json:"sort"`
	Limit   int                          `json:"limit" validate:"omitempty,min=1,max=250"`
}

// SearchResponse is the page a search endpoint returns. NextPageSort, when
// present, is the exact sort array the client resubmits to get the next page;
// it is absent on the last page.
type SearchResponse[T any] struct {
	Items        []T              `json:"items"`
	NextPageSort []query.SortItem `json:"next_page_sort,omitempty"`
}
