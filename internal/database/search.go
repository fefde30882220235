// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oseh/backend/internal/metrics"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/query"
)

const (
	// DefaultSearchLimit applies when a request does not name a page size.
	DefaultSearchLimit = 25

	// MaxSearchLimit caps the page size regardless of the request.
	MaxSearchLimit = 250
)

// SearchSpec describes one entity's searchable surface: where its rows come
// from, which logical keys resolve to which SQL expressions, which keys may
// sort (ending in a unique one), and how a result row maps back to a model.
type SearchSpec[T any] struct {
	// Table is the primary table, used only as a metric label.
	Table string

	// From is the FROM clause, including any fixed joins.
	From string

	// Columns is the SELECT list matching Scan.
	Columns string

	// Resolve maps logical keys to physical expressions.
	Resolve query.Resolver

	// SortOptions is the sort whitelist.
	SortOptions []query.SortOption

	// Scan reads one result row.
	Scan func(rows *sql.Rows) (T, error)

	// Project maps an item onto its sort-option keys, for cursors.
	Project func(T) query.Projection
}

// Search runs one keyset-paginated page query. The flow:
//
//  1. validate and complete the sort, flatten the filters
//  2. fetch limit+1 rows; the extra row only signals that a next page exists
//  3. build next_page_sort from the first/last returned row
//  4. when the request was itself paginating, probe with a reversed limit-1
//     query whether an earlier page exists; otherwise there is none
//
// Returned errors that implement query.ClientError describe invalid requests
// and map to 422; everything else is a server fault.
func Search[T any](ctx context.Context, db *DB, spec SearchSpec[T], req *models.SearchRequest) (*models.SearchResponse[T], error) {
	sort, err := query.CleanSort(spec.SortOptions, req.Sort)
	if err != nil {
		return nil, err
	}

	filters := query.Flatten(req.Filters)
	filterCond, filterArgs, err := query.FilterCriterion(filters, spec.Resolve)
	if err != nil {
		return nil, err
	}
	cursorCond, cursorArgs, err := query.SortCriterion(sort, spec.Resolve)
	if err != nil {
		return nil, err
	}
	order, err := query.OrderClause(sort, spec.Resolve)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(spec.Columns)
	sb.WriteString(" FROM ")
	sb.WriteString(spec.From)

	args := make([]any, 0, len(filterArgs)+len(cursorArgs)+1)
	conds := make([]string, 0, 2)
	if filterCond != "" {
		conds = append(conds, filterCond)
		args = append(args, filterArgs...)
	}
	if cursorCond != "" {
		conds = append(conds, cursorCond)
		args = append(args, cursorArgs...)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)
	sb.WriteString(" LIMIT ?")
	args = append(args, limit+1)

	queryStart := time.Now()
	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	metrics.RecordDBQuery("search", spec.Table, time.Since(queryStart), err)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	items := make([]T, 0, limit)
	for rows.Next() {
		item, err := spec.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	haveMore := len(items) > limit
	if haveMore {
		items = items[:limit]
	}

	if len(items) == 0 {
		return &models.SearchResponse[T]{Items: items}, nil
	}

	first := spec.Project(items[0])
	last := spec.Project(items[len(items)-1])

	nextPage := query.NextPageSort(first, last, sort)
	if !haveMore {
		nextPage = query.StripAfter(nextPage)
	}

	if query.Paginating(sort) {
		earlier, err := hasEarlierPage(ctx, db, spec, filterCond, filterArgs, nextPage)
		if err != nil {
			return nil, err
		}
		if !earlier {
			nextPage = query.StripBefore(nextPage)
		}
	} else {
		// A request with no cursor is page one; nothing precedes it.
		nextPage = query.StripBefore(nextPage)
	}

	if !query.Paginating(nextPage) && !anyBefore(nextPage) {
		nextPage = nil
	}

	return &models.SearchResponse[T]{Items: items, NextPageSort: nextPage}, nil
}

// hasEarlierPage reports whether any row precedes the current page's first
// row under the same filters. ReverseSort turns the first-row Before bounds
// into exclusive After bounds walking the ordering backwards, so a single
// LIMIT 1 probe answers the question.
func hasEarlierPage[T any](ctx context.Context, db *DB, spec SearchSpec[T], filterCond string, filterArgs []any, nextPage []query.SortItem) (bool, error) {
	probe := query.ReverseSort(nextPage, query.ReverseMakeExclusive)

	cursorCond, cursorArgs, err := query.SortCriterion(probe, spec.Resolve)
	if err != nil {
		return false, err
	}
	order, err := query.OrderClause(probe, spec.Resolve)
	if err != nil {
		return false, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT 1 FROM ")
	sb.WriteString(spec.From)

	args := make([]any, 0, len(filterArgs)+len(cursorArgs))
	conds := make([]string, 0, 2)
	if filterCond != "" {
		conds = append(conds, filterCond)
		args = append(args, filterArgs...)
	}
	if cursorCond != "" {
		conds = append(conds, cursorCond)
		args = append(args, cursorArgs...)
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)
	sb.WriteString(" LIMIT 1")

	var one int
	queryStart := time.Now()
	err = db.conn.QueryRowContext(ctx, sb.String(), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery("probe", spec.Table, time.Since(queryStart), nil)
		return false, nil
	}
	metrics.RecordDBQuery("probe", spec.Table, time.Since(queryStart), err)
	if err != nil {
		return false, fmt.Errorf("earlier-page probe failed: %w", err)
	}
	return true, nil
}

func anyBefore(sort []query.SortItem) bool {
	for _, item := range sort {
		if item.Before != nil {
			return true
		}
	}
	return false
}

// resolverFromMap builds a Resolver over an entity's pseudocolumn table.
func resolverFromMap(columns map[string]query.Column) query.Resolver {
	return func(key string) (query.Column, bool) {
		col, ok := columns[key]
		return col, ok
	}
}
