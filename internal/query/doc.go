// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package query implements the filter/sort engine shared by every admin
// search endpoint: it translates typed filter and sort descriptors from the
// request body into SQL predicate fragments and keyset-pagination cursors.
//
// The engine is a leaf: pure computation, no I/O, no knowledge of any entity.
// Each store supplies the entity-specific pieces - a whitelist of sort
// options and a pseudocolumn table resolving logical keys to physical SQL
// expressions - and drives the engine like so:
//
//	cleaned, err := query.CleanSort(options, req.Sort)
//	// -> 422 on UnknownSortItemError / DuplicateSortItemsError /
//	//    InconsistentPaginationError
//
//	where, args, err := query.FilterCriterion(query.Flatten(req.Filters), resolve)
//	keyset, kargs, err := query.SortCriterion(cleaned, resolve)
//	order, err := query.OrderClause(cleaned, resolve)
//
//	// fetch limit+1 rows; the extra row only signals another page
//	next := query.NextPageSort(project(rows[0]), project(rows[len(rows)-1]), cleaned)
//
// Pagination is keyset-based ("rows after this tuple of sort-key values"),
// never offset-based, so pages stay stable under concurrent writes. A sort
// always terminates in a unique key; CleanSort appends one when the caller
// does not.
package query
