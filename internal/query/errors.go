// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package query

import "fmt"

// ClientError is implemented by every deterministic, client-input-driven
// validation error the engine produces. These map directly to 422 responses;
// there is no retry or recovery - the caller must resubmit a corrected
// request.
type ClientError interface {
	error

	// ErrorCode returns the machine-readable code for the API error envelope.
	ErrorCode() string
}

// UnknownSortItemError indicates a requested sort key that is not in the
// entity's sort option whitelist.
type UnknownSortItemError struct {
	Key string
}

func (e *UnknownSortItemError) Error() string {
	return fmt.Sprintf("unknown sort key %q", e.Key)
}

func (e *UnknownSortItemError) ErrorCode() string { return "unknown_sort_item" }

// DuplicateSortItemsError indicates the same sort key was requested more
// than once.
type DuplicateSortItemsError struct {
	Key string
}

func (e *DuplicateSortItemsError) Error() string {
	return fmt.Sprintf("duplicate sort key %q", e.Key)
}

func (e *DuplicateSortItemsError) ErrorCode() string { return "duplicate_sort_items" }

// InconsistentPaginationError indicates a sort where some item carries a
// pagination cursor but a unique key does not. Such a request cannot be
// resumed deterministically, so it is rejected rather than guessed at.
type InconsistentPaginationError struct {
	Key string
}

func (e *InconsistentPaginationError) Error() string {
	return fmt.Sprintf("sort item %q is unique but carries no pagination cursor while other items do", e.Key)
}

func (e *InconsistentPaginationError) ErrorCode() string { return "inconsistent_pagination" }

// UnknownFilterError indicates a filter against a key the entity does not
// expose as a pseudocolumn.
type UnknownFilterError struct {
	Key string
}

func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("unknown filter key %q", e.Key)
}

func (e *UnknownFilterError) ErrorCode() string { return "unknown_filter" }

// InvalidFilterError indicates a filter whose operator/value combination is
// not executable, e.g. an ordering comparison against null.
type InvalidFilterError struct {
	Key    string
	Reason string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter on %q: %s", e.Key, e.Reason)
}

func (e *InvalidFilterError) ErrorCode() string { return "invalid_filter" }
