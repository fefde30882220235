// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package query

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Operator is a comparison operator applied to a pseudocolumn. The ordering
// operators work on any comparable column; ieq/ineq/like/ilike are text
// operators.
type Operator string

const (
	OpEqual              Operator = "eq"
	OpNotEqual           Operator = "neq"
	OpGreaterThan        Operator = "gt"
	OpGreaterThanOrEqual Operator = "gte"
	OpLessThan           Operator = "lt"
	OpLessThanOrEqual    Operator = "lte"

	// OpEqualCaseInsensitive matches the whole value ignoring case:
	// "Tim" matches "tim" and "TIM" but not "timothy".
	OpEqualCaseInsensitive    Operator = "ieq"
	OpNotEqualCaseInsensitive Operator = "ineq"

	// OpLike and OpILike use SQL LIKE patterns (% and _ wildcards).
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// FilterItem is a single comparison predicate against a named pseudocolumn.
// Value may be a string, number, bool, or null; null is only meaningful with
// eq/neq, which become IS NULL / IS NOT NULL.
type FilterItem struct {
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// KeyedFilter pairs a pseudocolumn key with its filter.
type KeyedFilter struct {
	Key    string
	Filter FilterItem
}

// Flatten drops unset filters and returns the remainder as an ordered list.
// Keys are emitted in lexicographic order so the generated SQL text is
// deterministic for identical requests.
func Flatten(filters map[string]*FilterItem) []KeyedFilter {
	keys := make([]string, 0, len(filters))
	for key, item := range filters {
		if item == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]KeyedFilter, 0, len(keys))
	for _, key := range keys {
		out = append(out, KeyedFilter{Key: key, Filter: *filters[key]})
	}
	return out
}

// FilterCriterion builds the WHERE fragment for the given filters. Returns
// an empty string when there are no filters. Errors are ClientErrors bound
// for 422 responses.
func FilterCriterion(filters []KeyedFilter, resolve Resolver) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(filters))
	var args []any

	for _, kf := range filters {
		col, ok := resolve(kf.Key)
		if !ok {
			return "", nil, &UnknownFilterError{Key: kf.Key}
		}

		cond, condArgs, err := filterCondition(kf.Key, kf.Filter, col)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
		args = append(args, condArgs...)
	}

	return strings.Join(conds, " AND "), args, nil
}

// filterCondition renders one filter as SQL.
func filterCondition(key string, f FilterItem, col Column) (string, []any, error) {
	v := normalizeArg(f.Value)

	if v == nil {
		switch f.Operator {
		case OpEqual:
			return col.Expr + " IS NULL", nil, nil
		case OpNotEqual:
			return col.Expr + " IS NOT NULL", nil, nil
		default:
			return "", nil, &InvalidFilterError{Key: key, Reason: fmt.Sprintf("operator %q cannot compare against null", f.Operator)}
		}
	}

	switch f.Operator {
	case OpEqual:
		return col.Expr + " = ?", []any{v}, nil
	case OpNotEqual:
		return col.Expr + " != ?", []any{v}, nil
	case OpGreaterThan:
		return col.Expr + " > ?", []any{v}, nil
	case OpGreaterThanOrEqual:
		return col.Expr + " >= ?", []any{v}, nil
	case OpLessThan:
		return col.Expr + " < ?", []any{v}, nil
	case OpLessThanOrEqual:
		return col.Expr + " <= ?", []any{v}, nil
	case OpEqualCaseInsensitive:
		if _, isStr := v.(string); !isStr {
			return "", nil, &InvalidFilterError{Key: key, Reason: "ieq requires a string value"}
		}
		return col.Expr + " = ? COLLATE NOCASE", []any{v}, nil
	case OpNotEqualCaseInsensitive:
		if _, isStr := v.(string); !isStr {
			return "", nil, &InvalidFilterError{Key: key, Reason: "ineq requires a string value"}
		}
		return col.Expr + " != ? COLLATE NOCASE", []any{v}, nil
	case OpLike:
		if _, isStr := v.(string); !isStr {
			return "", nil, &InvalidFilterError{Key: key, Reason: "like requires a string pattern"}
		}
		return col.Expr + " LIKE ?", []any{v}, nil
	case OpILike:
		if _, isStr := v.(string); !isStr {
			return "", nil, &InvalidFilterError{Key: key, Reason: "ilike requires a string pattern"}
		}
		return "LOWER(" + col.Expr + ") LIKE LOWER(?)", []any{v}, nil
	default:
		return "", nil, &InvalidFilterError{Key: key, Reason: fmt.Sprintf("unknown operator %q", f.Operator)}
	}
}

// normalizeArg converts JSON-decoded values into their natural SQL binding
// types. JSON numbers arrive as float64; integral ones are rebound as int64
// so integer columns compare as integers.
func normalizeArg(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}
