// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package query

import "strings"

// Column is a resolved pseudocolumn: the physical SQL expression a logical
// key maps to, which may be a plain column, a computed expression, or a
// correlated subquery. Nullable controls NULL handling in keyset predicates
// and must match the schema.
type Column struct {
	Expr     string
	Nullable bool
}

// Resolver maps a logical key to its Column. Each entity declares its table
// as an explicit map; ok is false for keys the entity does not expose.
type Resolver func(key string) (Column, bool)

// SortCriterion builds the keyset predicate selecting rows strictly after
// the sort's cursor tuple. Returns an empty string when the sort carries no
// cursor (first page).
//
// The predicate is the lexicographic "after" comparison: each sort key
// contributes a branch constraining that key directionally, AND-ed with
// equality on all earlier keys, OR-ed together. sqlite collates NULL below
// every value, which yields the special cases:
//
//   - ascending after NULL        -> col IS NOT NULL
//   - descending after NULL       -> matches nothing (nothing sorts after
//     NULL in descending order)
//   - descending after a value    -> col < ? OR col IS NULL, since the NULL
//     rows sort at the end of a descending ordering
//
// Inclusive directions use >=/<= and admit the boundary (ascending
// inclusive after NULL constrains nothing; descending inclusive after NULL
// keeps only the NULL rows).
func SortCriterion(sort []SortItem, resolve Resolver) (string, []any, error) {
	if !Paginating(sort) {
		return "", nil, nil
	}

	var (
		branches []string
		args     []any
		eqConds  []string
		eqArgs   []any
	)

	for _, item := range sort {
		col, ok := resolve(item.Key)
		if !ok {
			return "", nil, &UnknownSortItemError{Key: item.Key}
		}

		cond, condArgs, possible := directionalConstraint(item, col)
		if possible {
			parts := make([]string, 0, len(eqConds)+1)
			parts = append(parts, eqConds...)
			parts = append(parts, cond)
			branches = append(branches, "("+strings.Join(parts, " AND ")+")")
			args = append(args, eqArgs...)
			args = append(args, condArgs...)
		}

		eqCond, eqCondArgs := equalityConstraint(item, col)
		eqConds = append(eqConds, eqCond)
		eqArgs = append(eqArgs, eqCondArgs...)
	}

	if len(branches) == 0 {
		return "1=0", nil, nil
	}
	return "(" + strings.Join(branches, " OR ") + ")", args, nil
}

// directionalConstraint renders one sort item's own comparison against its
// cursor bound. possible is false when the constraint can never match.
func directionalConstraint(item SortItem, col Column) (cond string, args []any, possible bool) {
	v := normalizeArg(item.After)
	desc := item.Dir.IsDescending()
	inclusive := item.Dir.IsInclusive()

	if v == nil {
		switch {
		case !desc && !inclusive:
			return col.Expr + " IS NOT NULL", nil, true
		case !desc && inclusive:
			return "1=1", nil, true
		case desc && !inclusive:
			return "", nil, false
		default: // desc && inclusive
			return col.Expr + " IS NULL", nil, true
		}
	}

	op := cmpOperator(desc, inclusive)
	if desc && col.Nullable {
		return "(" + col.Expr + " " + op + " ? OR " + col.Expr + " IS NULL)", []any{v}, true
	}
	return col.Expr + " " + op + " ?", []any{v}, true
}

func cmpOperator(desc, inclusive bool) string {
	switch {
	case desc && inclusive:
		return "<="
	case desc:
		return "<"
	case inclusive:
		return ">="
	default:
		return ">"
	}
}

// equalityConstraint renders the tie-breaking equality for one sort item,
// NULL-safe for nullable keys.
func equalityConstraint(item SortItem, col Column) (string, []any) {
	v := normalizeArg(item.After)
	if v == nil {
		return col.Expr + " IS NULL", nil
	}
	return col.Expr + " = ?", []any{v}
}

// OrderClause builds the ORDER BY fragment for the sort (without the
// "ORDER BY" keyword). Inclusivity does not affect ordering.
func OrderClause(sort []SortItem, resolve Resolver) (string, error) {
	parts := make([]string, 0, len(sort))
	for _, item := range sort {
		col, ok := resolve(item.Key)
		if !ok {
			return "", &UnknownSortItemError{Key: item.Key}
		}
		dir := " ASC"
		if item.Dir.IsDescending() {
			dir = " DESC"
		}
		parts = append(parts, col.Expr+dir)
	}
	return strings.Join(parts, ", "), nil
}
