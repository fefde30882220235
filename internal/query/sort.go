// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package query

// Direction orders a sort key. The inclusive variants treat the pagination
// cursor as part of the page rather than strictly before it; they appear
// only transiently (probe queries) and are converted back to exclusive
// before a sort is handed to a client.
type Direction string

const (
	DirAscending           Direction = "asc"
	DirAscendingInclusive  Direction = "asc_inclusive"
	DirDescending          Direction = "desc"
	DirDescendingInclusive Direction = "desc_inclusive"
)

// IsDescending reports whether d orders high-to-low.
func (d Direction) IsDescending() bool {
	return d == DirDescending || d == DirDescendingInclusive
}

// IsInclusive reports whether the cursor bound itself is part of the page.
func (d Direction) IsInclusive() bool {
	return d == DirAscendingInclusive || d == DirDescendingInclusive
}

// MakeExclusive strips inclusivity, keeping the direction.
func (d Direction) MakeExclusive() Direction {
	if d.IsDescending() {
		return DirDescending
	}
	return DirAscending
}

// MakeInclusive adds inclusivity, keeping the direction.
func (d Direction) MakeInclusive() Direction {
	if d.IsDescending() {
		return DirDescendingInclusive
	}
	return DirAscendingInclusive
}

// Flipped swaps ascending and descending, keeping inclusivity.
func (d Direction) Flipped() Direction {
	switch d {
	case DirAscending:
		return DirDescending
	case DirAscendingInclusive:
		return DirDescendingInclusive
	case DirDescending:
		return DirAscending
	case DirDescendingInclusive:
		return DirAscendingInclusive
	default:
		return d
	}
}

// valid reports whether d is one of the four known directions.
func (d Direction) valid() bool {
	switch d {
	case DirAscending, DirAscendingInclusive, DirDescending, DirDescendingInclusive:
		return true
	default:
		return false
	}
}

// SortItem is one entry of a sort list. After is the cursor bound supplied
// by the client to fetch the next page; Before is computed by the server and
// echoed back to support backward pagination. A nil After on a nullable key
// while the sort is paginating means the boundary row's value was NULL.
type SortItem struct {
	Key    string    `json:"key"`
	Dir    Direction `json:"dir"`
	Before any       `json:"before,omitempty"`
	After  any       `json:"after,omitempty"`
}

// SortOption is one entry of an entity's sort whitelist. Unique marks keys
// that are non-nullable and distinct across rows; every usable sort
// terminates in one.
type SortOption struct {
	Key    string
	Unique bool
}

// Projection is the dict-projection of a returned row onto the logical sort
// keys, used to derive cursors for the neighbouring pages.
type Projection map[string]any

// ReverseMode selects how ReverseSort treats cursor exclusivity while
// flipping directions.
type ReverseMode string

const (
	// ReverseMaintainExclusivity keeps each item's exclusivity as-is.
	// ReverseSort is an involution under this mode.
	ReverseMaintainExclusivity ReverseMode = "maintain_exclusivity"

	// ReverseSwapExclusivity turns exclusive bounds inclusive and vice versa.
	ReverseSwapExclusivity ReverseMode = "swap_exclusivity"

	// ReverseMakeInclusive forces every flipped item inclusive.
	ReverseMakeInclusive ReverseMode = "make_inclusive"

	// ReverseMakeExclusive forces every flipped item exclusive. This is the
	// mode used to probe for an earlier page.
	ReverseMakeExclusive ReverseMode = "make_exclusive"
)

// Paginating reports whether any item of the sort carries an After cursor.
func Paginating(sort []SortItem) bool {
	for _, item := range sort {
		if item.After != nil {
			return true
		}
	}
	return false
}

// CleanSort validates and normalizes a requested sort against the entity's
// whitelist:
//
//   - every requested key must appear in options (UnknownSortItemError)
//   - no key may appear twice (DuplicateSortItemsError)
//   - everything after the first unique key is dropped, and if no unique key
//     was requested the first unique option is appended ascending
//   - if any item carries an After cursor, every unique key must too
//     (InconsistentPaginationError)
//
// An empty request yields the default sort: the first unique option,
// ascending. CleanSort is idempotent over its own output.
func CleanSort(options []SortOption, requested []SortItem) ([]SortItem, error) {
	byKey := make(map[string]SortOption, len(options))
	for _, opt := range options {
		byKey[opt.Key] = opt
	}

	seen := make(map[string]struct{}, len(requested))
	for _, item := range requested {
		if _, ok := byKey[item.Key]; !ok || !item.Dir.valid() {
			return nil, &UnknownSortItemError{Key: item.Key}
		}
		if _, dup := seen[item.Key]; dup {
			return nil, &DuplicateSortItemsError{Key: item.Key}
		}
		seen[item.Key] = struct{}{}
	}

	cleaned := make([]SortItem, 0, len(requested)+1)
	for _, item := range requested {
		item.After = normalizeArg(item.After)
		item.Before = normalizeArg(item.Before)
		cleaned = append(cleaned, item)

		// A unique key fully determines order; trailing keys are redundant.
		if byKey[item.Key].Unique {
			break
		}
	}

	if len(cleaned) == 0 || !byKey[cleaned[len(cleaned)-1].Key].Unique {
		cleaned = append(cleaned, SortItem{Key: defaultUnique(options).Key, Dir: DirAscending})
	}

	if Paginating(cleaned) {
		for _, item := range cleaned {
			if byKey[item.Key].Unique && item.After == nil {
				return nil, &InconsistentPaginationError{Key: item.Key}
			}
		}
	}

	return cleaned, nil
}

// defaultUnique returns the first unique option. Every entity's whitelist
// must declare one; a missing entry is a programming error, not client input.
func defaultUnique(options []SortOption) SortOption {
	for _, opt := range options {
		if opt.Unique {
			return opt
		}
	}
	panic("query: sort options declare no unique key")
}

// ReverseSort flips each item's direction per mode and swaps its cursor
// bounds, producing the sort that walks the same ordering backwards. It is
// used to probe whether an earlier page exists without re-running the full
// query.
func ReverseSort(sort []SortItem, mode ReverseMode) []SortItem {
	out := make([]SortItem, len(sort))
	for i, item := range sort {
		dir := item.Dir.Flipped()
		switch mode {
		case ReverseSwapExclusivity:
			if dir.IsInclusive() {
				dir = dir.MakeExclusive()
			} else {
				dir = dir.MakeInclusive()
			}
		case ReverseMakeInclusive:
			dir = dir.MakeInclusive()
		case ReverseMakeExclusive:
			dir = dir.MakeExclusive()
		}

		out[i] = SortItem{
			Key:    item.Key,
			Dir:    dir,
			Before: item.After,
			After:  item.Before,
		}
	}
	return out
}

// NextPageSort builds the sort list handed back to the client after a page
// is fetched. first and last are the projections of the first and last
// returned row. Each item keeps its key and direction (inclusive directions
// become exclusive, since the returned bounds must be treated as exclusive
// going forward), gains After from the last row and Before from the first.
func NextPageSort(first, last Projection, sort []SortItem) []SortItem {
	out := make([]SortItem, len(sort))
	for i, item := range sort {
		out[i] = SortItem{
			Key:    item.Key,
			Dir:    item.Dir.MakeExclusive(),
			Before: first[item.Key],
			After:  last[item.Key],
		}
	}
	return out
}

// StripAfter returns a copy of sort with every After cleared, for responses
// where no later page exists.
func StripAfter(sort []SortItem) []SortItem {
	out := make([]SortItem, len(sort))
	for i, item := range sort {
		item.After = nil
		out[i] = item
	}
	return out
}

// StripBefore returns a copy of sort with every Before cleared, for
// responses where no earlier page exists.
func StripBefore(sort []SortItem) []SortItem {
	out := make([]SortItem, len(sort))
	for i, item := range sort {
		item.Before = nil
		out[i] = item
	}
	return out
}
