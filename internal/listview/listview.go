// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listview derives the table shown by every browse and admin list
// page: a filtered, sorted, paginated view of a fetched collection. The
// derivation is a pure function of (collection, params); the input slice is
// never mutated and recomputing with the same inputs yields the same view.
package listview

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PageSize is either a fixed page length or unbounded ("all"). Modeled as a
// tagged variant instead of a numeric field with a string sentinel.
type PageSize struct {
	unbounded bool
	n         int
}

// Fixed returns a page size of n rows. Values below 1 are clamped to 1.
func Fixed(n int) PageSize {
	if n < 1 {
		n = 1
	}
	return PageSize{n: n}
}

// Unbounded shows the whole collection on one page.
func Unbounded() PageSize {
	return PageSize{unbounded: true}
}

// IsUnbounded reports whether the size is the "all" variant.
func (p PageSize) IsUnbounded() bool { return p.unbounded }

// N returns the fixed page length; 0 for the unbounded variant.
func (p PageSize) N() int {
	if p.unbounded {
		return 0
	}
	return p.n
}

// String renders the value as it appears in a query parameter.
func (p PageSize) String() string {
	if p.unbounded {
		return "all"
	}
	return strconv.Itoa(p.n)
}

// ParsePageSize reads a query-parameter value; "all" selects the unbounded
// variant and anything unparsable falls back to def.
func ParsePageSize(s string, def int) PageSize {
	if s == "all" {
		return Unbounded()
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return Fixed(def)
	}
	return Fixed(n)
}

// Sort names a column and direction.
type Sort struct {
	Key  string
	Desc bool
}

// Params are everything a view derivation depends on.
type Params struct {
	Search      string
	SearchField string
	Sort        Sort
	PageSize    PageSize
	Page        int
}

// Options supply the per-entity accessors the generic derivation needs.
type Options[T any] struct {
	// SearchValue returns the text to substring-match for the selected
	// search field (e.g. the title, or an author name resolved through a
	// side-loaded id→name map).
	SearchValue func(row T, field string) string
	// Compare is a three-way comparison on the sort key. Ties keep their
	// original order: the sort is stable.
	Compare func(a, b T, key string) int
	// Ranges are bound range-filter predicates; a row must satisfy all.
	Ranges []func(row T) bool
}

// Result is the derived view plus the figures the pagination controls need.
type Result[T any] struct {
	Rows       []T // the current page
	Filtered   int // row count after search and range filters
	Page       int // clamped current page
	TotalPages int
}

// Apply derives the view in the fixed order: search, range filters, stable
// sort, paginate.
func Apply[T any](rows []T, p Params, opts Options[T]) Result[T] {
	filtered := make([]T, 0, len(rows))
	query := strings.ToLower(strings.TrimSpace(p.Search))

rowLoop:
	for _, row := range rows {
		if query != "" && opts.SearchValue != nil {
			value := strings.ToLower(opts.SearchValue(row, p.SearchField))
			if !strings.Contains(value, query) {
				continue
			}
		}
		for _, keep := range opts.Ranges {
			if !keep(row) {
				continue rowLoop
			}
		}
		filtered = append(filtered, row)
	}

	if p.Sort.Key != "" && opts.Compare != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			c := opts.Compare(filtered[i], filtered[j], p.Sort.Key)
			if p.Sort.Desc {
				return c > 0
			}
			return c < 0
		})
	}

	total := len(filtered)

	if p.PageSize.IsUnbounded() {
		return Result[T]{Rows: filtered, Filtered: total, Page: 1, TotalPages: 1}
	}

	size := p.PageSize.N()
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result[T]{
		Rows:       filtered[start:end],
		Filtered:   total,
		Page:       page,
		TotalPages: totalPages,
	}
}

// Remove splices the row with the given match out of a collection, returning
// a new slice. Handlers use it to drop a deleted entity from both the full
// collection and the current view in one state update.
func Remove[T any](rows []T, match func(T) bool) []T {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if match(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// IntRange binds an inclusive numeric range filter. Empty bounds impose no
// constraint; unparsable bounds are treated as absent.
func IntRange[T any](value func(T) int64, from, to string) func(T) bool {
	lo, hasLo := parseInt(from)
	hi, hasHi := parseInt(to)
	return func(row T) bool {
		v := value(row)
		if hasLo && v < lo {
			return false
		}
		if hasHi && v > hi {
			return false
		}
		return true
	}
}

// TimeRange binds an inclusive date range filter, parsing bounds as
// YYYY-MM-DD. The upper bound covers the whole day it names.
func TimeRange[T any](value func(T) time.Time, from, to string) func(T) bool {
	lo, hasLo := parseDate(from)
	hi, hasHi := parseDate(to)
	if hasHi {
		hi = hi.Add(24*time.Hour - time.Nanosecond)
	}
	return func(row T) bool {
		v := value(row)
		if hasLo && v.Before(lo) {
			return false
		}
		if hasHi && v.After(hi) {
			return false
		}
		return true
	}
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// collator compares titles and names the way a reader sorts them, not by
// code point. Loose comparison folds case and diacritics. Collators carry an
// internal buffer, so access is serialized.
var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.Loose)
)

// CompareStrings is a collation-aware three-way string comparison for use in
// Options.Compare implementations.
func CompareStrings(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

// CompareInt64 is a three-way comparison for numeric sort keys.
func CompareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CompareTimes is a three-way comparison for timestamp sort keys.
func CompareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
