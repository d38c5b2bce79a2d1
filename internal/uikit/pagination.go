// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package uikit provides the view-model helpers shared by the list
// templates: pagination controls and the template func map.
package uikit

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Pagination holds the data a list template needs to render page controls.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []Page
	BaseURL     string
	QueryString string
}

// Page is a single control: a numbered link or an ellipsis gap.
type Page struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// visiblePages caps how many numbered controls appear at once.
const visiblePages = 5

// Build creates pagination data for a list page. baseURL is the path without
// query string; queryParams are the current parameters to preserve across
// page links (search, filters, sort, page size).
func Build(currentPage, totalPages, totalItems int, baseURL string, queryParams url.Values) Pagination {
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	p := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
		BaseURL:     baseURL,
	}

	// Preserve everything except the page parameter itself.
	if queryParams != nil {
		params := make(url.Values)
		for k, v := range queryParams {
			if k != "page" && len(v) > 0 && v[0] != "" {
				params[k] = v
			}
		}
		if len(params) > 0 {
			p.QueryString = params.Encode()
		}
	}

	p.Pages = buildPages(currentPage, totalPages, p.PageURL)
	return p
}

// buildPages generates the numbered controls with ellipsis collapsing: all
// pages when they fit; otherwise a window of visiblePages-1 numbers adjacent
// to the current page plus the far end separated by an ellipsis, biased so
// the window never runs off either end.
func buildPages(current, total int, pageURL func(int) string) []Page {
	number := func(n int) Page {
		return Page{Number: n, URL: pageURL(n), IsCurrent: n == current}
	}
	ellipsis := Page{IsEllipsis: true}

	var pages []Page
	switch {
	case total <= visiblePages:
		for i := 1; i <= total; i++ {
			pages = append(pages, number(i))
		}
	case current <= (visiblePages+1)/2:
		for i := 1; i <= visiblePages-1; i++ {
			pages = append(pages, number(i))
		}
		pages = append(pages, ellipsis, number(total))
	case current > total-visiblePages/2:
		pages = append(pages, number(1), ellipsis)
		for i := total - visiblePages + 2; i <= total; i++ {
			pages = append(pages, number(i))
		}
	default:
		pages = append(pages, number(1), ellipsis,
			number(current-1), number(current), number(current+1),
			ellipsis, number(total))
	}
	return pages
}

// PageURL returns the link for a page number, preserving the query string.
func (p Pagination) PageURL(page int) string {
	if p.QueryString != "" {
		return fmt.Sprintf("%s?%s&page=%d", p.BaseURL, p.QueryString, page)
	}
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// ShouldShow reports whether the controls are worth rendering.
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// ParsePageParam reads the "page" query parameter, defaulting to 1.
func ParsePageParam(r *http.Request) int {
	return ParseIntParam(r, "page", 1, 1, 0)
}

// ParseIntParam parses an integer query parameter. Missing, empty, or
// out-of-range values return defaultVal. maxVal of 0 means no upper bound.
func ParseIntParam(r *http.Request, param string, defaultVal, minVal, maxVal int) int {
	str := r.URL.Query().Get(param)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if minVal > 0 && val < minVal {
		return defaultVal
	}
	if maxVal > 0 && val > maxVal {
		return defaultVal
	}
	return val
}

// ParseInt64Param parses a named query or form parameter as a positive
// int64. Returns 0 when missing, invalid, or not positive.
func ParseInt64Param(r *http.Request, name string) int64 {
	str := r.URL.Query().Get(name)
	if str == "" {
		str = r.FormValue(name)
	}
	if str == "" {
		return 0
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil || val <= 0 {
		return 0
	}
	return val
}

// Breadcrumb represents a single breadcrumb item.
type Breadcrumb struct {
	Label  string
	URL    string
	Active bool
}
