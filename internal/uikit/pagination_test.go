// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"net/http/httptest"
	"net/url"
	"testing"
)

// shape renders the page controls as a compact string for assertions:
// numbers as digits, ellipsis as ".", current page wrapped in brackets.
func shape(p Pagination) []int {
	out := make([]int, 0, len(p.Pages))
	for _, page := range p.Pages {
		if page.IsEllipsis {
			out = append(out, 0)
		} else {
			out = append(out, page.Number)
		}
	}
	return out
}

func TestBuild_FewPagesShowsAll(t *testing.T) {
	p := Build(2, 4, 12, "/admin/posts", nil)

	want := []int{1, 2, 3, 4}
	got := shape(p)
	if len(got) != len(want) {
		t.Fatalf("pages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pages = %v, want %v", got, want)
			break
		}
	}
	if !p.Pages[1].IsCurrent {
		t.Error("page 2 should be current")
	}
}

func TestBuild_WindowNearStart(t *testing.T) {
	p := Build(2, 10, 30, "/admin/posts", nil)

	want := []int{1, 2, 3, 4, 0, 10}
	got := shape(p)
	assertShape(t, got, want)
}

func TestBuild_WindowNearEnd(t *testing.T) {
	p := Build(9, 10, 30, "/admin/posts", nil)

	want := []int{1, 0, 7, 8, 9, 10}
	got := shape(p)
	assertShape(t, got, want)
}

func TestBuild_WindowInMiddle(t *testing.T) {
	p := Build(5, 10, 30, "/admin/posts", nil)

	want := []int{1, 0, 4, 5, 6, 0, 10}
	got := shape(p)
	assertShape(t, got, want)
}

func assertShape(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("pages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pages = %v, want %v", got, want)
		}
	}
}

func TestBuild_ClampsCurrentPage(t *testing.T) {
	p := Build(99, 4, 12, "/admin/posts", nil)
	if p.CurrentPage != 4 {
		t.Errorf("CurrentPage = %d, want 4", p.CurrentPage)
	}

	p = Build(0, 4, 12, "/admin/posts", nil)
	if p.CurrentPage != 1 {
		t.Errorf("CurrentPage = %d, want 1", p.CurrentPage)
	}
}

func TestBuild_PreservesQueryExceptPage(t *testing.T) {
	params := url.Values{}
	params.Set("search", "go")
	params.Set("page", "3")
	params.Set("per_page", "5")

	p := Build(2, 10, 50, "/admin/posts", params)

	u := p.PageURL(4)
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parsing %q: %v", u, err)
	}
	q := parsed.Query()
	if q.Get("search") != "go" {
		t.Errorf("search param lost: %q", u)
	}
	if q.Get("per_page") != "5" {
		t.Errorf("per_page param lost: %q", u)
	}
	if q.Get("page") != "4" {
		t.Errorf("page = %q, want 4", q.Get("page"))
	}
}

func TestShouldShow(t *testing.T) {
	if Build(1, 1, 3, "/p", nil).ShouldShow() {
		t.Error("single page should not show controls")
	}
	if !Build(1, 2, 6, "/p", nil).ShouldShow() {
		t.Error("two pages should show controls")
	}
}

func TestParsePageParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/admin/posts?page=3", nil)
	if got := ParsePageParam(r); got != 3 {
		t.Errorf("ParsePageParam = %d, want 3", got)
	}

	r = httptest.NewRequest("GET", "/admin/posts?page=junk", nil)
	if got := ParsePageParam(r); got != 1 {
		t.Errorf("ParsePageParam = %d, want 1", got)
	}

	r = httptest.NewRequest("GET", "/admin/posts?page=-2", nil)
	if got := ParsePageParam(r); got != 1 {
		t.Errorf("ParsePageParam = %d, want 1", got)
	}
}

func TestParseInt64Param(t *testing.T) {
	r := httptest.NewRequest("GET", "/form?author=12", nil)
	if got := ParseInt64Param(r, "author"); got != 12 {
		t.Errorf("ParseInt64Param = %d, want 12", got)
	}
	r = httptest.NewRequest("GET", "/form?author=0", nil)
	if got := ParseInt64Param(r, "author"); got != 0 {
		t.Errorf("ParseInt64Param = %d, want 0", got)
	}
}
