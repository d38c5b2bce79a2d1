// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/model"
)

func TestCreatePost_RequiresTitle(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"content": {blockDoc},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/posts/new", w.Header().Get("Location"))
	assert.Equal(t, "Title is required", env.popFlash(req))
}

func TestCreatePost_RequiresContent(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"title":   {"Draft"},
		"content": {""},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "/admin/posts/new", w.Header().Get("Location"))
	assert.Equal(t, "Content is required", env.popFlash(req))
}

func TestCreatePost_RejectsMalformedContent(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"title":   {"Draft"},
		"content": {`{"no":"blocks"}`},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Contains(t, env.popFlash(req), "Invalid content")
}

// postBackend serves a series listing and records blog writes.
func postBackend(t *testing.T, captured *api.PostPayload) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/series" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":3,"title":"Go Deep Dives","authorId":9}]`))
		case r.URL.Path == "/blogs" && r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			_, _ = w.Write([]byte(`{"id":11,"title":"` + captured.Title + `"}`))
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func TestCreatePost_RejectsSeriesOfAnotherAuthor(t *testing.T) {
	var captured api.PostPayload
	env := newTestEnv(t, postBackend(t, &captured))
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	// Series 3 belongs to author 9; the form submits author 7.
	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"title":     {"Crossed Wires"},
		"content":   {blockDoc},
		"author_id": {"7"},
		"series_id": {"3"},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "/admin/posts/new", w.Header().Get("Location"))
	assert.Equal(t, "Selected series belongs to a different author", env.popFlash(req))
	assert.Empty(t, captured.Title, "nothing must reach the backend; the mismatch is reported, not silently cleared")
}

func TestCreatePost_KeepsOwnSeries(t *testing.T) {
	var captured api.PostPayload
	env := newTestEnv(t, postBackend(t, &captured))
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"title":        {"Part Three"},
		"content":      {blockDoc},
		"author_id":    {"9"},
		"series_id":    {"3"},
		"category_ids": {"2", "4"},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "Post created", env.popFlash(req))
	assert.EqualValues(t, 3, captured.SeriesID)
	assert.Equal(t, []int64{2, 4}, captured.CategoryIDs)
	assert.JSONEq(t, blockDoc, string(captured.Content), "the block document must be forwarded verbatim")
}

func TestCreatePost_DefaultsAuthorToAdmin(t *testing.T) {
	var captured api.PostPayload
	env := newTestEnv(t, postBackend(t, &captured))
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/admin/posts", url.Values{
		"title":   {"No Author Field"},
		"content": {blockDoc},
	})
	require.NoError(t, env.am.LoginAdmin(req.Context(), signedToken(t, 1)))

	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.EqualValues(t, 1, captured.AuthorID)
}

func TestPostSearchValue_ResolvesNames(t *testing.T) {
	authors := model.NameMap{7: "Ada"}
	categories := model.NameMap{2: "Go", 4: "Web"}
	series := model.NameMap{3: "Deep Dives"}
	p := model.Post{Title: "Hello", AuthorID: 7, SeriesID: 3, CategoryIDs: []int64{2, 4}}

	assert.Equal(t, "Hello", postSearchValue(p, "title", authors, categories, series))
	assert.Equal(t, "Ada", postSearchValue(p, "author", authors, categories, series))
	assert.Equal(t, "Go Web", postSearchValue(p, "category", authors, categories, series))
	assert.Equal(t, "Deep Dives", postSearchValue(p, "series", authors, categories, series))
	assert.Equal(t, "Hello", postSearchValue(p, "", authors, categories, series), "unknown field falls back to title")

	noSeries := model.Post{Title: "Loose"}
	assert.Empty(t, postSearchValue(noSeries, "series", authors, categories, series))
}

func TestPostRangeFilters(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return d
	}
	keep := func(ranges []func(model.Post) bool, p model.Post) bool {
		for _, r := range ranges {
			if !r(p) {
				return false
			}
		}
		return true
	}

	ranges := postRangeFilters(url.Values{
		"id_from":      {"5"},
		"created_to":   {"2026-01-31"},
		"updated_from": {"2026-03-01"},
	})

	in := model.Post{ID: 6, CreatedAt: day("2026-01-31"), UpdatedAt: day("2026-03-02")}
	assert.True(t, keep(ranges, in), "bounds are inclusive")

	assert.False(t, keep(ranges, model.Post{ID: 4, CreatedAt: in.CreatedAt, UpdatedAt: in.UpdatedAt}))
	assert.False(t, keep(ranges, model.Post{ID: 6, CreatedAt: day("2026-02-01"), UpdatedAt: in.UpdatedAt}))
	assert.False(t, keep(ranges, model.Post{ID: 6, CreatedAt: in.CreatedAt, UpdatedAt: day("2026-02-28")}))

	// No parameters, no constraints.
	assert.True(t, keep(postRangeFilters(url.Values{}), model.Post{}))
}

func TestDeletePost(t *testing.T) {
	var deleted string
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		deleted = r.URL.Path
		_, _ = w.Write([]byte(`{}`))
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/admin/posts/5/delete", nil), "id", "5")
	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, "/blogs/5", deleted)
	assert.Equal(t, "/admin/posts", w.Header().Get("Location"))
	assert.Equal(t, "Post deleted", env.popFlash(req))
}

func TestUpdatePost_InvalidID(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/admin/posts/abc/edit", nil), "id", "abc")
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePost_BackendErrorKeepsEditPage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`[{"message":"Title already exists"},{"message":"Pick another"}]`))
	})
	h := NewPostsHandler(env.client, env.lookup, env.renderer, env.am)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/admin/posts/5/edit", url.Values{
		"title":   {"Duplicate"},
		"content": {blockDoc},
	}), "id", "5")
	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, "/admin/posts/5/edit", w.Header().Get("Location"))
	assert.Equal(t, "Title already exists, Pick another", env.popFlash(req))
}
