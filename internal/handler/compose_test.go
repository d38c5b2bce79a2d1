// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-web/internal/api"
)

// composeBackend serves user 7's series list, one stored post, and records
// blog writes.
func composeBackend(t *testing.T, captured *api.PostPayload) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/categories" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[]`))
		case r.URL.Path == "/series/users/7" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":5,"title":"Weekend Projects","authorId":7}]`))
		case r.URL.Path == "/blogs/9" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"id":9,"title":"Mine","authorId":7,"content":` + blockDoc + `}`))
		case r.URL.Path == "/blogs/20" && r.Method == http.MethodGet:
			_, _ = w.Write([]byte(`{"id":20,"title":"Not Mine","authorId":3}`))
		case r.URL.Path == "/blogs" && r.Method == http.MethodPost:
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			_, _ = w.Write([]byte(`{"id":30,"title":"` + captured.Title + `"}`))
		case r.URL.Path == "/blogs/9" && r.Method == http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			_, _ = w.Write([]byte(`{"id":9}`))
		case r.URL.Path == "/blogs/9" && r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected backend call %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}
}

func newComposeEnv(t *testing.T, captured *api.PostPayload) (*testEnv, *ComposeHandler) {
	t.Helper()
	env := newTestEnv(t, composeBackend(t, captured))
	return env, NewComposeHandler(env.client, env.lookup, env.renderer, env.am)
}

func TestComposeCreate_ForcesSessionUserAsAuthor(t *testing.T) {
	var captured api.PostPayload
	env, h := newComposeEnv(t, &captured)

	// A tampered author_id field must not override the session user.
	req := env.newRequest(t, http.MethodPost, "/account/posts/new", url.Values{
		"title":     {"My Weekend"},
		"content":   {blockDoc},
		"author_id": {"3"},
	})
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/account/posts/30/edit", w.Header().Get("Location"))
	assert.Equal(t, "Post created", env.popFlash(req))
	assert.EqualValues(t, 7, captured.AuthorID)
}

func TestComposeCreate_KeepsOwnSeries(t *testing.T) {
	var captured api.PostPayload
	env, h := newComposeEnv(t, &captured)

	req := env.newRequest(t, http.MethodPost, "/account/posts/new", url.Values{
		"title":        {"Part Two"},
		"content":      {blockDoc},
		"series_id":    {"5"},
		"category_ids": {"2"},
	})
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "Post created", env.popFlash(req))
	assert.EqualValues(t, 5, captured.SeriesID)
	assert.Equal(t, []int64{2}, captured.CategoryIDs)
	assert.JSONEq(t, blockDoc, string(captured.Content))
}

func TestComposeCreate_RejectsForeignSeries(t *testing.T) {
	var captured api.PostPayload
	env, h := newComposeEnv(t, &captured)

	// Series 8 is not in user 7's series list.
	req := env.newRequest(t, http.MethodPost, "/account/posts/new", url.Values{
		"title":     {"Borrowed Series"},
		"content":   {blockDoc},
		"series_id": {"8"},
	})
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "/account/posts/new", w.Header().Get("Location"))
	assert.Equal(t, "Selected series is not one of yours", env.popFlash(req))
	assert.Empty(t, captured.Title, "nothing must reach the backend")
}

func TestComposeCreate_RequiresContent(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	})
	h := NewComposeHandler(env.client, env.lookup, env.renderer, env.am)

	req := env.newRequest(t, http.MethodPost, "/account/posts/new", url.Values{
		"title": {"Draft"},
	})
	w := httptest.NewRecorder()
	h.Create(w, req)

	assert.Equal(t, "/account/posts/new", w.Header().Get("Location"))
	assert.Equal(t, "Content is required", env.popFlash(req))
}

func TestComposeEdit_RejectsOthersPost(t *testing.T) {
	env, h := newComposeEnv(t, nil)

	req := withURLParam(env.newRequest(t, http.MethodGet, "/account/posts/20/edit", nil), "id", "20")
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Edit(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/account", w.Header().Get("Location"))
	assert.Equal(t, "You can only manage your own posts", env.popFlash(req))
}

func TestComposeEdit_RendersOwnPost(t *testing.T) {
	env, h := newComposeEnv(t, nil)

	req := withURLParam(env.newRequest(t, http.MethodGet, "/account/posts/9/edit", nil), "id", "9")
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Edit(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Edit Post")
}

func TestComposeUpdate_OwnPost(t *testing.T) {
	var captured api.PostPayload
	env, h := newComposeEnv(t, &captured)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/account/posts/9/edit", url.Values{
		"title":   {"Mine, Revised"},
		"content": {blockDoc},
	}), "id", "9")
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Update(w, req)

	assert.Equal(t, "/account/posts/9/edit", w.Header().Get("Location"))
	assert.Equal(t, "Post updated", env.popFlash(req))
	assert.Equal(t, "Mine, Revised", captured.Title)
	assert.EqualValues(t, 7, captured.AuthorID)
}

func TestComposeDelete_RejectsOthersPost(t *testing.T) {
	env, h := newComposeEnv(t, nil)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/account/posts/20/delete", nil), "id", "20")
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, "/account", w.Header().Get("Location"))
	assert.Equal(t, "You can only manage your own posts", env.popFlash(req))
}

func TestComposeDelete_OwnPost(t *testing.T) {
	env, h := newComposeEnv(t, nil)

	req := withURLParam(env.newRequest(t, http.MethodPost, "/account/posts/9/delete", nil), "id", "9")
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.Delete(w, req)

	assert.Equal(t, "/account", w.Header().Get("Location"))
	assert.Equal(t, "Post deleted", env.popFlash(req))
}
