// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/render"
)

// testTemplates is the minimal template set the handlers under test render.
// Pages only print the title; handler tests assert flow, not markup.
func testTemplates() fstest.MapFS {
	page := &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Title}}{{end}}`)}
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}<html><body>` +
				`{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}` +
				`{{block "content" .}}{{end}}</body></html>{{end}}`)},
		"layouts/admin.html": &fstest.MapFile{Data: []byte(
			`{{define "admin-page"}}{{block "admin-body" .}}{{end}}{{end}}`)},
		"frontend/home.html":        page,
		"frontend/blog_detail.html": page,
		"frontend/listing.html":     page,
		"frontend/account.html":     page,
		"frontend/compose.html":     page,
		"frontend/not_found.html":   page,
		"frontend/page.html":        page,
		"auth/login.html":           page,
		"auth/register.html":        page,
		"auth/admin_login.html":     page,
		"admin/dashboard.html":      page,
		"admin/posts_list.html":     page,
		"admin/post_form.html":      page,
		"admin/categories_list.html": page,
		"admin/category_form.html":   page,
		"admin/series_list.html":     page,
		"admin/series_form.html":     page,
		"admin/users_list.html":      page,
		"admin/user_form.html":       page,
	}
}

// testEnv wires a handler environment against a scripted backend.
type testEnv struct {
	client   *api.Client
	sm       *scs.SessionManager
	am       *auth.Manager
	lookup   *cache.Lookup
	renderer *render.Renderer
}

func newTestEnv(t *testing.T, backend http.HandlerFunc) *testEnv {
	t.Helper()

	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	client := api.New(srv.URL, 5*time.Second)
	sm := scs.New()
	am := auth.NewManager(auth.Config{Sessions: sm, Client: client, AdminUserID: 1})

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	lookup := cache.NewLookup(client, c, time.Minute)

	renderer, err := render.New(render.Config{
		TemplatesFS:    testTemplates(),
		SessionManager: sm,
		IsDev:          true,
	})
	require.NoError(t, err)

	return &testEnv{client: client, sm: sm, am: am, lookup: lookup, renderer: renderer}
}

// newRequest builds a request whose context carries a live session, the way
// scs.LoadAndSave would in production.
func (e *testEnv) newRequest(t *testing.T, method, target string, form url.Values) *http.Request {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	ctx, err := e.sm.Load(req.Context(), "")
	require.NoError(t, err)
	return req.WithContext(ctx)
}

// newBodyRequest is newRequest for raw (non-form) bodies.
func (e *testEnv) newBodyRequest(t *testing.T, method, target string, body io.Reader, contentType string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", contentType)

	ctx, err := e.sm.Load(req.Context(), "")
	require.NoError(t, err)
	return req.WithContext(ctx)
}

// popFlash drains the flash slot the request's handler left behind.
func (e *testEnv) popFlash(r *http.Request) string {
	return e.sm.PopString(r.Context(), "flash")
}

// withURLParam attaches a chi route parameter to the request.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// signedToken issues a bearer token with the given subject id.
func signedToken(t *testing.T, id int64) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// blockDoc is a minimal valid editor document for form submissions.
const blockDoc = `{"time":1,"blocks":[{"id":"a1","type":"paragraph","data":{"text":"hello"}}],"version":"2.30.0"}`
