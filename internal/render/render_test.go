// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
)

func testTemplatesFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{Data: []byte(
			`{{define "base"}}<html><body>{{template "nav" .}}{{block "content" .}}{{end}}</body></html>{{end}}`)},
		"layouts/admin.html": &fstest.MapFile{Data: []byte(
			`{{define "admin-sidebar"}}<aside>admin</aside>{{end}}`)},
		"partials/nav.html": &fstest.MapFile{Data: []byte(
			`{{define "nav"}}<nav>{{if .Flash}}<div class="flash">{{.Flash}}</div>{{end}}</nav>{{end}}`)},
		"frontend/home.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<h1>{{.Title}}</h1>{{end}}`)},
		"auth/login.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}<form>login</form>{{end}}`)},
		"admin/dashboard.html": &fstest.MapFile{Data: []byte(
			`{{define "content"}}{{template "admin-sidebar" .}}<h1>{{.Title}}</h1>{{end}}`)},
	}
}

func newTestRenderer(t *testing.T, sm *scs.SessionManager) *Renderer {
	t.Helper()
	r, err := New(Config{TemplatesFS: testTemplatesFS(), SessionManager: sm, IsDev: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func TestNewParsesAllGroups(t *testing.T) {
	r := newTestRenderer(t, nil)

	for _, name := range []string{"frontend/home", "auth/login", "admin/dashboard"} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %q not parsed", name)
		}
	}
}

func TestRenderPage(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := r.Render(w, req, "frontend/home", TemplateData{Title: "Latest Posts"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "<h1>Latest Posts</h1>") {
		t.Errorf("body missing page content: %s", body)
	}
	if !strings.Contains(body, "<nav>") {
		t.Errorf("body missing partial: %s", body)
	}
	if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if err := r.Render(w, req, "frontend/missing", TemplateData{}); err == nil {
		t.Error("Render() with unknown template returned nil error")
	}
}

func TestRenderAdminUsesAdminLayout(t *testing.T) {
	r := newTestRenderer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)

	if err := r.Render(w, req, "admin/dashboard", TemplateData{Title: "Dashboard"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(w.Body.String(), "<aside>admin</aside>") {
		t.Errorf("admin layout block missing: %s", w.Body.String())
	}
}

func TestFlashPopsOnce(t *testing.T) {
	sm := scs.New()
	r := newTestRenderer(t, sm)

	ctx, err := sm.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	r.SetFlash(req, "Post created", "success")

	w := httptest.NewRecorder()
	if err := r.Render(w, req, "frontend/home", TemplateData{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(w.Body.String(), "Post created") {
		t.Errorf("flash not rendered: %s", w.Body.String())
	}

	// Second render must not repeat the flash.
	w = httptest.NewRecorder()
	if err := r.Render(w, req, "frontend/home", TemplateData{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(w.Body.String(), "Post created") {
		t.Errorf("flash rendered twice: %s", w.Body.String())
	}
}

func TestTemplateFuncsPresent(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()

	for _, name := range []string{
		"lower", "upper", "truncate", "safeHTML", "safeURL",
		"add", "sub", "containsID", "formatDate", "formatDateTime",
		"slugify", "seq",
	} {
		if _, ok := funcs[name]; !ok {
			t.Errorf("templateFuncs missing %s", name)
		}
	}
}

func TestTemplateFuncsFormatDate(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()

	formatDate := funcs["formatDate"].(func(time.Time) string)
	testTime := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	if got := formatDate(testTime); got != "Mar 15, 2025" {
		t.Errorf("formatDate() = %q, want %q", got, "Mar 15, 2025")
	}
}

func TestTemplateFuncsSlugify(t *testing.T) {
	funcs := (&Renderer{}).templateFuncs()

	slugify := funcs["slugify"].(func(string) string)
	if got := slugify("Hello, Wörld!"); got != "hello-world" {
		t.Errorf("slugify() = %q, want %q", got, "hello-world")
	}
}
