// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the application.
package handler

import (
	"bytes"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/editor"
	"github.com/olegiv/oblog-web/internal/listview"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// Default page size for public post listings.
const postsPerPage = 9

// PostView is a post decorated with resolved names for template rendering.
type PostView struct {
	model.Post
	AuthorName    string
	CategoryNames []string
	SeriesName    string
}

// FrontendHandler serves the public pages.
type FrontendHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
	content  fs.FS
	policy   *bluemonday.Policy
}

// NewFrontendHandler creates a new FrontendHandler. content holds the
// markdown sources for the static pages.
func NewFrontendHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager, content fs.FS) *FrontendHandler {
	return &FrontendHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
		content:  content,
		policy:   bluemonday.UGCPolicy(),
	}
}

// homeData is the template payload for the home page.
type homeData struct {
	Posts      []PostView
	Categories []model.Category
	Series     []model.Series
	Search     string
	CategoryID int64
	SeriesID   int64
	Pagination uikit.Pagination
	LoadError  string
}

// Home renders the post listing with search, category/series filters and
// pagination. The three backend collections are fetched concurrently.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		wg         sync.WaitGroup
		posts      []model.Post
		categories []model.Category
		series     []model.Series
		postsErr   error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		posts, postsErr = h.client.Blogs(ctx, "")
	}()
	go func() {
		defer wg.Done()
		var err error
		if categories, err = h.lookup.Categories(ctx); err != nil {
			slog.Error("failed to load categories", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if series, err = h.lookup.Series(ctx); err != nil {
			slog.Error("failed to load series", "error", err)
		}
	}()
	wg.Wait()

	data := homeData{
		Categories: categories,
		Series:     series,
		Search:     r.URL.Query().Get("search"),
		CategoryID: uikit.ParseInt64Param(r, "category"),
		SeriesID:   uikit.ParseInt64Param(r, "series"),
	}

	if postsErr != nil {
		slog.Error("failed to load posts", "error", postsErr)
		data.LoadError = postsErr.Error()
		h.renderPage(w, r, "frontend/home", "Latest Posts", "home", data)
		return
	}

	filtered := posts
	if data.CategoryID > 0 {
		filtered = filterByCategory(filtered, data.CategoryID)
	}
	if data.SeriesID > 0 {
		filtered = filterBySeries(filtered, data.SeriesID)
	}

	result := listview.Apply(filtered, listview.Params{
		Search:   data.Search,
		Sort:     listview.Sort{Key: "created", Desc: true},
		PageSize: listview.Fixed(postsPerPage),
		Page:     uikit.ParsePageParam(r),
	}, listview.Options[model.Post]{
		SearchValue: func(p model.Post, _ string) string { return p.Title },
		Compare: func(a, b model.Post, _ string) int {
			return listview.CompareTimes(a.CreatedAt, b.CreatedAt)
		},
	})

	data.Posts = h.decoratePosts(r, result.Rows)
	data.Pagination = uikit.Build(result.Page, result.TotalPages, result.Filtered, RouteRoot, r.URL.Query())

	h.renderPage(w, r, "frontend/home", "Latest Posts", "home", data)
}

// blogDetailData is the template payload for a single post page.
type blogDetailData struct {
	Post     PostView
	Content  template.HTML
	BadBlock bool
}

// BlogDetail renders a single post. The stored block document is rendered
// server-side; unknown block types surface as visible placeholders rather
// than breaking the page.
func (h *FrontendHandler) BlogDetail(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		h.NotFound(w, r)
		return
	}

	post, err := h.client.Blog(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		slog.Error("failed to load post", "error", err, "post_id", id)
		flashError(w, r, h.renderer, redirectHome, err.Error())
		return
	}

	data := blogDetailData{Post: h.decoratePost(r, post)}

	doc, err := editor.Decode(post.Content)
	if err != nil {
		slog.Warn("post content failed to decode", "post_id", id, "error", err)
		data.BadBlock = true
	} else {
		data.Content = editor.RenderHTML(doc)
	}

	h.renderPage(w, r, "frontend/blog_detail", post.Title, "", data)
}

// categoryData is the template payload for the category and series pages.
type categoryData struct {
	Name        string
	Description template.HTML
	Posts       []PostView
	Pagination  uikit.Pagination
}

// CategoryPosts renders all posts in one category.
func (h *FrontendHandler) CategoryPosts(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		h.NotFound(w, r)
		return
	}

	posts, err := h.client.BlogsByCategory(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		flashError(w, r, h.renderer, redirectHome, err.Error())
		return
	}

	name, description := model.UnknownLabel, ""
	if categories, lookupErr := h.lookup.Categories(r.Context()); lookupErr == nil {
		for _, c := range categories {
			if c.ID == id {
				name, description = c.Title, c.Description
				break
			}
		}
	}

	h.renderPostListing(w, r, name, description, RouteCategories+"/"+strconv.FormatInt(id, 10), posts)
}

// SeriesPosts renders all posts in one series.
func (h *FrontendHandler) SeriesPosts(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		h.NotFound(w, r)
		return
	}

	posts, err := h.client.BlogsBySeries(r.Context(), id)
	if err != nil {
		if api.IsNotFound(err) {
			h.NotFound(w, r)
			return
		}
		flashError(w, r, h.renderer, redirectHome, err.Error())
		return
	}

	name, description := model.UnknownLabel, ""
	if series, lookupErr := h.lookup.Series(r.Context()); lookupErr == nil {
		for _, s := range series {
			if s.ID == id {
				name, description = s.Title, s.Description
				break
			}
		}
	}

	h.renderPostListing(w, r, name, description, RouteSeries+"/"+strconv.FormatInt(id, 10), posts)
}

func (h *FrontendHandler) renderPostListing(w http.ResponseWriter, r *http.Request, name, description, baseURL string, posts []model.Post) {
	result := listview.Apply(posts, listview.Params{
		Sort:     listview.Sort{Key: "created", Desc: true},
		PageSize: listview.Fixed(postsPerPage),
		Page:     uikit.ParsePageParam(r),
	}, listview.Options[model.Post]{
		SearchValue: func(p model.Post, _ string) string { return p.Title },
		Compare: func(a, b model.Post, _ string) int {
			return listview.CompareTimes(a.CreatedAt, b.CreatedAt)
		},
	})

	data := categoryData{
		Name:       name,
		Posts:      h.decoratePosts(r, result.Rows),
		Pagination: uikit.Build(result.Page, result.TotalPages, result.Filtered, baseURL, r.URL.Query()),
	}

	// Descriptions are author-written Markdown.
	if description != "" {
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(description), &buf); err == nil {
			data.Description = template.HTML(h.policy.SanitizeBytes(buf.Bytes()))
		}
	}

	h.renderPage(w, r, "frontend/listing", name, "", data)
}

// About renders the about page from its markdown source.
func (h *FrontendHandler) About(w http.ResponseWriter, r *http.Request) {
	h.renderMarkdownPage(w, r, "about.md", "About", "about")
}

// Contact renders the contact page from its markdown source.
func (h *FrontendHandler) Contact(w http.ResponseWriter, r *http.Request) {
	h.renderMarkdownPage(w, r, "contact.md", "Contact", "contact")
}

// renderMarkdownPage converts an embedded markdown file to sanitized HTML
// and renders it in the shared static-page template.
func (h *FrontendHandler) renderMarkdownPage(w http.ResponseWriter, r *http.Request, file, title, activeNav string) {
	source, err := fs.ReadFile(h.content, file)
	if err != nil {
		logAndInternalError(w, "failed to read page source", "file", file, "error", err)
		return
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(source, &buf); err != nil {
		logAndInternalError(w, "failed to render page markdown", "file", file, "error", err)
		return
	}

	h.renderPage(w, r, "frontend/page", title, activeNav, map[string]any{
		"Content": template.HTML(h.policy.SanitizeBytes(buf.Bytes())),
	})
}

// NotFound renders the 404 page.
func (h *FrontendHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	err := h.renderer.Render(w, r, "frontend/not_found", render.TemplateData{
		Title:          "Page Not Found",
		IsUserLoggedIn: h.auth.IsUserAuthenticated(r.Context()),
	})
	if err != nil {
		slog.Error("failed to render 404 page", "error", err)
	}
}

// decoratePosts resolves author, category and series names for a page of
// posts. Missing references render as the Unknown label; a post must never
// disappear because its category was deleted upstream.
func (h *FrontendHandler) decoratePosts(r *http.Request, posts []model.Post) []PostView {
	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, h.decoratePost(r, p))
	}
	return views
}

func (h *FrontendHandler) decoratePost(r *http.Request, p model.Post) PostView {
	ctx := r.Context()

	catNames, err := h.lookup.CategoryNames(ctx)
	if err != nil {
		catNames = model.NameMap{}
	}
	seriesNames, err := h.lookup.SeriesNames(ctx)
	if err != nil {
		seriesNames = model.NameMap{}
	}

	view := PostView{Post: p, AuthorName: model.UnknownLabel}

	// Author names come from the admin-only user listing; on the public
	// site resolve through the post's series owner when possible.
	if p.SeriesID > 0 {
		view.SeriesName = seriesNames.Name(p.SeriesID)
	}
	if users, uerr := h.lookup.Users(ctx, ""); uerr == nil {
		view.AuthorName = model.UserNames(users).Name(p.AuthorID)
	}
	for _, cid := range p.CategoryIDs {
		view.CategoryNames = append(view.CategoryNames, catNames.Name(cid))
	}
	return view
}

func (h *FrontendHandler) renderPage(w http.ResponseWriter, r *http.Request, name, title, activeNav string, data any) {
	err := h.renderer.Render(w, r, name, render.TemplateData{
		Title:           title,
		Data:            data,
		ActiveNav:       activeNav,
		IsUserLoggedIn:  h.auth.IsUserAuthenticated(r.Context()),
		IsAdminLoggedIn: h.auth.IsAdminAuthenticated(r.Context()),
		UserID:          h.auth.UserID(r.Context()),
	})
	if err != nil {
		logAndInternalError(w, "failed to render "+name, "error", err)
	}
}

func filterByCategory(posts []model.Post, categoryID int64) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		for _, cid := range p.CategoryIDs {
			if cid == categoryID {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func filterBySeries(posts []model.Post, seriesID int64) []model.Post {
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if p.SeriesID == seriesID {
			out = append(out, p)
		}
	}
	return out
}
