// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/editor"
	"github.com/olegiv/oblog-web/internal/listview"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// Default page size for admin tables.
const adminPerPage = 20

// PostsHandler manages posts in the admin panel.
type PostsHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
}

// NewPostsHandler creates a new PostsHandler.
func NewPostsHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager) *PostsHandler {
	return &PostsHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
	}
}

type postsListData struct {
	Posts       []PostView
	Search      string
	SearchBy    string
	IDFrom      string
	IDTo        string
	CreatedFrom string
	CreatedTo   string
	UpdatedFrom string
	UpdatedTo   string
	SortKey     string
	SortDesc    bool
	PageSize    string
	Pagination  uikit.Pagination
}

// List renders the admin posts table: search over a selectable field
// (title, author, category or series, names resolved through the lookup
// maps), id and date range filters, sortable columns and a selectable page
// size ("all" disables paging).
func (h *PostsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := h.auth.AdminToken(ctx)

	posts, err := h.client.Blogs(ctx, token)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}

	q := r.URL.Query()
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "created"
	}
	sortDesc := q.Get("dir") != "asc"

	// The name maps feed both the rendered rows and searches over
	// resolved names.
	catNames, err := h.lookup.CategoryNames(ctx)
	if err != nil {
		catNames = model.NameMap{}
	}
	seriesNames, err := h.lookup.SeriesNames(ctx)
	if err != nil {
		seriesNames = model.NameMap{}
	}
	userNames := model.NameMap{}
	if users, uerr := h.lookup.Users(ctx, token); uerr == nil {
		userNames = model.UserNames(users)
	}

	result := listview.Apply(posts, listview.Params{
		Search:      q.Get("search"),
		SearchField: q.Get("search_by"),
		Sort:        listview.Sort{Key: sortKey, Desc: sortDesc},
		PageSize:    listview.ParsePageSize(q.Get("size"), adminPerPage),
		Page:        uikit.ParsePageParam(r),
	}, listview.Options[model.Post]{
		SearchValue: func(p model.Post, field string) string {
			return postSearchValue(p, field, userNames, catNames, seriesNames)
		},
		Compare: func(a, b model.Post, key string) int {
			switch key {
			case "title":
				return listview.CompareStrings(a.Title, b.Title)
			case "updated":
				return listview.CompareTimes(a.UpdatedAt, b.UpdatedAt)
			default:
				return listview.CompareTimes(a.CreatedAt, b.CreatedAt)
			}
		},
		Ranges: postRangeFilters(q),
	})

	data := postsListData{
		Search:      q.Get("search"),
		SearchBy:    q.Get("search_by"),
		IDFrom:      q.Get("id_from"),
		IDTo:        q.Get("id_to"),
		CreatedFrom: q.Get("created_from"),
		CreatedTo:   q.Get("created_to"),
		UpdatedFrom: q.Get("updated_from"),
		UpdatedTo:   q.Get("updated_to"),
		SortKey:     sortKey,
		SortDesc:    sortDesc,
		PageSize:    q.Get("size"),
		Pagination:  uikit.Build(result.Page, result.TotalPages, result.Filtered, redirectAdminPosts, q),
	}
	for _, p := range result.Rows {
		view := PostView{Post: p, AuthorName: userNames.Name(p.AuthorID)}
		if p.SeriesID > 0 {
			view.SeriesName = seriesNames.Name(p.SeriesID)
		}
		for _, cid := range p.CategoryIDs {
			view.CategoryNames = append(view.CategoryNames, catNames.Name(cid))
		}
		data.Posts = append(data.Posts, view)
	}

	h.renderAdmin(w, r, "admin/posts_list", "Posts", data)
}

// postSearchValue resolves the text the admin search matches for the
// selected field. Author, category and series searches go through the
// id→name maps so the admin types names, not ids.
func postSearchValue(p model.Post, field string, authors, categories, series model.NameMap) string {
	switch field {
	case "author":
		return authors.Name(p.AuthorID)
	case "category":
		names := make([]string, 0, len(p.CategoryIDs))
		for _, id := range p.CategoryIDs {
			names = append(names, categories.Name(id))
		}
		return strings.Join(names, " ")
	case "series":
		if p.SeriesID > 0 {
			return series.Name(p.SeriesID)
		}
		return ""
	default:
		return p.Title
	}
}

// postRangeFilters binds the id and date range inputs from the query.
// Empty or unparsable bounds impose no constraint.
func postRangeFilters(q url.Values) []func(model.Post) bool {
	return []func(model.Post) bool{
		listview.IntRange(func(p model.Post) int64 { return p.ID }, q.Get("id_from"), q.Get("id_to")),
		listview.TimeRange(func(p model.Post) time.Time { return p.CreatedAt }, q.Get("created_from"), q.Get("created_to")),
		listview.TimeRange(func(p model.Post) time.Time { return p.UpdatedAt }, q.Get("updated_from"), q.Get("updated_to")),
	}
}

// postFormData is the payload for both the new and edit post forms. Content
// is the serialized block document bootstrapping the editor widget.
type postFormData struct {
	Post       model.Post
	Content    string
	Categories []model.Category
	Series     []model.Series
	Users      []model.User
	IsEdit     bool
}

// New renders the empty post form.
func (h *PostsHandler) New(w http.ResponseWriter, r *http.Request) {
	data, ok := h.formData(w, r, model.Post{AuthorID: h.auth.AdminID(r.Context())}, false)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/post_form", "New Post", data)
}

// Create handles the new-post submission.
func (h *PostsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminPostsNew) {
		return
	}

	payload, ok := h.parsePostForm(w, r, redirectAdminPostsNew)
	if !ok {
		return
	}

	ctx := r.Context()
	created, err := h.client.CreateBlog(ctx, h.auth.AdminToken(ctx), payload)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPostsNew, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAdminPostsID, created.ID), "Post created")
}

// Edit renders the edit form for an existing post.
func (h *PostsHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	post, ok := fetchOrRedirect(w, r, h.renderer, redirectAdminPosts, "Post", func() (model.Post, error) {
		return h.client.Blog(r.Context(), id)
	})
	if !ok {
		return
	}

	data, ok := h.formData(w, r, post, true)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/post_form", "Edit Post", data)
}

// Update handles the edit-post submission.
func (h *PostsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}
	editURL := fmt.Sprintf(redirectAdminPostsID, id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	payload, ok := h.parsePostForm(w, r, editURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.UpdateBlog(ctx, h.auth.AdminToken(ctx), id, payload); err != nil {
		flashError(w, r, h.renderer, editURL, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, editURL, "Post updated")
}

// Delete removes a post.
func (h *PostsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	if err := h.client.DeleteBlog(ctx, h.auth.AdminToken(ctx), id); err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, redirectAdminPosts, "Post deleted")
}

// parsePostForm validates the submitted form and builds the write payload.
// The hidden content field carries the serialized block document; it is
// validated for shape and forwarded byte-for-byte. A series that does not
// belong to the selected author is rejected with a message, never silently
// dropped.
func (h *PostsHandler) parsePostForm(w http.ResponseWriter, r *http.Request, backURL string) (api.PostPayload, bool) {
	title := r.FormValue("title")
	if title == "" {
		flashError(w, r, h.renderer, backURL, "Title is required")
		return api.PostPayload{}, false
	}

	content, err := editor.ParseDocument(r.FormValue("content"))
	if err != nil {
		if err == editor.ErrEmptyDocument {
			flashError(w, r, h.renderer, backURL, "Content is required")
		} else {
			flashError(w, r, h.renderer, backURL, "Invalid content: "+err.Error())
		}
		return api.PostPayload{}, false
	}

	ctx := r.Context()
	authorID := uikit.ParseInt64Param(r, "author_id")
	if authorID == 0 {
		authorID = h.auth.AdminID(ctx)
	}

	var categoryIDs []int64
	for _, v := range r.Form["category_ids"] {
		if id := parsePositiveInt64(v); id > 0 {
			categoryIDs = append(categoryIDs, id)
		}
	}

	seriesID := uikit.ParseInt64Param(r, "series_id")
	if seriesID > 0 && !h.seriesBelongsToAuthor(r, seriesID, authorID) {
		flashError(w, r, h.renderer, backURL, "Selected series belongs to a different author")
		return api.PostPayload{}, false
	}

	return api.PostPayload{
		Title:       title,
		Content:     json.RawMessage(content),
		CategoryIDs: categoryIDs,
		SeriesID:    seriesID,
		AuthorID:    authorID,
	}, true
}

// seriesBelongsToAuthor re-checks a submitted series against the selected
// author. The form filters the series select client-side, but a stale or
// hand-crafted submission can still pair a series with someone else's post.
func (h *PostsHandler) seriesBelongsToAuthor(r *http.Request, seriesID, authorID int64) bool {
	series, err := h.lookup.Series(r.Context())
	if err != nil {
		return false
	}
	for _, s := range series {
		if s.ID == seriesID {
			return s.AuthorID == authorID
		}
	}
	return false
}

func (h *PostsHandler) formData(w http.ResponseWriter, r *http.Request, post model.Post, isEdit bool) (postFormData, bool) {
	ctx := r.Context()

	categories, err := h.lookup.Categories(ctx)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, err.Error())
		return postFormData{}, false
	}
	series, err := h.lookup.Series(ctx)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, err.Error())
		return postFormData{}, false
	}
	users, err := h.lookup.Users(ctx, h.auth.AdminToken(ctx))
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminPosts, err.Error())
		return postFormData{}, false
	}

	return postFormData{
		Post:       post,
		Content:    string(post.Content),
		Categories: categories,
		Series:     series,
		Users:      users,
		IsEdit:     isEdit,
	}, true
}

func (h *PostsHandler) renderAdmin(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	err := h.renderer.Render(w, r, name, render.TemplateData{
		Title:           title,
		Data:            data,
		IsAdminLoggedIn: true,
		IsUserLoggedIn:  h.auth.IsUserAuthenticated(r.Context()),
		UserID:          h.auth.AdminID(r.Context()),
	})
	if err != nil {
		logAndInternalError(w, "failed to render "+name, "error", err)
	}
}
