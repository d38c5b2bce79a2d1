// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/editor"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// ComposeHandler lets a signed-in user write and manage their own posts
// from the account area. Unlike the admin panel there is no author picker:
// the author is always the session user, and every operation on an
// existing post checks ownership first.
type ComposeHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
}

// NewComposeHandler creates a new ComposeHandler.
func NewComposeHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager) *ComposeHandler {
	return &ComposeHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
	}
}

type composeFormData struct {
	Post       model.Post
	Content    string
	Categories []model.Category
	Series     []model.Series
	IsEdit     bool
}

// New renders the empty compose form.
func (h *ComposeHandler) New(w http.ResponseWriter, r *http.Request) {
	userID := h.auth.UserID(r.Context())
	data, ok := h.formData(w, r, model.Post{AuthorID: userID}, false)
	if !ok {
		return
	}
	h.renderCompose(w, r, "New Post", data)
}

// Create handles the compose form submission.
func (h *ComposeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAccountPostsNew) {
		return
	}

	payload, ok := h.parseComposeForm(w, r, redirectAccountPostsNew)
	if !ok {
		return
	}

	ctx := r.Context()
	created, err := h.client.CreateBlog(ctx, h.auth.UserToken(ctx), payload)
	if err != nil {
		flashError(w, r, h.renderer, redirectAccountPostsNew, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, fmt.Sprintf(redirectAccountPostsID, created.ID), "Post created")
}

// Edit renders the compose form for one of the user's own posts.
func (h *ComposeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	data, ok := h.formData(w, r, post, true)
	if !ok {
		return
	}
	h.renderCompose(w, r, "Edit Post", data)
}

// Update handles the edit submission for one of the user's own posts.
func (h *ComposeHandler) Update(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}
	editURL := fmt.Sprintf(redirectAccountPostsID, post.ID)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	payload, ok := h.parseComposeForm(w, r, editURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.UpdateBlog(ctx, h.auth.UserToken(ctx), post.ID, payload); err != nil {
		flashError(w, r, h.renderer, editURL, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, editURL, "Post updated")
}

// Delete removes one of the user's own posts.
func (h *ComposeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	post, ok := h.ownPost(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.client.DeleteBlog(ctx, h.auth.UserToken(ctx), post.ID); err != nil {
		flashError(w, r, h.renderer, redirectAccount, err.Error())
		return
	}

	flashSuccess(w, r, h.renderer, redirectAccount, "Post deleted")
}

// ownPost loads the post addressed by the URL and verifies it belongs to
// the session user. A post by someone else bounces back to the account
// page; the backend enforces the same rule, this just gives a friendlier
// message than a raw 403.
func (h *ComposeHandler) ownPost(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return model.Post{}, false
	}

	post, ok := fetchOrRedirect(w, r, h.renderer, redirectAccount, "Post", func() (model.Post, error) {
		return h.client.Blog(r.Context(), id)
	})
	if !ok {
		return model.Post{}, false
	}

	if post.AuthorID != h.auth.UserID(r.Context()) {
		flashError(w, r, h.renderer, redirectAccount, "You can only manage your own posts")
		return model.Post{}, false
	}

	return post, true
}

// parseComposeForm validates the submitted form and builds the write
// payload. The author is always the session user, and a submitted series
// must be one of the user's own or the submission is rejected.
func (h *ComposeHandler) parseComposeForm(w http.ResponseWriter, r *http.Request, backURL string) (api.PostPayload, bool) {
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
	userID := h.auth.UserID(ctx)

	var categoryIDs []int64
	for _, v := range r.Form["category_ids"] {
		if id := parsePositiveInt64(v); id > 0 {
			categoryIDs = append(categoryIDs, id)
		}
	}

	seriesID := uikit.ParseInt64Param(r, "series_id")
	if seriesID > 0 && !h.ownsSeries(r, seriesID, userID) {
		flashError(w, r, h.renderer, backURL, "Selected series is not one of yours")
		return api.PostPayload{}, false
	}

	return api.PostPayload{
		Title:       title,
		Content:     json.RawMessage(content),
		CategoryIDs: categoryIDs,
		SeriesID:    seriesID,
		AuthorID:    userID,
	}, true
}

func (h *ComposeHandler) ownsSeries(r *http.Request, seriesID, userID int64) bool {
	series, err := h.client.SeriesByUser(r.Context(), userID)
	if err != nil {
		return false
	}
	for _, s := range series {
		if s.ID == seriesID {
			return true
		}
	}
	return false
}

func (h *ComposeHandler) formData(w http.ResponseWriter, r *http.Request, post model.Post, isEdit bool) (composeFormData, bool) {
	ctx := r.Context()

	categories, err := h.lookup.Categories(ctx)
	if err != nil {
		flashError(w, r, h.renderer, redirectAccount, err.Error())
		return composeFormData{}, false
	}
	series, err := h.client.SeriesByUser(ctx, h.auth.UserID(ctx))
	if err != nil {
		flashError(w, r, h.renderer, redirectAccount, err.Error())
		return composeFormData{}, false
	}

	return composeFormData{
		Post:       post,
		Content:    string(post.Content),
		Categories: categories,
		Series:     series,
		IsEdit:     isEdit,
	}, true
}

func (h *ComposeHandler) renderCompose(w http.ResponseWriter, r *http.Request, title string, data composeFormData) {
	ctx := r.Context()
	err := h.renderer.Render(w, r, "frontend/compose", render.TemplateData{
		Title:           title,
		Data:            data,
		ActiveNav:       "account",
		IsUserLoggedIn:  true,
		IsAdminLoggedIn: h.auth.IsAdminAuthenticated(ctx),
		UserID:          h.auth.UserID(ctx),
	})
	if err != nil {
		logAndInternalError(w, "failed to render frontend/compose", "error", err)
	}
}
