// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/olegiv/oblog-web/internal/model"
)

// PostPayload is the write shape for blog create/update. Content is carried
// verbatim from the editor; the client never interprets block internals.
type PostPayload struct {
	Title       string          `json:"title"`
	Content     json.RawMessage `json:"content"`
	CategoryIDs []int64         `json:"categoryIds"`
	SeriesID    int64           `json:"seriesId,omitempty"`
	AuthorID    int64           `json:"authorId"`
}

// Blogs fetches all posts.
func (c *Client) Blogs(ctx context.Context, token string) ([]model.Post, error) {
	return Request[[]model.Post](ctx, c, http.MethodGet, "/blogs", token, nil)
}

// Blog fetches one post by ID.
func (c *Client) Blog(ctx context.Context, id int64) (model.Post, error) {
	return Request[model.Post](ctx, c, http.MethodGet, fmt.Sprintf("/blogs/%d", id), "", nil)
}

// BlogsByUser fetches the posts authored by a user.
func (c *Client) BlogsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	return Request[[]model.Post](ctx, c, http.MethodGet, fmt.Sprintf("/blogs/users/%d", userID), "", nil)
}

// BlogsByCategory fetches the posts in a category.
func (c *Client) BlogsByCategory(ctx context.Context, categoryID int64) ([]model.Post, error) {
	return Request[[]model.Post](ctx, c, http.MethodGet, fmt.Sprintf("/blogs/categories/%d", categoryID), "", nil)
}

// BlogsBySeries fetches the posts in a series.
func (c *Client) BlogsBySeries(ctx context.Context, seriesID int64) ([]model.Post, error) {
	return Request[[]model.Post](ctx, c, http.MethodGet, fmt.Sprintf("/blogs/series/%d", seriesID), "", nil)
}

// CreateBlog creates a post.
func (c *Client) CreateBlog(ctx context.Context, token string, p PostPayload) (model.Post, error) {
	return Request[model.Post](ctx, c, http.MethodPost, "/blogs", token, p)
}

// UpdateBlog replaces a post.
func (c *Client) UpdateBlog(ctx context.Context, token string, id int64, p PostPayload) (model.Post, error) {
	return Request[model.Post](ctx, c, http.MethodPut, fmt.Sprintf("/blogs/%d", id), token, p)
}

// DeleteBlog removes a post.
func (c *Client) DeleteBlog(ctx context.Context, token string, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/blogs/%d", id), token, nil)
}
