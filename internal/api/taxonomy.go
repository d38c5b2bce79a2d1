// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/olegiv/oblog-web/internal/model"
)

// CategoryPayload is the write shape for category create/update.
type CategoryPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SeriesPayload is the write shape for series create/update.
type SeriesPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    int64  `json:"authorId"`
}

// Categories fetches all categories.
func (c *Client) Categories(ctx context.Context, token string) ([]model.Category, error) {
	return Request[[]model.Category](ctx, c, http.MethodGet, "/categories", token, nil)
}

// Category fetches one category by ID.
func (c *Client) Category(ctx context.Context, id int64) (model.Category, error) {
	return Request[model.Category](ctx, c, http.MethodGet, fmt.Sprintf("/categories/%d", id), "", nil)
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, token string, p CategoryPayload) (model.Category, error) {
	return Request[model.Category](ctx, c, http.MethodPost, "/categories", token, p)
}

// UpdateCategory replaces a category.
func (c *Client) UpdateCategory(ctx context.Context, token string, id int64, p CategoryPayload) (model.Category, error) {
	return Request[model.Category](ctx, c, http.MethodPut, fmt.Sprintf("/categories/%d", id), token, p)
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, token string, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/categories/%d", id), token, nil)
}

// Series fetches all series.
func (c *Client) Series(ctx context.Context, token string) ([]model.Series, error) {
	return Request[[]model.Series](ctx, c, http.MethodGet, "/series", token, nil)
}

// SeriesByID fetches one series.
func (c *Client) SeriesByID(ctx context.Context, id int64) (model.Series, error) {
	return Request[model.Series](ctx, c, http.MethodGet, fmt.Sprintf("/series/%d", id), "", nil)
}

// SeriesByUser fetches the series owned by an author. The post form re-fetches
// this whenever the selected author changes.
func (c *Client) SeriesByUser(ctx context.Context, userID int64) ([]model.Series, error) {
	return Request[[]model.Series](ctx, c, http.MethodGet, fmt.Sprintf("/series/users/%d", userID), "", nil)
}

// CreateSeries creates a series.
func (c *Client) CreateSeries(ctx context.Context, token string, p SeriesPayload) (model.Series, error) {
	return Request[model.Series](ctx, c, http.MethodPost, "/series", token, p)
}

// UpdateSeries replaces a series.
func (c *Client) UpdateSeries(ctx context.Context, token string, id int64, p SeriesPayload) (model.Series, error) {
	return Request[model.Series](ctx, c, http.MethodPut, fmt.Sprintf("/series/%d", id), token, p)
}

// DeleteSeries removes a series.
func (c *Client) DeleteSeries(ctx context.Context, token string, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/series/%d", id), token, nil)
}
