// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/olegiv/oblog-web/internal/model"
)

// UserPayload is the write shape for user update. The password field is only
// sent when the caller sets it; the backend never returns it.
type UserPayload struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	About    string  `json:"about,omitempty"`
	Password string  `json:"password,omitempty"`
	RoleIDs  []int64 `json:"roleIds"`
}

// Users fetches all users.
func (c *Client) Users(ctx context.Context, token string) ([]model.User, error) {
	return Request[[]model.User](ctx, c, http.MethodGet, "/users", token, nil)
}

// User fetches one user by ID.
func (c *Client) User(ctx context.Context, token string, id int64) (model.User, error) {
	return Request[model.User](ctx, c, http.MethodGet, fmt.Sprintf("/users/%d", id), token, nil)
}

// CreateUser registers a new user.
func (c *Client) CreateUser(ctx context.Context, u model.NewUser) (model.User, error) {
	return Request[model.User](ctx, c, http.MethodPost, "/users", "", u)
}

// UpdateUser replaces a user record.
func (c *Client) UpdateUser(ctx context.Context, token string, id int64, p UserPayload) (model.User, error) {
	return Request[model.User](ctx, c, http.MethodPut, fmt.Sprintf("/users/%d", id), token, p)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, token string, id int64) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), token, nil)
}

// Roles fetches the role lookup collection.
func (c *Client) Roles(ctx context.Context, token string) ([]model.Role, error) {
	return Request[[]model.Role](ctx, c, http.MethodGet, "/roles", token, nil)
}
