// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// TokenResponse is the body returned by a successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}
	return Request[TokenResponse](ctx, c, http.MethodPost, "/auth/login", "", body)
}

// WhoAmI probes whether a stored user token is still accepted by the backend.
// Only call success matters; the response body carries no identity the
// frontend consumes.
func (c *Client) WhoAmI(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodPost, "/auth/me", token, nil)
}

// AdminWhoAmI probes whether a stored admin token is still accepted.
func (c *Client) AdminWhoAmI(ctx context.Context, token string) error {
	return c.call(ctx, http.MethodPost, "/auth/admin/me", token, nil)
}
