// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// security headers, rate limiting and request handling.
package middleware

import (
	"net/http"
	"net/url"

	"github.com/olegiv/oblog-web/internal/auth"
)

// ProbeSessions re-validates stored bearer tokens against the backend when
// their last check is stale. Cheap when the session is fresh; apply broadly.
func ProbeSessions(m *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.Probe(r.Context())
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser redirects to the login page unless the session carries a user
// token. The requested path is preserved in the "next" parameter so login
// can return the user where they started.
func RequireUser(m *auth.Manager, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.IsUserAuthenticated(r.Context()) {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin redirects to the admin login page unless the session carries
// an admin token. Admin access is a separate slot from the user session; a
// logged-in user without the admin token is still redirected.
func RequireAdmin(m *auth.Manager, adminLoginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.IsAdminAuthenticated(r.Context()) {
				http.Redirect(w, r, adminLoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
