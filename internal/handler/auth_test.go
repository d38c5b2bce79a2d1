// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/middleware"
)

func newAuthHandler(e *testEnv, adminLogoutRedirect bool) *AuthHandler {
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	return NewAuthHandler(e.client, e.am, e.renderer, lp, adminLogoutRedirect)
}

// loginBackend answers /auth/login with the given token.
func loginBackend(t *testing.T, token string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

func TestLogin_ShowsBackendMessage(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials!"}`))
	})
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"wrong"},
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, "Invalid credentials!", env.popFlash(req))
	assert.False(t, env.am.IsUserAuthenticated(req.Context()))
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, signedToken(t, 7)))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"pw"},
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.True(t, env.am.IsUserAuthenticated(req.Context()))
	assert.EqualValues(t, 7, env.am.UserID(req.Context()))
}

func TestLogin_HonorsSafeNextPath(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, signedToken(t, 7)))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"pw"},
		"next":     {"/account"},
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, "/account", w.Header().Get("Location"))
}

func TestLogin_RejectsExternalNextPath(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, signedToken(t, 7)))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/login", url.Values{
		"email":    {"reader@example.com"},
		"password": {"pw"},
		"next":     {"https://evil.example/phish"},
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called for an empty form")
	})
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/login", url.Values{})
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "Email and password are required", env.popFlash(req))
}

func TestAdminLogin_RejectsNonAdminAccount(t *testing.T) {
	// Credentials are valid, but the token subject is not the admin.
	env := newTestEnv(t, loginBackend(t, signedToken(t, 42)))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/admin/login", url.Values{
		"email":    {"writer@example.com"},
		"password": {"pw"},
	})
	w := httptest.NewRecorder()
	h.AdminLogin(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
	assert.Equal(t, auth.ErrNoAccess.Error(), env.popFlash(req))
	assert.Empty(t, env.am.AdminToken(req.Context()))
}

func TestAdminLogin_Success(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, signedToken(t, 1)))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/admin/login", url.Values{
		"email":    {"admin@example.com"},
		"password": {"pw"},
	})
	w := httptest.NewRecorder()
	h.AdminLogin(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin", w.Header().Get("Location"))
	assert.True(t, env.am.IsAdminAuthenticated(req.Context()))
}

func TestLogout_ClearsOnlyUserSlot(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, ""))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/logout", nil)
	env.am.Login(req.Context(), signedToken(t, 7))
	require.NoError(t, env.am.LoginAdmin(req.Context(), signedToken(t, 1)))

	w := httptest.NewRecorder()
	h.Logout(w, req)

	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.False(t, env.am.IsUserAuthenticated(req.Context()))
	assert.True(t, env.am.IsAdminAuthenticated(req.Context()), "admin session must survive a public-site logout")
}

func TestAdminLogout_DefaultsToHome(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, ""))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/admin/logout", nil)
	require.NoError(t, env.am.LoginAdmin(req.Context(), signedToken(t, 1)))

	w := httptest.NewRecorder()
	h.AdminLogout(w, req)

	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.False(t, env.am.IsAdminAuthenticated(req.Context()))
}

func TestAdminLogout_ConfigurableRedirect(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, ""))
	h := newAuthHandler(env, true)

	req := env.newRequest(t, http.MethodPost, "/admin/logout", nil)
	require.NoError(t, env.am.LoginAdmin(req.Context(), signedToken(t, 1)))

	w := httptest.NewRecorder()
	h.AdminLogout(w, req)

	assert.Equal(t, "/admin/login", w.Header().Get("Location"))
}

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":5,"name":"New Reader","email":"new@example.com"}`))
	})
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodPost, "/register", url.Values{
		"name":     {"New Reader"},
		"email":    {"new@example.com"},
		"password": {"pw"},
	})
	w := httptest.NewRecorder()
	h.Register(w, req)

	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, "Registration successful. Please sign in.", env.popFlash(req))
}

func TestLoginForm_RedirectsAuthenticatedUser(t *testing.T) {
	env := newTestEnv(t, loginBackend(t, ""))
	h := newAuthHandler(env, false)

	req := env.newRequest(t, http.MethodGet, "/login", nil)
	env.am.Login(req.Context(), signedToken(t, 7))

	w := httptest.NewRecorder()
	h.LoginForm(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
