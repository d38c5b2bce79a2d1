// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/middleware"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/util"
)

// AuthHandler handles login, registration and logout for both the public
// site and the admin console.
type AuthHandler struct {
	client          *api.Client
	auth            *auth.Manager
	renderer        *render.Renderer
	loginProtection *middleware.LoginProtection

	// adminLogoutRedirect sends admins back to the admin login page after
	// logout instead of the public homepage.
	adminLogoutRedirect bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client *api.Client, am *auth.Manager, renderer *render.Renderer, lp *middleware.LoginProtection, adminLogoutRedirect bool) *AuthHandler {
	return &AuthHandler{
		client:              client,
		auth:                am,
		renderer:            renderer,
		loginProtection:     lp,
		adminLogoutRedirect: adminLogoutRedirect,
	}
}

// LoginForm renders the login page. Already-authenticated users are sent home.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.auth.IsUserAuthenticated(r.Context()) {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	h.renderPage(w, r, "auth/login", "Sign In", map[string]any{
		"Next": util.SafeReturnPath(r.URL.Query().Get("next"), redirectHome),
	})
}

// Login handles the login form submission. The backend owns credential
// checks; its error message is surfaced to the user verbatim.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectLogin) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	next := util.SafeReturnPath(r.FormValue("next"), redirectHome)

	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectLogin, "Email and password are required")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		flashError(w, r, h.renderer, redirectLogin,
			fmt.Sprintf("Account temporarily locked. Try again in %d minutes.", int(remaining.Minutes())+1))
		return
	}

	resp, err := h.client.Login(r.Context(), email, password)
	if err != nil {
		h.loginProtection.RecordFailedAttempt(email)
		flashError(w, r, h.renderer, redirectLogin, err.Error())
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)
	h.auth.Login(r.Context(), resp.Token)
	slog.Info("user logged in", "email", email)

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// RegisterForm renders the registration page.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.auth.IsUserAuthenticated(r.Context()) {
		http.Redirect(w, r, redirectHome, http.StatusSeeOther)
		return
	}

	h.renderPage(w, r, "auth/register", "Create Account", nil)
}

// Register handles the registration form submission.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectRegister) {
		return
	}

	newUser := model.NewUser{
		Name:     strings.TrimSpace(r.FormValue("name")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		About:    strings.TrimSpace(r.FormValue("about")),
	}

	if newUser.Name == "" || newUser.Email == "" || newUser.Password == "" {
		flashError(w, r, h.renderer, redirectRegister, "Name, email and password are required")
		return
	}

	if _, err := h.client.CreateUser(r.Context(), newUser); err != nil {
		flashError(w, r, h.renderer, redirectRegister, err.Error())
		return
	}

	slog.Info("user registered", "email", newUser.Email)
	flashSuccess(w, r, h.renderer, redirectLogin, "Registration successful. Please sign in.")
}

// Logout clears the user session slot.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context())
	http.Redirect(w, r, redirectHome, http.StatusSeeOther)
}

// AdminLoginForm renders the admin login page.
func (h *AuthHandler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	if h.auth.IsAdminAuthenticated(r.Context()) {
		http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
		return
	}

	h.renderPage(w, r, "auth/admin_login", "Admin Sign In", nil)
}

// AdminLogin handles the admin login form. The credential exchange is the
// same as the public login; access is then gated on the token's subject.
// A valid non-admin login is rejected and nothing is persisted.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminLogin) {
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		flashError(w, r, h.renderer, redirectAdminLogin, "Email and password are required")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		flashError(w, r, h.renderer, redirectAdminLogin,
			fmt.Sprintf("Account temporarily locked. Try again in %d minutes.", int(remaining.Minutes())+1))
		return
	}

	resp, err := h.client.Login(r.Context(), email, password)
	if err != nil {
		h.loginProtection.RecordFailedAttempt(email)
		flashError(w, r, h.renderer, redirectAdminLogin, err.Error())
		return
	}

	if err := h.auth.LoginAdmin(r.Context(), resp.Token); err != nil {
		if errors.Is(err, auth.ErrNoAccess) {
			slog.Warn("admin login rejected", "email", email)
		}
		flashError(w, r, h.renderer, redirectAdminLogin, err.Error())
		return
	}

	h.loginProtection.RecordSuccessfulLogin(email)
	slog.Info("admin logged in", "email", email)
	http.Redirect(w, r, redirectAdmin, http.StatusSeeOther)
}

// AdminLogout clears the admin session slot. The user slot is untouched; an
// admin who is also browsing the public site stays signed in there.
func (h *AuthHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.LogoutAdmin(r.Context())

	target := redirectHome
	if h.adminLogoutRedirect {
		target = redirectAdminLogin
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *AuthHandler) renderPage(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	err := h.renderer.Render(w, r, name, render.TemplateData{
		Title:           title,
		Data:            data,
		IsUserLoggedIn:  h.auth.IsUserAuthenticated(r.Context()),
		IsAdminLoggedIn: h.auth.IsAdminAuthenticated(r.Context()),
	})
	if err != nil {
		logAndInternalError(w, "failed to render "+name, "error", err)
	}
}
