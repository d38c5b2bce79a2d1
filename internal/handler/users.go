// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/listview"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// UsersHandler manages platform accounts in the admin panel.
type UsersHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager) *UsersHandler {
	return &UsersHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
	}
}

type userView struct {
	model.User
	RoleNames []string
}

type usersListData struct {
	Users      []userView
	Search     string
	SortKey    string
	SortDesc   bool
	Pagination uikit.Pagination
}

// List renders the admin users table. Search matches both name and email.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := h.auth.AdminToken(ctx)

	users, err := h.lookup.Users(ctx, token)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}

	roleNames := model.NameMap{}
	if roles, rerr := h.client.Roles(ctx, token); rerr == nil {
		roleNames = model.RoleNames(roles)
	}

	q := r.URL.Query()
	sortKey := q.Get("sort")
	if sortKey == "" {
		sortKey = "name"
	}
	sortDesc := q.Get("dir") == "desc"

	result := listview.Apply(users, listview.Params{
		Search:   q.Get("search"),
		Sort:     listview.Sort{Key: sortKey, Desc: sortDesc},
		PageSize: listview.ParsePageSize(q.Get("size"), adminPerPage),
		Page:     uikit.ParsePageParam(r),
	}, listview.Options[model.User]{
		SearchValue: func(u model.User, _ string) string {
			return u.Name + " " + u.Email
		},
		Compare: func(a, b model.User, key string) int {
			if key == "email" {
				return listview.CompareStrings(a.Email, b.Email)
			}
			return listview.CompareStrings(a.Name, b.Name)
		},
	})

	data := usersListData{
		Search:     q.Get("search"),
		SortKey:    sortKey,
		SortDesc:   sortDesc,
		Pagination: uikit.Build(result.Page, result.TotalPages, result.Filtered, redirectAdminUsers, q),
	}
	for _, u := range result.Rows {
		view := userView{User: u}
		for _, rid := range u.RoleIDs {
			view.RoleNames = append(view.RoleNames, roleNames.Name(rid))
		}
		data.Users = append(data.Users, view)
	}

	h.renderAdmin(w, r, "admin/users_list", "Users", data)
}

type userFormData struct {
	User   model.User
	Roles  []model.Role
	IsEdit bool
}

// New renders the empty user form.
func (h *UsersHandler) New(w http.ResponseWriter, r *http.Request) {
	data, ok := h.formData(w, r, model.User{}, false)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/user_form", "New User", data)
}

// Create handles the new-user submission.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminUsersNew) {
		return
	}

	payload, ok := h.parseUserForm(w, r, redirectAdminUsersNew)
	if !ok {
		return
	}
	if payload.Password == "" {
		flashError(w, r, h.renderer, redirectAdminUsersNew, "Password is required")
		return
	}

	ctx := r.Context()
	_, err := h.client.CreateUser(ctx, model.NewUser{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		About:    payload.About,
		RoleIDs:  payload.RoleIDs,
	})
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsersNew, err.Error())
		return
	}

	h.lookup.InvalidateUsers(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User created")
}

// Edit renders the edit form for an existing user.
func (h *UsersHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	user, ok := fetchOrRedirect(w, r, h.renderer, redirectAdminUsers, "User", func() (model.User, error) {
		return h.client.User(r.Context(), h.auth.AdminToken(r.Context()), id)
	})
	if !ok {
		return
	}

	data, ok := h.formData(w, r, user, true)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/user_form", "Edit User", data)
}

// Update handles the edit-user submission. A blank password leaves the
// stored one untouched.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}
	editURL := fmt.Sprintf(redirectAdminUsersID, id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	payload, ok := h.parseUserForm(w, r, editURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.UpdateUser(ctx, h.auth.AdminToken(ctx), id, payload); err != nil {
		flashError(w, r, h.renderer, editURL, err.Error())
		return
	}

	h.lookup.InvalidateUsers(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User updated")
}

// Delete removes a user. Deleting the account behind the current admin
// session is refused.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	if id == h.auth.AdminID(ctx) {
		flashError(w, r, h.renderer, redirectAdminUsers, "You cannot delete your own account")
		return
	}

	if err := h.client.DeleteUser(ctx, h.auth.AdminToken(ctx), id); err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, err.Error())
		return
	}

	h.lookup.InvalidateUsers(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminUsers, "User deleted")
}

func (h *UsersHandler) parseUserForm(w http.ResponseWriter, r *http.Request, backURL string) (api.UserPayload, bool) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	if name == "" || email == "" {
		flashError(w, r, h.renderer, backURL, "Name and email are required")
		return api.UserPayload{}, false
	}

	var roleIDs []int64
	for _, v := range r.Form["role_ids"] {
		if id := parsePositiveInt64(v); id > 0 {
			roleIDs = append(roleIDs, id)
		}
	}

	return api.UserPayload{
		Name:     name,
		Email:    email,
		About:    r.FormValue("about"),
		Password: r.FormValue("password"),
		RoleIDs:  roleIDs,
	}, true
}

func (h *UsersHandler) formData(w http.ResponseWriter, r *http.Request, user model.User, isEdit bool) (userFormData, bool) {
	ctx := r.Context()
	roles, err := h.client.Roles(ctx, h.auth.AdminToken(ctx))
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminUsers, err.Error())
		return userFormData{}, false
	}
	return userFormData{User: user, Roles: roles, IsEdit: isEdit}, true
}

func (h *UsersHandler) renderAdmin(w http.ResponseWriter, r *http.Request, name, title string, data any) {
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
