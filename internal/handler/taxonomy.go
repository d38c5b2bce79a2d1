// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/listview"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// TaxonomyHandler manages categories and series in the admin panel.
type TaxonomyHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager) *TaxonomyHandler {
	return &TaxonomyHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
	}
}

type categoriesListData struct {
	Categories []model.Category
	Search     string
	Pagination uikit.Pagination
}

// Categories renders the admin categories table.
func (h *TaxonomyHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.lookup.Categories(r.Context())
	if err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}

	q := r.URL.Query()
	result := listview.Apply(categories, listview.Params{
		Search:   q.Get("search"),
		Sort:     listview.Sort{Key: "title"},
		PageSize: listview.ParsePageSize(q.Get("size"), adminPerPage),
		Page:     uikit.ParsePageParam(r),
	}, listview.Options[model.Category]{
		SearchValue: func(c model.Category, _ string) string { return c.Title },
		Compare: func(a, b model.Category, _ string) int {
			return listview.CompareStrings(a.Title, b.Title)
		},
	})

	h.renderAdmin(w, r, "admin/categories_list", "Categories", categoriesListData{
		Categories: result.Rows,
		Search:     q.Get("search"),
		Pagination: uikit.Build(result.Page, result.TotalPages, result.Filtered, redirectAdminCategories, q),
	})
}

type categoryFormData struct {
	Category model.Category
	IsEdit   bool
}

// NewCategory renders the empty category form.
func (h *TaxonomyHandler) NewCategory(w http.ResponseWriter, r *http.Request) {
	h.renderAdmin(w, r, "admin/category_form", "New Category", categoryFormData{})
}

// CreateCategory handles the new-category submission.
func (h *TaxonomyHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminCategoriesNew) {
		return
	}

	payload, ok := h.parseCategoryForm(w, r, redirectAdminCategoriesNew)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.CreateCategory(ctx, h.auth.AdminToken(ctx), payload); err != nil {
		flashError(w, r, h.renderer, redirectAdminCategoriesNew, err.Error())
		return
	}

	h.lookup.InvalidateCategories(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category created")
}

// EditCategory renders the edit form for an existing category.
func (h *TaxonomyHandler) EditCategory(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	category, ok := fetchOrRedirect(w, r, h.renderer, redirectAdminCategories, "Category", func() (model.Category, error) {
		return h.client.Category(r.Context(), id)
	})
	if !ok {
		return
	}

	h.renderAdmin(w, r, "admin/category_form", "Edit Category", categoryFormData{Category: category, IsEdit: true})
}

// UpdateCategory handles the edit-category submission.
func (h *TaxonomyHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}
	editURL := fmt.Sprintf(redirectAdminCategoriesID, id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	payload, ok := h.parseCategoryForm(w, r, editURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.UpdateCategory(ctx, h.auth.AdminToken(ctx), id, payload); err != nil {
		flashError(w, r, h.renderer, editURL, err.Error())
		return
	}

	h.lookup.InvalidateCategories(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category updated")
}

// DeleteCategory removes a category.
func (h *TaxonomyHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	if err := h.client.DeleteCategory(ctx, h.auth.AdminToken(ctx), id); err != nil {
		flashError(w, r, h.renderer, redirectAdminCategories, err.Error())
		return
	}

	h.lookup.InvalidateCategories(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminCategories, "Category deleted")
}

func (h *TaxonomyHandler) parseCategoryForm(w http.ResponseWriter, r *http.Request, backURL string) (api.CategoryPayload, bool) {
	title := r.FormValue("title")
	if title == "" {
		flashError(w, r, h.renderer, backURL, "Title is required")
		return api.CategoryPayload{}, false
	}
	return api.CategoryPayload{
		Title:       title,
		Description: r.FormValue("description"),
	}, true
}

type seriesListData struct {
	Series     []seriesView
	Search     string
	Pagination uikit.Pagination
}

type seriesView struct {
	model.Series
	AuthorName string
}

// SeriesList renders the admin series table with resolved author names.
func (h *TaxonomyHandler) SeriesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	series, err := h.lookup.Series(ctx)
	if err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}

	userNames := model.NameMap{}
	if users, uerr := h.lookup.Users(ctx, h.auth.AdminToken(ctx)); uerr == nil {
		userNames = model.UserNames(users)
	}

	q := r.URL.Query()
	result := listview.Apply(series, listview.Params{
		Search:   q.Get("search"),
		Sort:     listview.Sort{Key: "title"},
		PageSize: listview.ParsePageSize(q.Get("size"), adminPerPage),
		Page:     uikit.ParsePageParam(r),
	}, listview.Options[model.Series]{
		SearchValue: func(s model.Series, _ string) string { return s.Title },
		Compare: func(a, b model.Series, _ string) int {
			return listview.CompareStrings(a.Title, b.Title)
		},
	})

	data := seriesListData{
		Search:     q.Get("search"),
		Pagination: uikit.Build(result.Page, result.TotalPages, result.Filtered, redirectAdminSeries, q),
	}
	for _, s := range result.Rows {
		data.Series = append(data.Series, seriesView{Series: s, AuthorName: userNames.Name(s.AuthorID)})
	}

	h.renderAdmin(w, r, "admin/series_list", "Series", data)
}

type seriesFormData struct {
	Series model.Series
	Users  []model.User
	IsEdit bool
}

// NewSeries renders the empty series form.
func (h *TaxonomyHandler) NewSeries(w http.ResponseWriter, r *http.Request) {
	data, ok := h.seriesFormData(w, r, model.Series{AuthorID: h.auth.AdminID(r.Context())}, false)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/series_form", "New Series", data)
}

// CreateSeries handles the new-series submission.
func (h *TaxonomyHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdminSeriesNew) {
		return
	}

	payload, ok := h.parseSeriesForm(w, r, redirectAdminSeriesNew)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.CreateSeries(ctx, h.auth.AdminToken(ctx), payload); err != nil {
		flashError(w, r, h.renderer, redirectAdminSeriesNew, err.Error())
		return
	}

	h.lookup.InvalidateSeries(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminSeries, "Series created")
}

// EditSeries renders the edit form for an existing series.
func (h *TaxonomyHandler) EditSeries(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	series, ok := fetchOrRedirect(w, r, h.renderer, redirectAdminSeries, "Series", func() (model.Series, error) {
		return h.client.SeriesByID(r.Context(), id)
	})
	if !ok {
		return
	}

	data, ok := h.seriesFormData(w, r, series, true)
	if !ok {
		return
	}
	h.renderAdmin(w, r, "admin/series_form", "Edit Series", data)
}

// UpdateSeries handles the edit-series submission.
func (h *TaxonomyHandler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}
	editURL := fmt.Sprintf(redirectAdminSeriesID, id)

	if !parseFormOrRedirect(w, r, h.renderer, editURL) {
		return
	}

	payload, ok := h.parseSeriesForm(w, r, editURL)
	if !ok {
		return
	}

	ctx := r.Context()
	if _, err := h.client.UpdateSeries(ctx, h.auth.AdminToken(ctx), id, payload); err != nil {
		flashError(w, r, h.renderer, editURL, err.Error())
		return
	}

	h.lookup.InvalidateSeries(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminSeries, "Series updated")
}

// DeleteSeries removes a series.
func (h *TaxonomyHandler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id := urlParamID(r)
	if id < 1 {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	if err := h.client.DeleteSeries(ctx, h.auth.AdminToken(ctx), id); err != nil {
		flashError(w, r, h.renderer, redirectAdminSeries, err.Error())
		return
	}

	h.lookup.InvalidateSeries(ctx)
	flashSuccess(w, r, h.renderer, redirectAdminSeries, "Series deleted")
}

func (h *TaxonomyHandler) parseSeriesForm(w http.ResponseWriter, r *http.Request, backURL string) (api.SeriesPayload, bool) {
	title := r.FormValue("title")
	if title == "" {
		flashError(w, r, h.renderer, backURL, "Title is required")
		return api.SeriesPayload{}, false
	}

	authorID := uikit.ParseInt64Param(r, "author_id")
	if authorID == 0 {
		authorID = h.auth.AdminID(r.Context())
	}

	return api.SeriesPayload{
		Title:       title,
		Description: r.FormValue("description"),
		AuthorID:    authorID,
	}, true
}

func (h *TaxonomyHandler) seriesFormData(w http.ResponseWriter, r *http.Request, series model.Series, isEdit bool) (seriesFormData, bool) {
	ctx := r.Context()
	users, err := h.lookup.Users(ctx, h.auth.AdminToken(ctx))
	if err != nil {
		flashError(w, r, h.renderer, redirectAdminSeries, err.Error())
		return seriesFormData{}, false
	}
	return seriesFormData{Series: series, Users: users, IsEdit: isEdit}, true
}

func (h *TaxonomyHandler) renderAdmin(w http.ResponseWriter, r *http.Request, name, title string, data any) {
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
