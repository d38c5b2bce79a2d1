// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/scheduler"
	"github.com/olegiv/oblog-web/internal/version"
)

// DashboardHandler serves the admin landing page and the scheduled-jobs
// panel on it.
type DashboardHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
	jobs     *scheduler.Registry
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager, jobs *scheduler.Registry) *DashboardHandler {
	return &DashboardHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
		jobs:     jobs,
	}
}

type dashboardData struct {
	PostCount     int
	CategoryCount int
	SeriesCount   int
	UserCount     int
	RecentPosts   []PostView
	Jobs          []scheduler.JobInfo
	Version       string
}

// Dashboard renders entity counts and the most recent posts. All four
// collections are fetched concurrently; a failed fetch shows as a zero
// count rather than failing the page.
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := h.auth.AdminToken(ctx)

	var (
		wg         sync.WaitGroup
		posts      []model.Post
		categories []model.Category
		series     []model.Series
		users      []model.User
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		var err error
		if posts, err = h.client.Blogs(ctx, token); err != nil {
			slog.Error("dashboard: failed to load posts", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if categories, err = h.lookup.Categories(ctx); err != nil {
			slog.Error("dashboard: failed to load categories", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if series, err = h.lookup.Series(ctx); err != nil {
			slog.Error("dashboard: failed to load series", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if users, err = h.lookup.Users(ctx, token); err != nil {
			slog.Error("dashboard: failed to load users", "error", err)
		}
	}()
	wg.Wait()

	data := dashboardData{
		PostCount:     len(posts),
		CategoryCount: len(categories),
		SeriesCount:   len(series),
		UserCount:     len(users),
		Jobs:          h.jobs.List(),
		Version:       version.Version(),
	}

	userNames := model.UserNames(users)
	recent := posts
	if len(recent) > 5 {
		// Blogs come back newest-first from the backend.
		recent = recent[:5]
	}
	for _, p := range recent {
		data.RecentPosts = append(data.RecentPosts, PostView{Post: p, AuthorName: userNames.Name(p.AuthorID)})
	}

	err := h.renderer.Render(w, r, "admin/dashboard", render.TemplateData{
		Title:           "Dashboard",
		Data:            data,
		IsAdminLoggedIn: true,
		IsUserLoggedIn:  h.auth.IsUserAuthenticated(ctx),
		UserID:          h.auth.AdminID(ctx),
	})
	if err != nil {
		logAndInternalError(w, "failed to render dashboard", "error", err)
	}
}

// RunJob triggers a registered job immediately, outside its schedule.
func (h *DashboardHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.TriggerNow(name); err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, "Job triggered")
}

// UpdateJobSchedule stores a cron schedule override for a job.
func (h *DashboardHandler) UpdateJobSchedule(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectAdmin) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.jobs.UpdateSchedule(name, r.FormValue("schedule")); err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, "Schedule saved. It takes effect on the next restart.")
}

// ResetJobSchedule removes a job's schedule override.
func (h *DashboardHandler) ResetJobSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.jobs.ResetSchedule(name); err != nil {
		flashError(w, r, h.renderer, redirectAdmin, err.Error())
		return
	}
	flashSuccess(w, r, h.renderer, redirectAdmin, "Schedule reset to default. It takes effect on the next restart.")
}
