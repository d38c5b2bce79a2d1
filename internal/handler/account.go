// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/listview"
	"github.com/olegiv/oblog-web/internal/model"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/uikit"
)

// AccountHandler serves the signed-in reader's account page.
type AccountHandler struct {
	client   *api.Client
	lookup   *cache.Lookup
	renderer *render.Renderer
	auth     *auth.Manager
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(client *api.Client, lookup *cache.Lookup, renderer *render.Renderer, am *auth.Manager) *AccountHandler {
	return &AccountHandler{
		client:   client,
		lookup:   lookup,
		renderer: renderer,
		auth:     am,
	}
}

type accountData struct {
	Posts      []PostView
	Series     []model.Series
	Pagination uikit.Pagination
	LoadError  string
}

// Account lists the posts and series authored by the current user, with
// links into the compose pages. Both collections are fetched concurrently.
func (h *AccountHandler) Account(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := h.auth.UserID(ctx)

	var (
		wg       sync.WaitGroup
		posts    []model.Post
		series   []model.Series
		postsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		posts, postsErr = h.client.BlogsByUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		var err error
		if series, err = h.client.SeriesByUser(ctx, userID); err != nil {
			slog.Error("failed to load user series", "error", err, "user_id", userID)
		}
	}()
	wg.Wait()

	data := accountData{Series: series}

	if postsErr != nil {
		slog.Error("failed to load user posts", "error", postsErr, "user_id", userID)
		data.LoadError = postsErr.Error()
	} else {
		result := listview.Apply(posts, listview.Params{
			Search:   r.URL.Query().Get("search"),
			Sort:     listview.Sort{Key: "created", Desc: true},
			PageSize: listview.Fixed(postsPerPage),
			Page:     uikit.ParsePageParam(r),
		}, listview.Options[model.Post]{
			SearchValue: func(p model.Post, _ string) string { return p.Title },
			Compare: func(a, b model.Post, _ string) int {
				return listview.CompareTimes(a.CreatedAt, b.CreatedAt)
			},
		})

		catNames, err := h.lookup.CategoryNames(ctx)
		if err != nil {
			catNames = model.NameMap{}
		}
		seriesNames := model.SeriesNames(series)
		for _, p := range result.Rows {
			view := PostView{Post: p}
			if p.SeriesID > 0 {
				view.SeriesName = seriesNames.Name(p.SeriesID)
			}
			for _, cid := range p.CategoryIDs {
				view.CategoryNames = append(view.CategoryNames, catNames.Name(cid))
			}
			data.Posts = append(data.Posts, view)
		}
		data.Pagination = uikit.Build(result.Page, result.TotalPages, result.Filtered, RouteAccount, r.URL.Query())
	}

	err := h.renderer.Render(w, r, "frontend/account", render.TemplateData{
		Title:           "My Account",
		Data:            data,
		ActiveNav:       "account",
		IsUserLoggedIn:  true,
		IsAdminLoggedIn: h.auth.IsAdminAuthenticated(ctx),
		UserID:          userID,
	})
	if err != nil {
		logAndInternalError(w, "failed to render account page", "error", err)
	}
}
