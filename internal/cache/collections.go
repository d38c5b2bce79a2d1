// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/model"
)

// Cache keys for backend collections.
const (
	keyCategories = "lookup:categories"
	keySeries     = "lookup:series"
	keyUsers      = "lookup:users"
)

// Lookup provides cached access to the backend's small reference
// collections: categories, series and users. These change rarely but are
// needed on nearly every rendered page, so they are cached with a short TTL
// and invalidated explicitly after mutations.
type Lookup struct {
	client     *api.Client
	categories *TypedCache[[]model.Category]
	series     *TypedCache[[]model.Series]
	users      *TypedCache[[]model.User]
}

// NewLookup creates a lookup cache backed by the given Cache.
func NewLookup(client *api.Client, c Cache, ttl time.Duration) *Lookup {
	return &Lookup{
		client:     client,
		categories: NewTypedCache[[]model.Category](c, ttl),
		series:     NewTypedCache[[]model.Series](c, ttl),
		users:      NewTypedCache[[]model.User](c, ttl),
	}
}

// Categories returns all categories, fetching from the backend on miss.
func (l *Lookup) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := l.categories.GetOrSet(ctx, keyCategories, func() (*[]model.Category, error) {
		cats, err := l.client.Categories(ctx, "")
		if err != nil {
			return nil, err
		}
		return &cats, nil
	})
	if err != nil {
		return nil, err
	}
	return *rows, nil
}

// Series returns all series, fetching from the backend on miss.
func (l *Lookup) Series(ctx context.Context) ([]model.Series, error) {
	rows, err := l.series.GetOrSet(ctx, keySeries, func() (*[]model.Series, error) {
		series, err := l.client.Series(ctx, "")
		if err != nil {
			return nil, err
		}
		return &series, nil
	})
	if err != nil {
		return nil, err
	}
	return *rows, nil
}

// Users returns all users. The backend requires an admin token for this
// listing, so the caller supplies one; the cached copy is shared.
func (l *Lookup) Users(ctx context.Context, token string) ([]model.User, error) {
	rows, err := l.users.GetOrSet(ctx, keyUsers, func() (*[]model.User, error) {
		users, err := l.client.Users(ctx, token)
		if err != nil {
			return nil, err
		}
		return &users, nil
	})
	if err != nil {
		return nil, err
	}
	return *rows, nil
}

// CategoryNames returns an id-to-name map for categories.
func (l *Lookup) CategoryNames(ctx context.Context) (model.NameMap, error) {
	cats, err := l.Categories(ctx)
	if err != nil {
		return nil, err
	}
	return model.CategoryNames(cats), nil
}

// SeriesNames returns an id-to-title map for series.
func (l *Lookup) SeriesNames(ctx context.Context) (model.NameMap, error) {
	series, err := l.Series(ctx)
	if err != nil {
		return nil, err
	}
	return model.SeriesNames(series), nil
}

// UserNames returns an id-to-name map for users.
func (l *Lookup) UserNames(ctx context.Context, token string) (model.NameMap, error) {
	users, err := l.Users(ctx, token)
	if err != nil {
		return nil, err
	}
	return model.UserNames(users), nil
}

// InvalidateCategories drops the cached category list.
func (l *Lookup) InvalidateCategories(ctx context.Context) {
	_ = l.categories.Delete(ctx, keyCategories)
}

// InvalidateSeries drops the cached series list.
func (l *Lookup) InvalidateSeries(ctx context.Context) {
	_ = l.series.Delete(ctx, keySeries)
}

// InvalidateUsers drops the cached user list.
func (l *Lookup) InvalidateUsers(ctx context.Context) {
	_ = l.users.Delete(ctx, keyUsers)
}

// Refresh re-fetches the public collections, replacing any cached copies.
// Called by the scheduler to keep frequently rendered lookups warm.
func (l *Lookup) Refresh(ctx context.Context) error {
	cats, err := l.client.Categories(ctx, "")
	if err != nil {
		return err
	}
	if err := l.categories.Set(ctx, keyCategories, &cats); err != nil {
		return err
	}

	series, err := l.client.Series(ctx, "")
	if err != nil {
		return err
	}
	return l.series.Set(ctx, keySeries, &series)
}
