// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-web/internal/api"
)

func newTestMemoryCache(t *testing.T, ttl time.Duration) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: ttl})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := newTestMemoryCache(t, time.Minute)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheCopyOnGet(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("abc"), 0))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	got[0] = 'x'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Clear(ctx))

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheClosed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(MemoryCacheOptions{DefaultTTL: time.Minute})
	require.NoError(t, c.Close())

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", nil, 0), ErrCacheClosed)

	// Close is idempotent.
	assert.NoError(t, c.Close())
}

func TestFactoryDefaultsToMemory(t *testing.T) {
	c, err := New(DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}

type testItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestTypedCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)
	tc := NewTypedCache[testItem](c, time.Minute)

	require.NoError(t, tc.Set(ctx, "item", &testItem{ID: 7, Name: "seven"}))

	got, ok := tc.Get(ctx, "item")
	require.True(t, ok)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "seven", got.Name)
}

func TestTypedCacheGetOrSet(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)
	tc := NewTypedCache[testItem](c, time.Minute)

	calls := 0
	load := func() (*testItem, error) {
		calls++
		return &testItem{ID: 1}, nil
	}

	for range 3 {
		got, err := tc.GetOrSet(ctx, "item", load)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	}
	assert.Equal(t, 1, calls)
}

func TestLookupCachesCategories(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/categories":
			_, _ = w.Write([]byte(`[{"id":1,"title":"Go"},{"id":2,"title":"Databases"}]`))
		case "/series":
			_, _ = w.Write([]byte(`[{"id":5,"title":"Internals"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)
	lookup := NewLookup(api.New(srv.URL, time.Second), c, time.Minute)

	for range 3 {
		cats, err := lookup.Categories(ctx)
		require.NoError(t, err)
		require.Len(t, cats, 2)
	}
	assert.Equal(t, int64(1), hits.Load())

	names, err := lookup.CategoryNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Go", names.Name(1))
	assert.Equal(t, "Unknown", names.Name(99))

	// Invalidation forces a refetch.
	lookup.InvalidateCategories(ctx)
	_, err = lookup.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestLookupRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/categories":
			_, _ = w.Write([]byte(`[{"id":1,"title":"Go"}]`))
		case "/series":
			_, _ = w.Write([]byte(`[{"id":5,"title":"Internals"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := newTestMemoryCache(t, time.Minute)
	lookup := NewLookup(api.New(srv.URL, time.Second), c, time.Minute)

	require.NoError(t, lookup.Refresh(ctx))

	srv.Close() // further calls must be served from cache

	cats, err := lookup.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	series, err := lookup.Series(ctx)
	require.NoError(t, err)
	assert.Len(t, series, 1)
}
