// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"time"
)

// Post is a published blog entry. Content is the block document produced by
// the editor widget; it is carried verbatim (json.RawMessage) so that an edit
// which only touches the title round-trips the stored document unchanged.
type Post struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Content     json.RawMessage `json:"content,omitempty"`
	CategoryIDs []int64         `json:"categoryIds"`
	SeriesID    int64           `json:"seriesId,omitempty"`
	AuthorID    int64           `json:"authorId"`
	CreatedAt   time.Time       `json:"create_at"`
	UpdatedAt   time.Time       `json:"update_at"`
}

// Category groups posts by topic.
type Category struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Series is an author-owned ordered collection of posts.
type Series struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    int64  `json:"authorId"`
}

// UnknownLabel is rendered when a referenced ID is absent from the locally
// fetched collection. Posts may reference categories or series the frontend
// has not seen; that must never break rendering.
const UnknownLabel = "Unknown"

// NameMap resolves entity IDs to display names.
type NameMap map[int64]string

// Name returns the display name for id, or UnknownLabel when the id is not
// present in the map.
func (m NameMap) Name(id int64) string {
	if name, ok := m[id]; ok {
		return name
	}
	return UnknownLabel
}

// UserNames builds an id → name map from a user collection.
func UserNames(users []User) NameMap {
	m := make(NameMap, len(users))
	for _, u := range users {
		m[u.ID] = u.Name
	}
	return m
}

// CategoryNames builds an id → title map from a category collection.
func CategoryNames(categories []Category) NameMap {
	m := make(NameMap, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Title
	}
	return m
}

// SeriesNames builds an id → title map from a series collection.
func SeriesNames(series []Series) NameMap {
	m := make(NameMap, len(series))
	for _, s := range series {
		m[s.ID] = s.Title
	}
	return m
}

// RoleNames builds an id → name map from a role collection.
func RoleNames(roles []Role) NameMap {
	m := make(NameMap, len(roles))
	for _, r := range roles {
		m[r.ID] = r.Name
	}
	return m
}
