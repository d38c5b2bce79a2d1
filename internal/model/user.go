// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged with the oBlog backend.
// The backend owns every entity's lifecycle; frontend copies are transient
// and discarded when the request that fetched them completes.
package model

// User represents a platform account. The password is write-only: it is sent
// on create and never read back from the backend.
type User struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	About   string  `json:"about,omitempty"`
	RoleIDs []int64 `json:"roleIds"`
}

// NewUser is the create payload for POST /users.
type NewUser struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	About    string  `json:"about,omitempty"`
	RoleIDs  []int64 `json:"roleIds,omitempty"`
}

// Role is referenced by ID from User.RoleIDs.
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// HasRole reports whether the user carries the given role ID.
func (u User) HasRole(roleID int64) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
