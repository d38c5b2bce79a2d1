// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "strings"

// SafeReturnPath validates a user-supplied return path (the "next" query
// parameter carried through login). Only local absolute paths are allowed;
// anything that could be interpreted as a different host falls back to the
// provided default. This blocks open redirects via "//evil.example" and
// scheme-carrying values.
func SafeReturnPath(path, fallback string) string {
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		return fallback
	}
	// "//host" and "/\host" are treated as protocol-relative by browsers.
	if strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return fallback
	}
	if strings.ContainsAny(path, "\r\n") {
		return fallback
	}
	return path
}
