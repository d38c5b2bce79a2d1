// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string // Semantic version from git tags (e.g., "v1.2.3")
	GitCommit string // Short git commit hash (e.g., "abc1234")
	BuildTime string // Build timestamp in RFC3339 format
}

// Injected via -ldflags "-X github.com/olegiv/oblog-web/internal/version.version=..."
var (
	version   = "dev"
	gitCommit = ""
	buildTime = ""
)

// Get returns the build-time info for this binary.
func Get() Info {
	return Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
	}
}

// Version returns the semantic version string, "dev" for untagged builds.
func Version() string {
	return version
}

// String renders the info in a single line for logs and the dashboard.
func (i Info) String() string {
	s := i.Version
	if i.GitCommit != "" {
		s += " (" + i.GitCommit + ")"
	}
	return s
}
