// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth tracks the visitor's two independent backend sessions: the
// end-user token and the administrator token. It is injected into handlers
// as an explicit dependency rather than held as ambient state, so it can be
// exercised in isolation.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/olegiv/oblog-web/internal/session"
)

// SessionState describes one token slot.
type SessionState int

const (
	// StateAnonymous means no token is stored.
	StateAnonymous SessionState = iota
	// StatePending means a token is stored but has not been verified against
	// the backend since it was last persisted (or since the check went stale).
	StatePending
	// StateAuthenticated means the backend accepted the token on the most
	// recent liveness probe.
	StateAuthenticated
	// StateInvalid means the backend rejected the token. The slot is cleared
	// silently; the visitor simply becomes logged out.
	StateInvalid
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// ErrNoAccess is returned when a login succeeds against the backend but the
// token's subject is not the designated administrator.
var ErrNoAccess = errors.New("You do not have access to the admin panel.")

// Prober is the slice of the backend client the auth manager needs.
type Prober interface {
	WhoAmI(ctx context.Context, token string) error
	AdminWhoAmI(ctx context.Context, token string) error
}

// session keys private to this package; the token keys live in the session
// package because the store migration documents them.
const (
	keyUserCheckedAt  = "user_checked_at"
	keyAdminCheckedAt = "admin_checked_at"
)

// Manager implements the auth context over a scs session. All methods take a
// context that has passed through scs.LoadAndSave.
type Manager struct {
	sessions    *scs.SessionManager
	client      Prober
	adminUserID int64
	probeMaxAge time.Duration
}

// Config holds Manager construction options.
type Config struct {
	Sessions *scs.SessionManager
	Client   Prober
	// AdminUserID is the user ID whose token may open the admin console.
	AdminUserID int64
	// ProbeMaxAge is how long a successful liveness probe stays fresh before
	// the slot degrades to pending again. Zero selects the default.
	ProbeMaxAge time.Duration
}

// DefaultProbeMaxAge keeps probe traffic off the hot path without letting a
// revoked token linger for long.
const DefaultProbeMaxAge = 5 * time.Minute

// NewManager creates a Manager.
func NewManager(cfg Config) *Manager {
	maxAge := cfg.ProbeMaxAge
	if maxAge <= 0 {
		maxAge = DefaultProbeMaxAge
	}
	return &Manager{
		sessions:    cfg.Sessions,
		client:      cfg.Client,
		adminUserID: cfg.AdminUserID,
		probeMaxAge: maxAge,
	}
}

// Login persists the user token. The token just came from a successful
// /auth/login exchange, which counts as its verification.
func (m *Manager) Login(ctx context.Context, token string) {
	m.sessions.Put(ctx, session.KeyUserToken, token)
	m.sessions.Put(ctx, keyUserCheckedAt, time.Now().Unix())
}

// LoginAdmin verifies the token's subject locally before persisting it. A
// token whose subject is not the designated admin is rejected with
// ErrNoAccess and nothing is stored.
func (m *Manager) LoginAdmin(ctx context.Context, token string) error {
	subject, err := TokenSubject(token)
	if err != nil {
		return ErrNoAccess
	}
	if subject != m.adminUserID {
		return ErrNoAccess
	}
	m.sessions.Put(ctx, session.KeyAdminToken, token)
	m.sessions.Put(ctx, keyAdminCheckedAt, time.Now().Unix())
	return nil
}

// Logout clears the user slot.
func (m *Manager) Logout(ctx context.Context) {
	m.sessions.Remove(ctx, session.KeyUserToken)
	m.sessions.Remove(ctx, keyUserCheckedAt)
}

// LogoutAdmin clears the admin slot.
func (m *Manager) LogoutAdmin(ctx context.Context) {
	m.sessions.Remove(ctx, session.KeyAdminToken)
	m.sessions.Remove(ctx, keyAdminCheckedAt)
}

// TokenSource yields a bearer token for the current session, typically
// Manager.UserToken or Manager.AdminToken. Handlers that serve both the
// public site and the admin panel take one instead of picking a slot.
type TokenSource func(ctx context.Context) string

// UserToken returns the stored user token, or empty.
func (m *Manager) UserToken(ctx context.Context) string {
	return m.sessions.GetString(ctx, session.KeyUserToken)
}

// AdminToken returns the stored admin token, or empty.
func (m *Manager) AdminToken(ctx context.Context) string {
	return m.sessions.GetString(ctx, session.KeyAdminToken)
}

// UserID returns the subject of the stored user token, or 0 when anonymous.
func (m *Manager) UserID(ctx context.Context) int64 {
	token := m.UserToken(ctx)
	if token == "" {
		return 0
	}
	id, err := TokenSubject(token)
	if err != nil {
		return 0
	}
	return id
}

// AdminID returns the subject of the stored admin token, or 0 when the
// admin slot is empty.
func (m *Manager) AdminID(ctx context.Context) int64 {
	token := m.AdminToken(ctx)
	if token == "" {
		return 0
	}
	id, err := TokenSubject(token)
	if err != nil {
		return 0
	}
	return id
}

// UserState reports the user slot's state without touching the backend.
func (m *Manager) UserState(ctx context.Context) SessionState {
	return m.slotState(ctx, session.KeyUserToken, keyUserCheckedAt)
}

// AdminState reports the admin slot's state without touching the backend.
func (m *Manager) AdminState(ctx context.Context) SessionState {
	return m.slotState(ctx, session.KeyAdminToken, keyAdminCheckedAt)
}

func (m *Manager) slotState(ctx context.Context, tokenKey, checkedKey string) SessionState {
	if m.sessions.GetString(ctx, tokenKey) == "" {
		return StateAnonymous
	}
	checkedAt := m.sessions.GetInt64(ctx, checkedKey)
	if checkedAt == 0 || time.Since(time.Unix(checkedAt, 0)) > m.probeMaxAge {
		return StatePending
	}
	return StateAuthenticated
}

// IsUserAuthenticated reports whether the user slot holds a token that is
// not known to be invalid. Pending counts: the flag is optimistic until a
// probe says otherwise.
func (m *Manager) IsUserAuthenticated(ctx context.Context) bool {
	s := m.UserState(ctx)
	return s == StateAuthenticated || s == StatePending
}

// IsAdminAuthenticated reports the same for the admin slot.
func (m *Manager) IsAdminAuthenticated(ctx context.Context) bool {
	s := m.AdminState(ctx)
	return s == StateAuthenticated || s == StatePending
}

// Probe verifies any pending slot against the backend. The user and admin
// checks run concurrently; neither blocks the other. A rejected token clears
// its slot (implicit logout) without surfacing an error: the probe only
// changes what UI is available.
func (m *Manager) Probe(ctx context.Context) {
	var wg sync.WaitGroup

	if m.UserState(ctx) == StatePending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.client.WhoAmI(ctx, m.UserToken(ctx)); err != nil {
				slog.Debug("user token probe failed", "error", err)
				m.Logout(ctx)
				return
			}
			m.sessions.Put(ctx, keyUserCheckedAt, time.Now().Unix())
		}()
	}

	if m.AdminState(ctx) == StatePending {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.client.AdminWhoAmI(ctx, m.AdminToken(ctx)); err != nil {
				slog.Debug("admin token probe failed", "error", err)
				m.LogoutAdmin(ctx)
				return
			}
			m.sessions.Put(ctx, keyAdminCheckedAt, time.Now().Unix())
		}()
	}

	wg.Wait()
}

// TokenSubject extracts the numeric "id" claim from a bearer token without
// verifying its signature. Signature verification belongs to the backend;
// the frontend only routes on the claimed identity.
func TokenSubject(token string) (int64, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0, err
	}
	id, ok := claims["id"].(float64)
	if !ok {
		return 0, errors.New("token has no numeric id claim")
	}
	return int64(id), nil
}
