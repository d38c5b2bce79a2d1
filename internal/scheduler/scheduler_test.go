// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/olegiv/oblog-web/internal/store"
)

func testScheduler(t *testing.T) *Scheduler {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	return New(db, slog.Default())
}

func TestRegisterAndList(t *testing.T) {
	s := testScheduler(t)

	err := s.Register("cache-refresh", "Refresh lookup caches", "*/5 * * * *", func(context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	jobs := s.Registry().List()
	if len(jobs) != 1 {
		t.Fatalf("List returned %d jobs, want 1", len(jobs))
	}
	if jobs[0].Name != "cache-refresh" {
		t.Errorf("job name = %q", jobs[0].Name)
	}
	if jobs[0].Schedule != "*/5 * * * *" {
		t.Errorf("schedule = %q", jobs[0].Schedule)
	}
	if jobs[0].IsOverridden {
		t.Error("job should not be overridden")
	}
}

func TestRegisterInvalidDefaultSchedule(t *testing.T) {
	s := testScheduler(t)

	err := s.Register("bad", "", "not a schedule", func(context.Context) error { return nil })
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}

func TestTriggerNow(t *testing.T) {
	s := testScheduler(t)

	ran := make(chan struct{}, 1)
	err := s.Register("job", "", "@hourly", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Registry().TriggerNow("job"); err != nil {
		t.Fatalf("TriggerNow: %v", err)
	}
	select {
	case <-ran:
	default:
		t.Error("job did not run")
	}

	if err := s.Registry().TriggerNow("missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestScheduleOverridePersists(t *testing.T) {
	s := testScheduler(t)

	noop := func(context.Context) error { return nil }
	if err := s.Register("job", "", "@hourly", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Registry().UpdateSchedule("job", "@daily"); err != nil {
		t.Fatalf("UpdateSchedule: %v", err)
	}

	jobs := s.Registry().List()
	if jobs[0].Schedule != "@daily" {
		t.Errorf("schedule = %q, want @daily", jobs[0].Schedule)
	}
	if !jobs[0].IsOverridden {
		t.Error("job should be overridden")
	}

	// A fresh registry on the same database sees the override.
	if got := s.Registry().EffectiveSchedule("job", "@hourly"); got != "@daily" {
		t.Errorf("EffectiveSchedule = %q, want @daily", got)
	}

	if err := s.Registry().ResetSchedule("job"); err != nil {
		t.Fatalf("ResetSchedule: %v", err)
	}
	if got := s.Registry().EffectiveSchedule("job", "@hourly"); got != "@hourly" {
		t.Errorf("after reset EffectiveSchedule = %q, want @hourly", got)
	}
}

func TestUpdateScheduleRejectsInvalid(t *testing.T) {
	s := testScheduler(t)

	noop := func(context.Context) error { return nil }
	if err := s.Register("job", "", "@hourly", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := s.Registry().UpdateSchedule("job", "every tuesday"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if err := s.Registry().UpdateSchedule("missing", "@daily"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestStartStop(t *testing.T) {
	s := testScheduler(t)

	noop := func(context.Context) error { return nil }
	if err := s.Register("job", "", "@hourly", noop); err != nil {
		t.Fatalf("Register: %v", err)
	}

	s.Start()
	s.Stop()
}
