// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs recurring background jobs on cron schedules.
// Schedules can be overridden per job through the registry; the override
// survives restarts.
package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// JobFunc is the work a job performs on each tick.
type JobFunc func(ctx context.Context) error

// Scheduler owns the cron runner and the job registry.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	logger   *slog.Logger
}

// New creates a scheduler backed by db for schedule overrides.
func New(db *sql.DB, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: NewRegistry(db, logger),
		logger:   logger,
	}
}

// Register adds a named job. The effective schedule is the stored override
// when one exists, otherwise defaultSchedule.
func (s *Scheduler) Register(name, description, defaultSchedule string, fn JobFunc) error {
	schedule := s.registry.EffectiveSchedule(name, defaultSchedule)
	if err := ValidateSchedule(schedule); err != nil {
		// A bad stored override must not keep the job from running.
		s.logger.Warn("invalid stored schedule, using default",
			"job", name, "schedule", schedule, "error", err)
		schedule = defaultSchedule
	}

	run := func() {
		if err := fn(context.Background()); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	}

	entryID, err := s.cron.AddFunc(schedule, run)
	if err != nil {
		return fmt.Errorf("registering job %s: %w", name, err)
	}

	s.registry.track(name, description, defaultSchedule, schedule, entryID, run)
	return nil
}

// Registry exposes the job registry for schedule management.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for any running job to finish before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
