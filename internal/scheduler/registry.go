// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// JobInfo describes a registered job for listing.
type JobInfo struct {
	Name            string
	Description     string
	DefaultSchedule string
	Schedule        string
	IsOverridden    bool
}

type trackedJob struct {
	description     string
	defaultSchedule string
	schedule        string
	entryID         cron.EntryID
	run             func()
}

// Registry keeps the set of registered jobs and persists schedule
// overrides in the scheduler_jobs table.
type Registry struct {
	db     *sql.DB
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*trackedJob
}

// NewRegistry creates a registry backed by db. A nil db disables
// persistence; overrides then live only for the process lifetime.
func NewRegistry(db *sql.DB, logger *slog.Logger) *Registry {
	return &Registry{
		db:     db,
		logger: logger,
		jobs:   make(map[string]*trackedJob),
	}
}

// EffectiveSchedule returns the stored override for name, or
// defaultSchedule when none exists.
func (r *Registry) EffectiveSchedule(name, defaultSchedule string) string {
	if r.db == nil {
		return defaultSchedule
	}

	var schedule string
	err := r.db.QueryRow(
		"SELECT schedule FROM scheduler_jobs WHERE name = ?", name,
	).Scan(&schedule)
	if err != nil {
		if err != sql.ErrNoRows {
			r.logger.Error("failed to read schedule override", "job", name, "error", err)
		}
		return defaultSchedule
	}
	return schedule
}

func (r *Registry) track(name, description, defaultSchedule, schedule string, entryID cron.EntryID, run func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[name] = &trackedJob{
		description:     description,
		defaultSchedule: defaultSchedule,
		schedule:        schedule,
		entryID:         entryID,
		run:             run,
	}
}

// List returns all registered jobs sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]JobInfo, 0, len(r.jobs))
	for name, job := range r.jobs {
		infos = append(infos, JobInfo{
			Name:            name,
			Description:     job.description,
			DefaultSchedule: job.defaultSchedule,
			Schedule:        job.schedule,
			IsOverridden:    job.schedule != job.defaultSchedule,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// TriggerNow runs a job immediately, outside its schedule.
func (r *Registry) TriggerNow(name string) error {
	r.mu.Lock()
	job, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}
	job.run()
	return nil
}

// UpdateSchedule stores a schedule override for name. The new schedule
// takes effect on the next restart.
func (r *Registry) UpdateSchedule(name, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}

	r.mu.Lock()
	job, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}

	if r.db != nil {
		_, err := r.db.Exec(`
			INSERT INTO scheduler_jobs (name, schedule, updated_at)
			VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (name) DO UPDATE SET schedule = excluded.schedule,
				updated_at = CURRENT_TIMESTAMP`,
			name, schedule)
		if err != nil {
			return fmt.Errorf("storing schedule override: %w", err)
		}
	}

	r.mu.Lock()
	job.schedule = schedule
	r.mu.Unlock()
	return nil
}

// ResetSchedule removes the stored override for name, restoring the
// built-in default on the next restart.
func (r *Registry) ResetSchedule(name string) error {
	r.mu.Lock()
	job, ok := r.jobs[name]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}

	if r.db != nil {
		if _, err := r.db.Exec("DELETE FROM scheduler_jobs WHERE name = ?", name); err != nil {
			return fmt.Errorf("removing schedule override: %w", err)
		}
	}

	r.mu.Lock()
	job.schedule = job.defaultSchedule
	r.mu.Unlock()
	return nil
}
