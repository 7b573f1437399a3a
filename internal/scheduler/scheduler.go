// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stagecms/stagecms/internal/service"
)

// Scheduler handles periodic maintenance like audit log pruning.
type Scheduler struct {
	cron      *cron.Cron
	events    *service.EventService
	logger    *slog.Logger
	retention time.Duration
}

// New creates a new scheduler instance. retention is how long audit events
// are kept before pruning.
func New(events *service.EventService, retention time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		events:    events,
		logger:    logger,
		retention: retention,
	}
}

// Start begins the scheduler with a daily audit-pruning job.
func (s *Scheduler) Start() error {
	// Prune once a day, shortly after midnight
	_, err := s.cron.AddFunc("15 0 * * *", func() {
		s.pruneEvents()
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents removes audit events older than the retention window.
func (s *Scheduler) pruneEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.events.DeleteOldEvents(ctx, s.retention)
	if err != nil {
		s.logger.Error("failed to prune audit events", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("pruned audit events", "count", n, "retention", s.retention)
	}
}
