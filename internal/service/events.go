// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic and service layer functionality
// including event logging for audit trails.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagecms/stagecms/internal/model"
)

// EventStore is the slice of the store the event service needs.
type EventStore interface {
	CreateEvent(ctx context.Context, level, category, message string, metadata map[string]any) error
	PruneEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// EventService provides audit event logging functionality.
type EventService struct {
	store  EventStore
	logger *slog.Logger
}

// NewEventService creates a new EventService.
func NewEventService(store EventStore, logger *slog.Logger) *EventService {
	return &EventService{store: store, logger: logger}
}

// LogEvent creates a new audit event entry. Failures are logged but never
// propagate: auditing must not break the operation being audited.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) {
	if err := s.store.CreateEvent(ctx, level, category, message, metadata); err != nil {
		s.logger.Error("failed to record audit event",
			"category", category, "message", message, "error", err)
	}
}

// LogPageEvent logs a page-related event.
func (s *EventService) LogPageEvent(ctx context.Context, level, message string, metadata map[string]any) {
	s.LogEvent(ctx, level, model.EventCategoryPage, message, metadata)
}

// LogSyncEvent logs a preview-sync event.
func (s *EventService) LogSyncEvent(ctx context.Context, level, message string, metadata map[string]any) {
	s.LogEvent(ctx, level, model.EventCategorySync, message, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) {
	s.LogEvent(ctx, level, model.EventCategorySystem, message, metadata)
}

// DeleteOldEvents removes events older than the specified duration and
// reports how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.store.PruneEvents(ctx, cutoff)
}
