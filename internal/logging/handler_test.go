// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stagecms/stagecms/internal/model"
)

// recordedEvent captures one CreateEvent call.
type recordedEvent struct {
	Level    string
	Category string
	Message  string
	Metadata map[string]any
}

// fakeEventWriter records events in memory.
type fakeEventWriter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEventWriter) CreateEvent(_ context.Context, level, category, message string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{level, category, message, metadata})
	return nil
}

func (f *fakeEventWriter) all() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	writer := &fakeEventWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, writer))

	logger.Error("publish failed", "slug", "careers", "attempt", 2)

	events := writer.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("level = %q, want error", e.Level)
	}
	if e.Category != model.EventCategoryPage {
		t.Errorf("category = %q, want page (inferred from message)", e.Category)
	}
	if e.Message != "publish failed" {
		t.Errorf("message = %q", e.Message)
	}
	if e.Metadata["slug"] != "careers" {
		t.Errorf("metadata slug = %v", e.Metadata["slug"])
	}
	if e.Metadata["attempt"] != "2" {
		t.Errorf("metadata attempt = %v", e.Metadata["attempt"])
	}
}

func TestEventLogHandler_InfoNotForwarded(t *testing.T) {
	writer := &fakeEventWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, writer))

	logger.Info("server started")
	logger.Debug("details")

	if n := len(writer.all()); n != 0 {
		t.Errorf("events = %d, want 0 below WARN", n)
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	writer := &fakeEventWriter{}
	logger := slog.New(NewEventLogHandler(discardHandler{}, writer))

	logger.Warn("something odd", "category", model.EventCategorySync, "transport", "websocket")

	events := writer.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelWarning {
		t.Errorf("level = %q, want warning", e.Level)
	}
	if e.Category != model.EventCategorySync {
		t.Errorf("category = %q, want sync", e.Category)
	}
	if _, ok := e.Metadata["category"]; ok {
		t.Error("category attribute should not be duplicated into metadata")
	}
	if e.Metadata["transport"] != "websocket" {
		t.Errorf("metadata transport = %v", e.Metadata["transport"])
	}
}

func TestEventLogHandler_WithAttrsPreservesForwarding(t *testing.T) {
	writer := &fakeEventWriter{}
	base := slog.New(NewEventLogHandler(discardHandler{}, writer))
	logger := base.With("component", "store")

	logger.Warn("database slow")

	events := writer.all()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryStore {
		t.Errorf("category = %q, want store", events[0].Category)
	}
}
