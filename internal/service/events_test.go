// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stagecms/stagecms/internal/model"
)

type capturedEvent struct {
	Level, Category, Message string
	Metadata                 map[string]any
}

type fakeEventStore struct {
	mu        sync.Mutex
	events    []capturedEvent
	createErr error
	pruned    int64
	cutoff    time.Time
}

func (f *fakeEventStore) CreateEvent(_ context.Context, level, category, message string, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, capturedEvent{level, category, message, metadata})
	return nil
}

func (f *fakeEventStore) PruneEvents(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoff = olderThan
	return f.pruned, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEventServiceLogPageEvent(t *testing.T) {
	fs := &fakeEventStore{}
	svc := NewEventService(fs, testLogger())

	svc.LogPageEvent(context.Background(), model.EventLevelInfo, "draft saved",
		map[string]any{"slug": "careers"})

	if len(fs.events) != 1 {
		t.Fatalf("events = %d, want 1", len(fs.events))
	}
	e := fs.events[0]
	if e.Category != model.EventCategoryPage {
		t.Errorf("category = %q", e.Category)
	}
	if e.Level != model.EventLevelInfo {
		t.Errorf("level = %q", e.Level)
	}
	if e.Metadata["slug"] != "careers" {
		t.Errorf("metadata = %v", e.Metadata)
	}
}

func TestEventServiceSwallowsStoreErrors(t *testing.T) {
	fs := &fakeEventStore{createErr: errors.New("disk full")}
	svc := NewEventService(fs, testLogger())

	// Must not panic or propagate
	svc.LogSystemEvent(context.Background(), model.EventLevelError, "startup", nil)
}

func TestEventServiceDeleteOldEvents(t *testing.T) {
	fs := &fakeEventStore{pruned: 7}
	svc := NewEventService(fs, testLogger())

	n, err := svc.DeleteOldEvents(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 7 {
		t.Errorf("pruned = %d, want 7", n)
	}
	wantCutoff := time.Now().Add(-24 * time.Hour)
	if diff := fs.cutoff.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("cutoff = %v, want about %v", fs.cutoff, wantCutoff)
	}
}
