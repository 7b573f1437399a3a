// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/model"
)

// MemoryStore is an in-memory VersionStore used by tests and the session and
// preview benches. It mirrors the SQL store's semantics exactly: record-level
// atomicity, monotonic timestamps, raw partial documents in, raw out.
type MemoryStore struct {
	mu    sync.Mutex
	pages map[string]*model.PageRecord

	// FailWrites, when set, makes every write return the given error.
	// Lets tests exercise save/publish failure paths.
	failErr error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]*model.PageRecord)}
}

// FailWrites makes subsequent writes fail with err. Pass nil to heal.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// FetchForPublicRead returns the published-only view of a page.
func (m *MemoryStore) FetchForPublicRead(_ context.Context, slug string) (*model.PublicPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	page := &model.PublicPage{
		Slug:        rec.Slug,
		Document:    rec.Published.DeepCopy(),
		IsPublished: rec.IsPublished,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.PublishedAt != nil {
		t := *rec.PublishedAt
		page.PublishedAt = &t
	}
	return page, nil
}

// FetchForAuthoring returns a copy of the full record.
func (m *MemoryStore) FetchForAuthoring(_ context.Context, slug string) (*model.PageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return copyRecord(rec), nil
}

// UpsertDraft writes the draft document, creating the record if absent.
func (m *MemoryStore) UpsertDraft(_ context.Context, slug string, doc content.Document) (*model.WriteReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return nil, m.failErr
	}

	rec, ok := m.pages[slug]
	if !ok {
		rec = &model.PageRecord{Slug: slug}
		m.pages[slug] = rec
	}

	rec.Draft = doc.DeepCopy()
	rec.VersionToken = ulid.Make().String()
	rec.UpdatedAt = monotonic(time.Now().UTC(), rec.UpdatedAt)

	receipt := &model.WriteReceipt{
		VersionToken: rec.VersionToken,
		UpdatedAt:    rec.UpdatedAt,
		IsPublished:  rec.IsPublished,
	}
	if rec.PublishedAt != nil {
		t := *rec.PublishedAt
		receipt.PublishedAt = &t
	}
	return receipt, nil
}

// Publish writes the document into both columns and marks the page published.
func (m *MemoryStore) Publish(_ context.Context, slug string, doc content.Document) (*model.WriteReceipt, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failErr != nil {
		return nil, m.failErr
	}

	rec, ok := m.pages[slug]
	if !ok {
		rec = &model.PageRecord{Slug: slug}
		m.pages[slug] = rec
	}

	now := monotonic(time.Now().UTC(), rec.UpdatedAt)
	if rec.PublishedAt != nil {
		now = monotonic(now, *rec.PublishedAt)
	}

	rec.Draft = doc.DeepCopy()
	rec.Published = doc.DeepCopy()
	rec.IsPublished = true
	rec.VersionToken = ulid.Make().String()
	rec.UpdatedAt = now
	publishedAt := now
	rec.PublishedAt = &publishedAt

	t := publishedAt
	return &model.WriteReceipt{
		VersionToken: rec.VersionToken,
		UpdatedAt:    now,
		IsPublished:  true,
		PublishedAt:  &t,
	}, nil
}

// VersionToken returns the token bumped on every write for a slug.
func (m *MemoryStore) VersionToken(_ context.Context, slug string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.pages[slug]
	if !ok {
		return "", ErrNotFound
	}
	return rec.VersionToken, nil
}

func copyRecord(rec *model.PageRecord) *model.PageRecord {
	out := &model.PageRecord{
		Slug:         rec.Slug,
		Draft:        rec.Draft.DeepCopy(),
		Published:    rec.Published.DeepCopy(),
		IsPublished:  rec.IsPublished,
		VersionToken: rec.VersionToken,
		UpdatedAt:    rec.UpdatedAt,
	}
	if rec.PublishedAt != nil {
		t := *rec.PublishedAt
		out.PublishedAt = &t
	}
	return out
}
