// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session implements the content session: the stateful core holding a
// page's in-memory working document and driving load, save, and publish
// against the version store. Sessions are independent objects with injected
// dependencies; authoring, preview, and public surfaces each hold their own,
// sharing nothing but the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/model"
	"github.com/stagecms/stagecms/internal/preview"
	"github.com/stagecms/stagecms/internal/store"
)

// Mode fixes what a session may do, at construction time.
type Mode int

const (
	// ModeAuthoring can load the draft, mutate it, save, and publish.
	ModeAuthoring Mode = iota
	// ModeConsumingDraft reads the draft and reloads on preview signals.
	ModeConsumingDraft
	// ModeConsumingPublished reads published content once per load, no sync.
	ModeConsumingPublished
)

// String returns the mode name for logs.
func (m Mode) String() string {
	switch m {
	case ModeAuthoring:
		return "authoring"
	case ModeConsumingDraft:
		return "consuming-draft"
	case ModeConsumingPublished:
		return "consuming-published"
	default:
		return "unknown"
	}
}

// ModeFromQuery maps the preview addressing convention to a consuming mode.
func ModeFromQuery(draftRequested bool) Mode {
	if draftRequested {
		return ModeConsumingDraft
	}
	return ModeConsumingPublished
}

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrReadOnly is returned when a consuming session is asked to write.
	ErrReadOnly = errors.New("session is read-only")
	// ErrNotLoaded is returned when an operation needs a working document
	// and none has been loaded yet.
	ErrNotLoaded = errors.New("session has no working document")
	// ErrNotPublished is returned when published content is required and the
	// page has never been published.
	ErrNotPublished = errors.New("page has no published content")
	// ErrWrongMode is returned for operations unavailable in the session's mode.
	ErrWrongMode = errors.New("operation not available in this mode")
)

// Config assembles a session's fixed dependencies.
type Config struct {
	Slug     string
	Mode     Mode
	Store    store.VersionStore
	Defaults content.Document // canonical defaults for the slug
	Channel  *preview.Channel // optional; broadcasts for authoring, reloads for consuming-draft
	Logger   *slog.Logger
}

// Session holds one surface's view of a page. Methods are safe for use from
// transport callbacks; Load, SaveDraft, Publish, and SyncFromPublished are
// the only suspension points, Mutate is purely in-memory.
type Session struct {
	slug     string
	mode     Mode
	store    store.VersionStore
	defaults content.Document
	channel  *preview.Channel
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	doc         content.Document
	isPublished bool
	updatedAt   time.Time
	publishedAt *time.Time
	lastErr     error
	unsubscribe func()
}

// New creates a session. The returned session is uninitialized; call Load.
func New(cfg Config) (*Session, error) {
	if cfg.Slug == "" {
		return nil, errors.New("session: slug is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if cfg.Defaults == nil {
		return nil, errors.New("session: defaults are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		slug:     cfg.Slug,
		mode:     cfg.Mode,
		store:    cfg.Store,
		defaults: cfg.Defaults,
		channel:  cfg.Channel,
		logger:   logger.With("slug", cfg.Slug, "mode", cfg.Mode.String()),
		state:    StateUninitialized,
	}, nil
}

// Slug returns the page slug the session is bound to.
func (s *Session) Slug() string { return s.slug }

// Mode returns the session's fixed mode.
func (s *Session) Mode() Mode { return s.mode }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error recorded by the last failed load, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Document returns a deep copy of the working document, or nil before the
// first successful load. Callers mutate state only through Mutate.
func (s *Session) Document() content.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.DeepCopy()
}

// IsPublished reports the last known publish status.
func (s *Session) IsPublished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPublished
}

// UpdatedAt returns the last known store update time.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// PublishedAt returns the last known publish time, or nil.
func (s *Session) PublishedAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishedAt == nil {
		return nil
	}
	t := *s.publishedAt
	return &t
}

// Load fetches from the store per mode, merges against the defaults, and
// replaces the working document. On failure the previous working document is
// retained so a transient fetch error never blanks the surface.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.mu.Unlock()

	switch s.mode {
	case ModeAuthoring, ModeConsumingDraft:
		return s.loadDraft(ctx)
	default:
		return s.loadPublished(ctx)
	}
}

func (s *Session) loadDraft(ctx context.Context) error {
	rec, err := s.store.FetchForAuthoring(ctx, s.slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return s.failLoad(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec == nil {
		// Never edited: the canonical defaults are the working document.
		s.doc = content.Merge(nil, s.defaults)
		s.isPublished = false
		s.updatedAt = time.Time{}
		s.publishedAt = nil
	} else {
		s.doc = content.Merge(rec.Draft, s.defaults)
		s.isPublished = rec.IsPublished
		s.updatedAt = rec.UpdatedAt
		s.publishedAt = rec.PublishedAt
	}
	s.state = StateReady
	s.lastErr = nil
	return nil
}

func (s *Session) loadPublished(ctx context.Context) error {
	page, err := s.store.FetchForPublicRead(ctx, s.slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.failLoad(ErrNotPublished)
		}
		return s.failLoad(err)
	}
	if !page.IsPublished || page.Document == nil {
		return s.failLoad(ErrNotPublished)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = content.Merge(page.Document, s.defaults)
	s.isPublished = page.IsPublished
	s.updatedAt = page.UpdatedAt
	s.publishedAt = page.PublishedAt
	s.state = StateReady
	s.lastErr = nil
	return nil
}

func (s *Session) failLoad(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Keep the previous working document; only the state flips.
	s.state = StateError
	s.lastErr = err
	return fmt.Errorf("loading %q: %w", s.slug, err)
}

// Mutate applies a pure transformation to the working document in memory.
// It is the only way the document changes outside of Load, and it never
// touches the network.
func (s *Session) Mutate(fn func(content.Document) content.Document) error {
	if s.mode != ModeAuthoring {
		return ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNotLoaded
	}
	if next := fn(s.doc); next != nil {
		s.doc = next
	}
	return nil
}

// SaveDraft sends the working document to the store. On success the local
// bookkeeping is updated and a content-change signal goes out on the sync
// channel. On failure the working document is untouched and the error is
// returned; the author's unsaved edits must survive so they can retry.
func (s *Session) SaveDraft(ctx context.Context) error {
	if s.mode != ModeAuthoring {
		return ErrReadOnly
	}

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	doc := s.doc.DeepCopy()
	s.mu.Unlock()

	receipt, err := s.store.UpsertDraft(ctx, s.slug, doc)
	if err != nil {
		return fmt.Errorf("saving draft for %q: %w", s.slug, err)
	}

	s.applyReceipt(receipt)
	s.broadcast(ctx, receipt.VersionToken)
	return nil
}

// Publish sends the working document to the store's publish operation. On
// failure isPublished is deliberately left as-is locally: the surface must
// never claim published when the write failed.
func (s *Session) Publish(ctx context.Context) error {
	if s.mode != ModeAuthoring {
		return ErrReadOnly
	}

	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	doc := s.doc.DeepCopy()
	s.mu.Unlock()

	receipt, err := s.store.Publish(ctx, s.slug, doc)
	if err != nil {
		return fmt.Errorf("publishing %q: %w", s.slug, err)
	}

	s.applyReceipt(receipt)
	s.broadcast(ctx, receipt.VersionToken)
	return nil
}

// SyncFromPublished overwrites the working document with the live published
// version: the explicit "discard my draft" action. It is destructive by
// design and only ever user-initiated.
func (s *Session) SyncFromPublished(ctx context.Context) error {
	if s.mode != ModeAuthoring {
		return ErrReadOnly
	}

	page, err := s.store.FetchForPublicRead(ctx, s.slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotPublished
		}
		return fmt.Errorf("fetching published content for %q: %w", s.slug, err)
	}
	if !page.IsPublished || page.Document == nil {
		return ErrNotPublished
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = content.Merge(page.Document, s.defaults)
	s.isPublished = page.IsPublished
	s.updatedAt = page.UpdatedAt
	s.publishedAt = page.PublishedAt
	s.state = StateReady
	s.lastErr = nil
	return nil
}

// Subscribe attaches the session to its sync channel: any valid signal for
// this slug triggers a reload. Only consuming-draft sessions subscribe; the
// public surface loads once per navigation and authoring owns its edits.
func (s *Session) Subscribe() error {
	if s.mode != ModeConsumingDraft {
		return ErrWrongMode
	}
	if s.channel == nil {
		return errors.New("session: no sync channel configured")
	}

	s.mu.Lock()
	if s.unsubscribe != nil {
		s.mu.Unlock()
		return nil // already subscribed
	}
	s.mu.Unlock()

	cancel, err := s.channel.Subscribe(s.slug, func(sig preview.Signal) {
		if err := s.Load(context.Background()); err != nil {
			s.logger.Warn("preview reload failed", "signal", sig.ID, "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.unsubscribe = cancel
	s.mu.Unlock()
	return nil
}

// Close releases the sync subscription, if any. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	cancel := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Session) applyReceipt(receipt *model.WriteReceipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPublished = receipt.IsPublished
	s.updatedAt = receipt.UpdatedAt
	s.publishedAt = receipt.PublishedAt
	s.state = StateReady
}

func (s *Session) broadcast(ctx context.Context, token string) {
	if s.channel == nil {
		return
	}
	s.channel.Broadcast(ctx, preview.NewContentChanged(s.slug, token))
}
