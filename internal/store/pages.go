// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/model"
)

// Store is the SQL-backed VersionStore implementation. All writes run in a
// transaction on the single page row, which gives the record-level atomicity
// the core relies on.
type Store struct {
	db       *sql.DB
	now      func() time.Time
	newToken func() string
}

// New creates a Store on top of an open database.
func New(db *sql.DB) *Store {
	return &Store{
		db:       db,
		now:      time.Now,
		newToken: func() string { return ulid.Make().String() },
	}
}

// FetchForPublicRead returns the published-only view of a page.
func (s *Store) FetchForPublicRead(ctx context.Context, slug string) (*model.PublicPage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT slug, published, is_published, updated_at, published_at
		FROM pages WHERE slug = ?`, slug)

	var (
		page      model.PublicPage
		published sql.NullString
		pubAt     sql.NullTime
	)
	err := row.Scan(&page.Slug, &published, &page.IsPublished, &page.UpdatedAt, &pubAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching page %q: %w", slug, err)
	}

	if published.Valid {
		doc, err := content.UnmarshalDocument([]byte(published.String))
		if err != nil {
			return nil, fmt.Errorf("decoding published document for %q: %w", slug, err)
		}
		page.Document = doc
	}
	if pubAt.Valid {
		t := pubAt.Time
		page.PublishedAt = &t
	}
	return &page, nil
}

// FetchForAuthoring returns the full record including the draft.
func (s *Store) FetchForAuthoring(ctx context.Context, slug string) (*model.PageRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT slug, draft, published, is_published, version_token, updated_at, published_at
		FROM pages WHERE slug = ?`, slug)
	return scanPageRecord(row, slug)
}

// UpsertDraft writes the draft document, creating the record if absent.
func (s *Store) UpsertDraft(ctx context.Context, slug string, doc content.Document) (*model.WriteReceipt, error) {
	data, err := content.MarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding draft for %q: %w", slug, err)
	}

	var receipt *model.WriteReceipt
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := lockRecord(ctx, tx, slug)
		if err != nil {
			return err
		}

		token := s.newToken()
		if prev == nil {
			now := s.now().UTC()
			_, err := tx.ExecContext(ctx, `
				INSERT INTO pages (slug, draft, version_token, updated_at)
				VALUES (?, ?, ?, ?)`, slug, nullString(data), token, now)
			if err != nil {
				return fmt.Errorf("inserting page %q: %w", slug, err)
			}
			receipt = &model.WriteReceipt{VersionToken: token, UpdatedAt: now}
			return nil
		}

		now := monotonic(s.now().UTC(), prev.UpdatedAt)
		_, err = tx.ExecContext(ctx, `
			UPDATE pages SET draft = ?, version_token = ?, updated_at = ?
			WHERE slug = ?`, nullString(data), token, now, slug)
		if err != nil {
			return fmt.Errorf("updating draft for %q: %w", slug, err)
		}
		receipt = &model.WriteReceipt{
			VersionToken: token,
			UpdatedAt:    now,
			IsPublished:  prev.IsPublished,
			PublishedAt:  prev.PublishedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Publish writes the document into both columns and marks the page published.
func (s *Store) Publish(ctx context.Context, slug string, doc content.Document) (*model.WriteReceipt, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	data, err := content.MarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding document for %q: %w", slug, err)
	}

	var receipt *model.WriteReceipt
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := lockRecord(ctx, tx, slug)
		if err != nil {
			return err
		}

		token := s.newToken()
		now := s.now().UTC()
		if prev != nil {
			now = monotonic(now, prev.UpdatedAt)
			if prev.PublishedAt != nil {
				now = monotonic(now, *prev.PublishedAt)
			}
		}

		if prev == nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO pages (slug, draft, published, is_published, version_token, updated_at, published_at)
				VALUES (?, ?, ?, 1, ?, ?, ?)`, slug, nullString(data), nullString(data), token, now, now)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE pages
				SET draft = ?, published = ?, is_published = 1, version_token = ?, updated_at = ?, published_at = ?
				WHERE slug = ?`, nullString(data), nullString(data), token, now, now, slug)
		}
		if err != nil {
			return fmt.Errorf("publishing page %q: %w", slug, err)
		}

		publishedAt := now
		receipt = &model.WriteReceipt{
			VersionToken: token,
			UpdatedAt:    now,
			IsPublished:  true,
			PublishedAt:  &publishedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// VersionToken returns the token bumped on every write for a slug.
func (s *Store) VersionToken(ctx context.Context, slug string) (string, error) {
	var token string
	err := s.db.QueryRowContext(ctx,
		`SELECT version_token FROM pages WHERE slug = ?`, slug).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetching version token for %q: %w", slug, err)
	}
	return token, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// lockRecord reads the current bookkeeping for slug inside the transaction.
// Returns nil when the record does not exist yet.
func lockRecord(ctx context.Context, tx *sql.Tx, slug string) (*model.PageRecord, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT slug, draft, published, is_published, version_token, updated_at, published_at
		FROM pages WHERE slug = ?`, slug)
	rec, err := scanPageRecord(row, slug)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func scanPageRecord(row *sql.Row, slug string) (*model.PageRecord, error) {
	var (
		rec       model.PageRecord
		draft     sql.NullString
		published sql.NullString
		pubAt     sql.NullTime
	)
	err := row.Scan(&rec.Slug, &draft, &published, &rec.IsPublished,
		&rec.VersionToken, &rec.UpdatedAt, &pubAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching page %q: %w", slug, err)
	}

	if draft.Valid {
		doc, err := content.UnmarshalDocument([]byte(draft.String))
		if err != nil {
			return nil, fmt.Errorf("decoding draft document for %q: %w", slug, err)
		}
		rec.Draft = doc
	}
	if published.Valid {
		doc, err := content.UnmarshalDocument([]byte(published.String))
		if err != nil {
			return nil, fmt.Errorf("decoding published document for %q: %w", slug, err)
		}
		rec.Published = doc
	}
	if pubAt.Valid {
		t := pubAt.Time
		rec.PublishedAt = &t
	}
	return &rec, nil
}

func nullString(data []byte) sql.NullString {
	if data == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(data), Valid: true}
}

// monotonic keeps store timestamps non-decreasing even if the wall clock
// steps backwards between writes.
func monotonic(now, prev time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}
