// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store implements the version store: one record per page slug with a
// draft document, a published snapshot, and write bookkeeping. Writes are
// atomic at the record level; no concurrency control beyond that is provided,
// so concurrent draft saves for the same slug resolve as last write wins.
package store

import (
	"context"
	"errors"

	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/model"
)

// ErrNotFound indicates no record exists for the requested slug.
var ErrNotFound = errors.New("page not found")

// ErrNilDocument indicates a publish was attempted with no document. A
// published page must always carry a published snapshot.
var ErrNilDocument = errors.New("cannot publish a nil document")

// VersionStore is the contract the content core requires from the storage
// layer. Implementations: the SQL store (production) and MemoryStore (tests).
type VersionStore interface {
	// FetchForPublicRead returns the published-only view of a page.
	FetchForPublicRead(ctx context.Context, slug string) (*model.PublicPage, error)

	// FetchForAuthoring returns the full record including the draft.
	FetchForAuthoring(ctx context.Context, slug string) (*model.PageRecord, error)

	// UpsertDraft writes the draft document, creating the record if absent.
	// Publish bookkeeping is echoed unchanged.
	UpsertDraft(ctx context.Context, slug string, doc content.Document) (*model.WriteReceipt, error)

	// Publish writes the document into both the draft and published columns
	// and marks the page published. Writing the draft as well is deliberate:
	// publishing must never leave the draft behind the live site, or a later
	// accidental draft save could revert published content.
	Publish(ctx context.Context, slug string, doc content.Document) (*model.WriteReceipt, error)

	// VersionToken returns the opaque token bumped on every write. Receivers
	// compare tokens for equality only.
	VersionToken(ctx context.Context, slug string) (string, error)
}
