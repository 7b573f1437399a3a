// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the records exchanged between the version store and
// its consumers.
package model

import (
	"time"

	"github.com/stagecms/stagecms/internal/content"
)

// PageRecord is the full stored state of one page slug: a draft document, a
// published snapshot, and their bookkeeping. Exactly one record exists per
// slug; the record is created implicitly on the first draft save and is never
// deleted by this subsystem.
//
// Documents are stored exactly as the last writer sent them, never merged
// output. The schema-complete view is computed fresh on every read, which
// keeps old stored data compatible with schema changes made after it was
// written.
type PageRecord struct {
	Slug         string           `json:"slug"`
	Draft        content.Document `json:"draft"`     // nil: never edited
	Published    content.Document `json:"published"` // nil: never published
	IsPublished  bool             `json:"is_published"`
	VersionToken string           `json:"version_token"`
	UpdatedAt    time.Time        `json:"updated_at"`
	PublishedAt  *time.Time       `json:"published_at,omitempty"`
}

// PublicPage is the published-only view served to the public site.
type PublicPage struct {
	Slug        string           `json:"slug"`
	Document    content.Document `json:"document"`
	IsPublished bool             `json:"is_published"`
	UpdatedAt   time.Time        `json:"updated_at"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
}

// WriteReceipt is returned by every successful store write. Draft saves echo
// the publish bookkeeping unchanged; publishes set it.
type WriteReceipt struct {
	VersionToken string     `json:"version_token"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsPublished  bool       `json:"is_published"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}
