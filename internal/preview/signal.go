// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package preview implements the sync channel between an authoring surface
// and its draft previews. Broadcasts fan out over several independent
// transports because no single one is reachable in every embedding; delivery
// is best effort and duplicate signals are harmless, since receivers react by
// an idempotent reload.
package preview

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TypeContentChanged is the discriminant for content-change signals. Anything
// else arriving on a shared transport is ignored.
const TypeContentChanged = "content-changed"

// Signal is the tagged message broadcast when a page's draft changes.
// Receivers validate the type and slug before acting.
type Signal struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Slug   string    `json:"slug"`
	Token  string    `json:"token"`
	SentAt time.Time `json:"sent_at"`
}

// NewContentChanged creates a content-change signal for a slug. The token is
// the store's version token after the write that triggered the broadcast.
func NewContentChanged(slug, token string) Signal {
	return Signal{
		ID:     uuid.NewString(),
		Type:   TypeContentChanged,
		Slug:   slug,
		Token:  token,
		SentAt: time.Now().UTC(),
	}
}

// Valid reports whether the signal carries the expected discriminant and a
// target slug.
func (s Signal) Valid() bool {
	return s.Type == TypeContentChanged && s.Slug != ""
}

// DecodeSignal parses a wire payload. The second return value is false for
// malformed payloads and for messages that are not valid content-change
// signals.
func DecodeSignal(data []byte) (Signal, bool) {
	var s Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return Signal{}, false
	}
	if !s.Valid() {
		return Signal{}, false
	}
	return s, true
}
