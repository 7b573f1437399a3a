// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content defines the structured content document model, the canonical
// per-page defaults, and the merger that fills structurally absent fields of a
// stored document from those defaults. Schema-default knowledge lives here and
// nowhere else; consumers never need to know a field might be missing.
package content

import (
	"encoding/json"
	"errors"
)

// Document is a page's structured content: named sections, each mapping field
// names to scalars, string lists, or ordered lists of sub-records. It is the
// unit stored, merged, and served by the version store.
type Document map[string]any

// DeepCopy returns an independent copy of the document. Mutating the copy
// never affects the original, including nested maps and slices.
func (d Document) DeepCopy() Document {
	if d == nil {
		return nil
	}
	return Document(copyValue(map[string]any(d)).(map[string]any))
}

// IsEmpty reports whether the document carries no sections at all. An
// empty-but-present document is treated the same as a missing one: content
// sections are additive, there is no way to delete a section back to nothing.
func (d Document) IsEmpty() bool {
	return len(d) == 0
}

// UnmarshalDocument decodes a JSON payload into a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	// A literal null unmarshals to a nil map without error. It is not a
	// document and must never reach the store.
	if d == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return d, nil
}

// MarshalDocument encodes a Document as JSON. A nil document encodes to nil,
// which the store persists as NULL rather than the string "null".
func MarshalDocument(d Document) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case Document:
		return copyValue(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	default:
		// Scalars are immutable as far as document mutation is concerned.
		return val
	}
}
