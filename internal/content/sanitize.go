// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import "github.com/microcosm-cc/bluemonday"

// Sanitizer strips unsafe HTML from every string field of a document before it
// is persisted. Authors paste from anywhere; stored content must never carry
// script or event-handler markup into the public site.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer creates a sanitizer with the UGC policy, which keeps basic
// formatting tags and drops everything executable.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Clean returns a copy of the document with every string value sanitized.
// Non-string values are copied unchanged.
func (s *Sanitizer) Clean(d Document) Document {
	if d == nil {
		return nil
	}
	return Document(s.cleanValue(map[string]any(d)).(map[string]any))
}

func (s *Sanitizer) cleanValue(v any) any {
	switch val := v.(type) {
	case string:
		return s.policy.Sanitize(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = s.cleanValue(item)
		}
		return out
	case Document:
		return s.cleanValue(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = s.cleanValue(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = s.policy.Sanitize(item)
		}
		return out
	default:
		return val
	}
}
