// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package content

// Merge combines a possibly-partial stored document with the canonical
// defaults and returns a structurally complete document: every section and
// field present in defaults is present in the result.
//
// Rules:
//   - A nil or empty stored document yields a deep copy of defaults.
//   - Nested objects merge recursively: stored fields win, missing fields are
//     filled from defaults.
//   - List-typed fields replace rather than merge. A non-empty stored list is
//     used verbatim; only an absent field falls back to the default list.
//     List content is user-curated, so element-wise merging would reorder or
//     duplicate entries.
//   - Values with the wrong type are passed through unchanged. Merge fills
//     structural gaps; it does not validate types.
//
// The result shares no memory with either input, so callers may mutate it
// freely without corrupting the shared default instance.
func Merge(stored, defaults Document) Document {
	if stored.IsEmpty() {
		return defaults.DeepCopy()
	}
	return Document(mergeMaps(map[string]any(stored), map[string]any(defaults)))
}

func mergeMaps(stored, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(stored))
	for key, defVal := range defaults {
		storedVal, ok := stored[key]
		if !ok || storedVal == nil {
			out[key] = copyValue(defVal)
			continue
		}
		out[key] = mergeValue(storedVal, defVal)
	}
	// Sections the schema no longer knows about are preserved as-is so that
	// rolling back a schema change never loses data silently.
	for key, storedVal := range stored {
		if _, ok := defaults[key]; !ok {
			out[key] = copyValue(storedVal)
		}
	}
	return out
}

func mergeValue(stored, def any) any {
	switch defVal := def.(type) {
	case map[string]any:
		if storedMap, ok := asMap(stored); ok {
			return mergeMaps(storedMap, defVal)
		}
	case Document:
		if storedMap, ok := asMap(stored); ok {
			return mergeMaps(storedMap, map[string]any(defVal))
		}
	case []any:
		if storedList, ok := stored.([]any); ok {
			if len(storedList) == 0 {
				return copyValue(defVal)
			}
			return copyValue(storedList)
		}
	case []string:
		if storedList, ok := stored.([]string); ok {
			if len(storedList) == 0 {
				return copyValue(defVal)
			}
			return copyValue(storedList)
		}
		// JSON decoding produces []any even for string lists.
		if storedList, ok := stored.([]any); ok {
			if len(storedList) == 0 {
				return copyValue(defVal)
			}
			return copyValue(storedList)
		}
	}
	// Scalar, or a type mismatch against the schema: stored value wins as-is.
	return copyValue(stored)
}

func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case Document:
		return map[string]any(val), true
	default:
		return nil, false
	}
}
