package content

import (
	"reflect"
	"testing"
)

func testDefaults() Document {
	return Document{
		"hero": map[string]any{
			"title":    "Default Title",
			"subtitle": "Default Subtitle",
		},
		"faq": map[string]any{
			"heading": "FAQ",
			"entries": []any{
				map[string]any{"question": "A?", "answer": "A."},
				map[string]any{"question": "B?", "answer": "B."},
			},
		},
		"tags": []string{"one", "two"},
	}
}

func TestMerge_NilStored(t *testing.T) {
	defaults := testDefaults()
	merged := Merge(nil, defaults)

	if !reflect.DeepEqual(map[string]any(merged), map[string]any(defaults)) {
		t.Fatalf("expected defaults, got %#v", merged)
	}

	// The result must be an independent copy.
	merged["hero"].(map[string]any)["title"] = "mutated"
	if defaults["hero"].(map[string]any)["title"] != "Default Title" {
		t.Error("mutating merged output corrupted the shared defaults")
	}
}

func TestMerge_EmptyStoredTreatedAsAbsent(t *testing.T) {
	merged := Merge(Document{}, testDefaults())
	if merged["hero"].(map[string]any)["title"] != "Default Title" {
		t.Errorf("empty stored document should fall back to defaults")
	}
}

func TestMerge_Completeness(t *testing.T) {
	stored := Document{
		"hero": map[string]any{"title": "Custom"},
	}
	merged := Merge(stored, testDefaults())

	hero := merged["hero"].(map[string]any)
	if hero["title"] != "Custom" {
		t.Errorf("stored field should win, got %v", hero["title"])
	}
	if hero["subtitle"] != "Default Subtitle" {
		t.Errorf("missing field should come from defaults, got %v", hero["subtitle"])
	}
	if _, ok := merged["faq"]; !ok {
		t.Error("missing section faq not filled from defaults")
	}
	if _, ok := merged["tags"]; !ok {
		t.Error("missing field tags not filled from defaults")
	}
}

func TestMerge_ListReplaceNotMerge(t *testing.T) {
	stored := Document{
		"faq": map[string]any{
			"entries": []any{
				map[string]any{"question": "X?", "answer": "X."},
			},
		},
	}
	merged := Merge(stored, testDefaults())

	entries := merged["faq"].(map[string]any)["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected stored list verbatim, got %d entries", len(entries))
	}
	if entries[0].(map[string]any)["question"] != "X?" {
		t.Errorf("unexpected entry: %#v", entries[0])
	}
}

func TestMerge_EmptyListFallsBack(t *testing.T) {
	stored := Document{
		"faq": map[string]any{"entries": []any{}},
	}
	merged := Merge(stored, testDefaults())

	entries := merged["faq"].(map[string]any)["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("empty stored list should fall back to default, got %d entries", len(entries))
	}
}

func TestMerge_WrongTypePassesThrough(t *testing.T) {
	stored := Document{
		"hero": "not an object",
	}
	merged := Merge(stored, testDefaults())

	if merged["hero"] != "not an object" {
		t.Errorf("wrong-typed value should pass through unchanged, got %#v", merged["hero"])
	}
}

func TestMerge_UnknownSectionPreserved(t *testing.T) {
	stored := Document{
		"legacy": map[string]any{"field": "value"},
	}
	merged := Merge(stored, testDefaults())

	if _, ok := merged["legacy"]; !ok {
		t.Error("section unknown to the schema should be preserved")
	}
}

func TestDeepCopy_Isolation(t *testing.T) {
	original := testDefaults()
	clone := original.DeepCopy()

	clone["faq"].(map[string]any)["entries"].([]any)[0].(map[string]any)["question"] = "mutated"
	if original["faq"].(map[string]any)["entries"].([]any)[0].(map[string]any)["question"] != "A?" {
		t.Error("deep copy shares nested memory with the original")
	}

	clone["tags"].([]string)[0] = "mutated"
	if original["tags"].([]string)[0] != "one" {
		t.Error("deep copy shares string slice memory with the original")
	}
}

func TestRegistry_DefaultsAreCopies(t *testing.T) {
	reg := NewRegistry()
	first, err := reg.Defaults(SlugCareers)
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	first["hero"].(map[string]any)["title"] = "mutated"

	second, err := reg.Defaults(SlugCareers)
	if err != nil {
		t.Fatalf("Defaults: %v", err)
	}
	if second["hero"].(map[string]any)["title"] == "mutated" {
		t.Error("registry handed out shared default instances")
	}
}

func TestRegistry_UnknownSlug(t *testing.T) {
	reg := NewRegistry()
	if reg.Known("no-such-page") {
		t.Error("unexpected slug registered")
	}
	if _, err := reg.Defaults("no-such-page"); err == nil {
		t.Error("expected error for unknown slug")
	}
}
