package content

import (
	"strings"
	"testing"
)

func TestMarshalRoundTrip(t *testing.T) {
	doc := Document{
		"hero": map[string]any{"title": "V1"},
	}
	data, err := MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}

	decoded, err := UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument: %v", err)
	}
	if decoded["hero"].(map[string]any)["title"] != "V1" {
		t.Errorf("round trip lost data: %#v", decoded)
	}
}

func TestMarshalNilDocument(t *testing.T) {
	data, err := MarshalDocument(nil)
	if err != nil {
		t.Fatalf("MarshalDocument: %v", err)
	}
	if data != nil {
		t.Errorf("nil document should marshal to nil, got %q", data)
	}

	doc, err := UnmarshalDocument(nil)
	if err != nil {
		t.Fatalf("UnmarshalDocument: %v", err)
	}
	if doc != nil {
		t.Errorf("nil payload should decode to nil, got %#v", doc)
	}
}

func TestUnmarshalRejectsNonObject(t *testing.T) {
	for _, payload := range []string{`null`, `[1,2]`, `"text"`, `42`} {
		if _, err := UnmarshalDocument([]byte(payload)); err == nil {
			t.Errorf("UnmarshalDocument(%s): expected error", payload)
		}
	}
}

func TestSanitizer_StripsScript(t *testing.T) {
	s := NewSanitizer()
	doc := Document{
		"hero": map[string]any{
			"title": `Hello <script>alert("x")</script>world`,
		},
		"faq": map[string]any{
			"entries": []any{
				map[string]any{"answer": `<a href="https://example.com" onclick="evil()">link</a>`},
			},
		},
	}

	clean := s.Clean(doc)

	title := clean["hero"].(map[string]any)["title"].(string)
	if strings.Contains(title, "<script>") {
		t.Errorf("script tag survived sanitization: %q", title)
	}
	answer := clean["faq"].(map[string]any)["entries"].([]any)[0].(map[string]any)["answer"].(string)
	if strings.Contains(answer, "onclick") {
		t.Errorf("event handler survived sanitization: %q", answer)
	}
	if !strings.Contains(answer, "example.com") {
		t.Errorf("benign link destroyed by sanitization: %q", answer)
	}

	// The input must not have been mutated.
	if !strings.Contains(doc["hero"].(map[string]any)["title"].(string), "<script>") {
		t.Error("Clean mutated its input")
	}
}

func TestRenderer_MarkdownFields(t *testing.T) {
	r := NewRenderer()
	doc := Document{
		"story": map[string]any{
			"heading":      "Why",
			"bodyMarkdown": "Some **bold** text",
		},
	}

	out := r.RenderHTML(doc)

	story := out["story"].(map[string]any)
	html, ok := story["bodyHtml"].(string)
	if !ok {
		t.Fatalf("expected rendered bodyHtml, got %#v", story)
	}
	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %q", html)
	}
	if story["bodyMarkdown"] != "Some **bold** text" {
		t.Error("markdown source should be preserved")
	}
}

func TestRenderer_IgnoresNonStringMarkdownField(t *testing.T) {
	r := NewRenderer()
	doc := Document{
		"story": map[string]any{"bodyMarkdown": 42},
	}
	out := r.RenderHTML(doc)
	if _, ok := out["story"].(map[string]any)["bodyHtml"]; ok {
		t.Error("non-string markdown field should not render")
	}
}
