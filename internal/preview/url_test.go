package preview

import (
	"net/url"
	"testing"
)

func TestDraftRequested(t *testing.T) {
	cases := []struct {
		rawQuery string
		want     bool
	}{
		{"preview=draft", true},
		{"preview=draft&v=abc", true},
		{"preview=published", false},
		{"preview=", false},
		{"", false},
		{"v=abc", false},
	}
	for _, tc := range cases {
		q, err := url.ParseQuery(tc.rawQuery)
		if err != nil {
			t.Fatalf("ParseQuery(%q): %v", tc.rawQuery, err)
		}
		if got := DraftRequested(q); got != tc.want {
			t.Errorf("DraftRequested(%q) = %v, want %v", tc.rawQuery, got, tc.want)
		}
	}
}

func TestStampURL(t *testing.T) {
	base, err := url.Parse("https://example.com/careers?lang=en")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	stamped := StampURL(base, "tok-1")
	q := stamped.Query()
	if q.Get(ParamPreview) != ValueDraft {
		t.Errorf("preview param = %q", q.Get(ParamPreview))
	}
	if TokenFromQuery(q) != "tok-1" {
		t.Errorf("token = %q", TokenFromQuery(q))
	}
	if q.Get("lang") != "en" {
		t.Error("existing query parameters must survive stamping")
	}
	// Bumping the token replaces, not appends.
	again := StampURL(stamped, "tok-2")
	if vs := again.Query()[ParamVersion]; len(vs) != 1 || vs[0] != "tok-2" {
		t.Errorf("token not replaced: %v", vs)
	}
	// The input URL is not mutated.
	if TokenFromQuery(base.Query()) != "" {
		t.Error("StampURL mutated its input")
	}
}
