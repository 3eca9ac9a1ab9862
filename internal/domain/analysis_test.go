package domain

import (
	"errors"
	"testing"
)

func TestParseAnalysis_Valid(t *testing.T) {
	raw := []byte(`{"tags":["go","redis","search"],"summary":"A note about search."}`)
	a, err := ParseAnalysis(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Tags) != 3 {
		t.Errorf("tags = %v, want 3 entries", a.Tags)
	}
	if a.Summary != "A note about search." {
		t.Errorf("summary = %q", a.Summary)
	}
}

func TestParseAnalysis_Invalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `tags: go`},
		{"too few tags", `{"tags":["a","b"],"summary":"s"}`},
		{"too many tags", `{"tags":["a","b","c","d","e","f"],"summary":"s"}`},
		{"empty tag", `{"tags":["a","","c"],"summary":"s"}`},
		{"missing summary", `{"tags":["a","b","c"]}`},
		{"empty summary", `{"tags":["a","b","c"],"summary":""}`},
		{"wrong tags type", `{"tags":"a,b,c","summary":"s"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseAnalysis([]byte(c.raw))
			if !errors.Is(err, ErrTaggingFailed) {
				t.Errorf("expected ErrTaggingFailed, got %v", err)
			}
		})
	}
}
