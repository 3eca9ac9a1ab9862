package domain

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tag count bounds the tagging service is instructed to honor and the reply
// validator enforces.
const (
	MinTags = 3
	MaxTags = 5
)

// Analyzer is the tagging service contract: filename plus a content excerpt
// (or decoded binary payload) in, tags and a one-sentence summary out.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error)
}

// AnalyzeRequest carries everything the tagging service needs about an upload.
// Content is the raw payload for binary MIME types and a text excerpt for
// textual ones.
type AnalyzeRequest struct {
	Filename string
	MimeType string
	Content  []byte
}

// Analysis is the validated reply of the tagging service.
type Analysis struct {
	Tags    []string `json:"tags"`
	Summary string   `json:"summary"`
}

// ParseAnalysis validates an untyped tagging reply against the strict expected
// shape: a tags array of MinTags..MaxTags non-empty strings and a non-empty
// summary. Any deviation is a TaggingFailed error, never a best-effort
// coercion.
func ParseAnalysis(raw []byte) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: unparseable reply: %w", ErrTaggingFailed, err)
	}
	if len(a.Tags) < MinTags || len(a.Tags) > MaxTags {
		return Analysis{}, fmt.Errorf("%w: expected %d-%d tags, got %d",
			ErrTaggingFailed, MinTags, MaxTags, len(a.Tags))
	}
	for i, t := range a.Tags {
		if t == "" {
			return Analysis{}, fmt.Errorf("%w: empty tag at index %d", ErrTaggingFailed, i)
		}
	}
	if a.Summary == "" {
		return Analysis{}, fmt.Errorf("%w: empty summary", ErrTaggingFailed)
	}
	return a, nil
}
