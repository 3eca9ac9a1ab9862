package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Excerpt limits for the enrichment pipeline. Tagging sees more context than
// embedding; both are bounded so enrichment cost does not grow with upload size.
const (
	TaggingExcerptLimit   = 10000
	EmbeddingExcerptLimit = 5000
)

// Document is a stored unit of ingested content. Content holds UTF-8 text for
// textual MIME types and a base64-encoded byte string otherwise; the encoding
// is fully determined by MimeType and never changes after creation.
type Document struct {
	ID        string
	Filename  string
	Content   string
	MimeType  string
	CreatedAt time.Time
	Metadata  map[string]any
	Tags      []string
}

// ScoredDocument is a search hit: a hydrated document with its cosine
// similarity to the query.
type ScoredDocument struct {
	Document
	Similarity float64
}

// IngestResult is what a successful ingestion reports back to the uploader.
type IngestResult struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// IsTextualMime reports whether content of the given MIME type is stored as
// UTF-8 text rather than base64.
func IsTextualMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "text/") || mimeType == "application/json"
}

// EncodeContent converts a raw payload into its stored representation for the
// given MIME type. The same rule is applied at ingestion and at re-embedding.
func EncodeContent(raw []byte, mimeType string) string {
	if IsTextualMime(mimeType) {
		return string(raw)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeContent recovers the original payload bytes from stored content.
func DecodeContent(content, mimeType string) ([]byte, error) {
	if IsTextualMime(mimeType) {
		return []byte(content), nil
	}
	raw, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, fmt.Errorf("decode base64 content: %w", err)
	}
	return raw, nil
}

// TaggingExcerpt returns the slice of textual content handed to the tagging
// service: the first TaggingExcerptLimit characters. Binary uploads bypass
// this entirely; the pipeline sends their raw payload.
func (d Document) TaggingExcerpt() string {
	return truncate(d.Content, TaggingExcerptLimit)
}

// EmbeddingText selects the text to embed: a bounded content excerpt for
// textual types, the analysis summary for binary types. Embedding raw binary
// data is never meaningful.
func (d Document) EmbeddingText(summary string) string {
	if IsTextualMime(d.MimeType) {
		return truncate(d.Content, EmbeddingExcerptLimit)
	}
	return summary
}

// DedupTags returns tags with duplicates removed, preserving first-seen order.
// Storage tolerates duplicates; display must not.
func DedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// truncate bounds s to limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
