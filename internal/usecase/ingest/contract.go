package ingest

import (
	"context"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// DocumentStore persists documents and their tags.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	AddTags(ctx context.Context, docID string, tags []string) error
}

// VectorStore persists embeddings keyed by document id.
type VectorStore interface {
	Put(ctx context.Context, docID string, vec []float32) error
}

// Analyzer tags and summarizes an upload.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.Analysis, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// OutcomeCache keeps the last ingest outcome per document for fast re-reads.
// Implementations must treat Put as best-effort.
type OutcomeCache interface {
	Put(ctx context.Context, e domain.IngestResult)
}
