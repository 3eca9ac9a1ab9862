package search

import (
	"context"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// VectorScanner exposes the full vector keyspace for the linear scan.
type VectorScanner interface {
	All(ctx context.Context) ([]domain.StoredVector, error)
}

// DocumentReader hydrates documents for the ranked hit list.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domain.Document, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
