package document

import (
	"context"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (documents, tags int64, err error)
}

// VectorDeleter removes a document's embedding.
type VectorDeleter interface {
	Delete(ctx context.Context, docID string) error
}

// OutcomeCache reads and invalidates cached ingest outcomes.
type OutcomeCache interface {
	Get(ctx context.Context, id string) (domain.IngestResult, bool)
	Invalidate(ctx context.Context, id string) error
}
