package document

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// Stats summarizes the stored corpus.
type Stats struct {
	Documents int64 `json:"documents"`
	Tags      int64 `json:"tags"`
}

// Service handles document reads and cascading deletion.
type Service struct {
	repo    Repository
	vectors VectorDeleter
	cache   OutcomeCache
	logger  *zap.Logger
}

// New creates a document service.
func New(repo Repository, vectors VectorDeleter, cache OutcomeCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, vectors: vectors, cache: cache, logger: logger}
}

// Get retrieves a document by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns all documents, most recent first.
func (s *Service) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Outcome returns the ingest outcome for a document: the cached copy when it
// is still live, otherwise one rebuilt from the store. A rebuilt outcome has
// no summary; the summary only exists in the cache window.
func (s *Service) Outcome(ctx context.Context, id string) (domain.IngestResult, error) {
	if e, ok := s.cache.Get(ctx, id); ok {
		return e, nil
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("get document: %w", err)
	}
	return domain.IngestResult{
		ID:       doc.ID,
		Filename: doc.Filename,
		Tags:     domain.DedupTags(doc.Tags),
	}, nil
}

// Delete removes a document, its tags, its embedding, and its cached ingest
// outcome. Deleting an absent document is a no-op, not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.vectors.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		// The entry expires on its own; deletion already succeeded.
		s.logger.Warn("Failed to invalidate cached ingest outcome",
			zap.String("id", id), zap.Error(err))
	}
	return nil
}

// Stats returns the document count and the distinct tag count.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	docs, tags, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return Stats{Documents: docs, Tags: tags}, nil
}
