package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/domain"
	"github.com/omnimind-labs/omnimind/internal/metrics"
)

// Service ranks documents by cosine similarity between the query embedding
// and every stored vector. The corpus is small enough that a brute-force scan
// beats maintaining an index.
type Service struct {
	vectors  VectorScanner
	docs     DocumentReader
	embedder Embedder

	minScore     float64
	topK         int
	embedTimeout time.Duration
	logger       *zap.Logger
}

// New creates a search service. Results must score strictly above minScore;
// at most topK are returned.
func New(
	vectors VectorScanner,
	docs DocumentReader,
	embedder Embedder,
	minScore float64,
	topK int,
	embedTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		vectors:      vectors,
		docs:         docs,
		embedder:     embedder,
		minScore:     minScore,
		topK:         topK,
		embedTimeout: embedTimeout,
		logger:       logger,
	}
}

type hit struct {
	docID string
	score float64
}

// Search returns the ranked documents matching a free-text query. An empty or
// whitespace query returns no results without touching the embedding service,
// and a degraded embedding service degrades to an empty result set rather
// than an error.
func (s *Service) Search(ctx context.Context, query string) ([]domain.ScoredDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	queryVec, ok := s.embedQuery(ctx, query)
	if !ok {
		return nil, nil
	}

	stored, err := s.vectors.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan vectors: %w", err)
	}
	metrics.SearchCandidatesScanned.Observe(float64(len(stored)))

	hits := make([]hit, 0, len(stored))
	for _, v := range stored {
		score, err := domain.CosineSimilarity(queryVec, v.Vector)
		if err != nil {
			return nil, fmt.Errorf("score vector %s: %w", v.DocID, err)
		}
		if score > s.minScore {
			hits = append(hits, hit{docID: v.DocID, score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}

	return s.hydrate(ctx, hits)
}

// embedQuery vectorizes the query under the embedding timeout. A failure or
// empty vector reads as "nothing to search with".
func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, bool) {
	ectx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	result, err := s.embedder.Embed(ectx, query)
	if err != nil || len(result.Embedding) == 0 {
		s.logger.Warn("Query embedding unavailable, returning empty result set", zap.Error(err))
		return nil, false
	}
	return result.Embedding, true
}

// hydrate loads the document behind each hit. A vector whose document has
// been deleted concurrently is dropped, not an error.
func (s *Service) hydrate(ctx context.Context, hits []hit) ([]domain.ScoredDocument, error) {
	results := make([]domain.ScoredDocument, 0, len(hits))
	for _, h := range hits {
		doc, err := s.docs.Get(ctx, h.docID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Debug("Dropping search hit without a document", zap.String("id", h.docID))
				continue
			}
			return nil, fmt.Errorf("hydrate document %s: %w", h.docID, err)
		}
		results = append(results, domain.ScoredDocument{Document: doc, Similarity: h.score})
	}
	return results, nil
}
