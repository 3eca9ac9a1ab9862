package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/domain"
	"github.com/omnimind-labs/omnimind/internal/metrics"
)

// Service runs the ingestion pipeline: persist first, then enrich. Tagging
// failure aborts enrichment for the call; embedding failure does not fail the
// call at all — the document simply stays invisible to similarity search.
type Service struct {
	docs     DocumentStore
	vectors  VectorStore
	analyzer Analyzer
	embedder Embedder
	cache    OutcomeCache

	taggingTimeout time.Duration
	embedTimeout   time.Duration
	logger         *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an ingestion service.
func New(
	docs DocumentStore,
	vectors VectorStore,
	analyzer Analyzer,
	embedder Embedder,
	cache OutcomeCache,
	taggingTimeout, embedTimeout time.Duration,
	logger *zap.Logger,
) *Service {
	return &Service{
		docs:           docs,
		vectors:        vectors,
		analyzer:       analyzer,
		embedder:       embedder,
		cache:          cache,
		taggingTimeout: taggingTimeout,
		embedTimeout:   embedTimeout,
		logger:         logger,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

// Ingest stores an upload and enriches it with tags, a summary, and an
// embedding. The document is persisted before any external call, so a tagging
// failure leaves it stored with zero tags.
func (s *Service) Ingest(
	ctx context.Context, filename string, content []byte, mimeType string,
) (domain.IngestResult, error) {
	if strings.TrimSpace(filename) == "" {
		return domain.IngestResult{}, fmt.Errorf("filename is required: %w", domain.ErrInvalidInput)
	}
	if mimeType == "" {
		return domain.IngestResult{}, fmt.Errorf("mimeType is required: %w", domain.ErrInvalidInput)
	}
	if len(content) == 0 {
		return domain.IngestResult{}, fmt.Errorf("content is empty: %w", domain.ErrInvalidInput)
	}

	doc := domain.Document{
		ID:        s.newID(),
		Filename:  filename,
		Content:   domain.EncodeContent(content, mimeType),
		MimeType:  mimeType,
		CreatedAt: s.now().UTC(),
		Metadata:  map[string]any{},
	}

	if err := s.docs.Create(ctx, &doc); err != nil {
		metrics.IngestTotal.WithLabelValues("store_error").Inc()
		return domain.IngestResult{}, fmt.Errorf("store document: %w", err)
	}

	analysis, err := s.analyze(ctx, doc, content)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("tagging_failed").Inc()
		s.logger.Warn("Tagging failed, document stored without tags",
			zap.String("id", doc.ID), zap.Error(err))
		return domain.IngestResult{}, err
	}

	if err := s.docs.AddTags(ctx, doc.ID, analysis.Tags); err != nil {
		metrics.IngestTotal.WithLabelValues("store_error").Inc()
		return domain.IngestResult{}, fmt.Errorf("store tags: %w", err)
	}

	if vec, ok := s.embedVector(ctx, doc, analysis.Summary); ok {
		if err := s.vectors.Put(ctx, doc.ID, vec); err != nil {
			metrics.IngestTotal.WithLabelValues("store_error").Inc()
			return domain.IngestResult{}, fmt.Errorf("store vector: %w", err)
		}
	}

	result := domain.IngestResult{
		ID:       doc.ID,
		Filename: doc.Filename,
		Tags:     domain.DedupTags(analysis.Tags),
		Summary:  analysis.Summary,
	}
	s.cache.Put(ctx, result)

	metrics.IngestTotal.WithLabelValues("ok").Inc()
	return result, nil
}

// analyze calls the tagging service under its own timeout. Any failure,
// timeout included, comes back as ErrTaggingFailed.
func (s *Service) analyze(
	ctx context.Context, doc domain.Document, raw []byte,
) (domain.Analysis, error) {
	payload := raw
	if domain.IsTextualMime(doc.MimeType) {
		payload = []byte(doc.TaggingExcerpt())
	}

	actx, cancel := context.WithTimeout(ctx, s.taggingTimeout)
	defer cancel()

	analysis, err := s.analyzer.Analyze(actx, domain.AnalyzeRequest{
		Filename: doc.Filename,
		MimeType: doc.MimeType,
		Content:  payload,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTaggingFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrTaggingFailed, err)
		}
		return domain.Analysis{}, fmt.Errorf("analyze document %s: %w", doc.ID, err)
	}
	return analysis, nil
}

// embedVector vectorizes the document under the embedding timeout. The second
// return reports whether a vector was produced; failures are logged and
// swallowed.
func (s *Service) embedVector(
	ctx context.Context, doc domain.Document, summary string,
) ([]float32, bool) {
	text := doc.EmbeddingText(summary)
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	ectx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	result, err := s.embedder.Embed(ectx, text)
	if err != nil || len(result.Embedding) == 0 {
		metrics.IngestWithoutVectorTotal.Inc()
		s.logger.Warn("Embedding unavailable, document stored without vector",
			zap.String("id", doc.ID), zap.Error(err))
		return nil, false
	}
	return result.Embedding, true
}
