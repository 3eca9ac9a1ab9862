package domain

import "errors"

var (
	// ErrNotFound signals a missing document.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateID signals an id collision at the store layer; the caller
	// should retry with a freshly generated id.
	ErrDuplicateID = errors.New("duplicate document id")
	// ErrTaggingFailed signals that the tagging service was unreachable, timed
	// out, or returned an unparseable reply. Fatal to the current ingestion's
	// enrichment: the document stays stored with zero tags and no embedding.
	ErrTaggingFailed = errors.New("tagging failed")
	// ErrEmbeddingUnavailable signals that the embedding service was
	// unreachable, timed out, or returned no vector. Never fatal: ingestion
	// still succeeds without a vector, search returns an empty result set.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrDimensionMismatch signals stored vectors of differing length during
	// ranking. Indicates a data-integrity problem requiring re-embedding.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidInput signals a request that fails validation.
	ErrInvalidInput = errors.New("invalid input")
)
