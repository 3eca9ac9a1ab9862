package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// Dimensionality is provider-defined and fixed for the lifetime of a
// deployment; all stored vectors must share it for scores to be comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// StoredVector is one persisted embedding: a document id and its vector.
type StoredVector struct {
	DocID  string
	Vector []float32
}
