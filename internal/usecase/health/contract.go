package health

import "context"

// DocumentsPinger checks relational store availability.
type DocumentsPinger interface {
	Ping(ctx context.Context) error
}

// VectorsPinger checks vector store availability.
type VectorsPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
