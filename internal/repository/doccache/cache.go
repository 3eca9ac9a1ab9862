// Package doccache keeps a short-lived Redis copy of each ingest outcome so
// upload confirmation screens can re-read it without touching the relational
// store.
package doccache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/db"
	"github.com/omnimind-labs/omnimind/internal/domain"
)

// store is the consumer interface for the cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache stores ingest outcomes with a TTL. Failures are reported to the
// caller but are never fatal to ingestion.
type Cache struct {
	store      store
	keyPrefix  string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an ingest-outcome cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		keyPrefix:  keyPrefix,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Put caches an ingest outcome. Errors are logged, not returned: the cache is
// an optimization, never a dependency of the pipeline.
func (c *Cache) Put(ctx context.Context, e domain.IngestResult) {
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Warn("Failed to marshal cache entry", zap.String("id", e.ID), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, c.key(e.ID), data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache ingest outcome", zap.String("id", e.ID), zap.Error(err))
	}
}

// Get returns the cached outcome for a document id, if present.
func (c *Cache) Get(ctx context.Context, id string) (domain.IngestResult, bool) {
	data, err := c.store.Get(ctx, c.key(id))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cached ingest outcome", zap.String("id", id), zap.Error(err))
		}
		c.incCache("miss")
		return domain.IngestResult{}, false
	}

	var e domain.IngestResult
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Failed to parse cached ingest outcome", zap.String("id", id), zap.Error(err))
		c.incCache("miss")
		return domain.IngestResult{}, false
	}

	c.incCache("hit")
	return e, true
}

// Invalidate drops the cached outcome for a document id.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.store.Del(ctx, c.key(id)); err != nil {
		return fmt.Errorf("invalidate cache %s: %w", id, err)
	}
	return nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *Cache) key(id string) string {
	return c.keyPrefix + "doc_cache:" + id
}
