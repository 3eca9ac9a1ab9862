package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/omnimind-labs/omnimind/internal/db"
	"github.com/omnimind-labs/omnimind/internal/domain"
)

// store is the consumer interface for vectors (ISP).
type store interface {
	Set(ctx context.Context, key string, value []byte) error
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo keeps at most one embedding vector per document id.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a vector repository. keyPrefix namespaces all keys
// (e.g. "omnimind:").
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Put stores the vector for a document id, replacing any previous one.
func (r *Repo) Put(ctx context.Context, docID string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("put vector %s: empty vector", docID)
	}
	if err := r.store.Set(ctx, r.key(docID), vectorToBytes(vec)); err != nil {
		return fmt.Errorf("set vector %s: %w", docID, err)
	}
	return nil
}

// All returns every stored (doc id, vector) pair. This is the full scan the
// retrieval engine ranks over; ids deleted between the key scan and the value
// fetch are skipped.
func (r *Repo) All(ctx context.Context) ([]domain.StoredVector, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan vectors: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch vectors: %w", err)
	}

	out := make([]domain.StoredVector, 0, len(keys))
	for i, data := range values {
		if data == nil {
			continue
		}
		vec, err := bytesToVector(data)
		if err != nil {
			return nil, fmt.Errorf("vector %s: %w", keys[i], err)
		}
		out = append(out, domain.StoredVector{
			DocID:  strings.TrimPrefix(keys[i], r.keyPrefix+"vec:"),
			Vector: vec,
		})
	}
	return out, nil
}

// Delete removes the vector for a document id. Missing keys are not an error.
func (r *Repo) Delete(ctx context.Context, docID string) error {
	if err := r.store.Del(ctx, r.key(docID)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("del vector %s: %w", docID, err)
	}
	return nil
}

func (r *Repo) key(docID string) string {
	return r.keyPrefix + "vec:" + docID
}
