package doccache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/db"
	"github.com/omnimind-labs/omnimind/internal/domain"
)

type mockStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	delFn func(ctx context.Context, key string) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func newTestCache(ms *mockStore) *Cache {
	return New(ms, "omnimind:", time.Hour, nil, zap.NewNop())
}

func TestPutGet_RoundTrip(t *testing.T) {
	stored := map[string][]byte{}
	ms := &mockStore{
		setFn: func(_ context.Context, key string, value []byte, ttl time.Duration) error {
			if ttl != time.Hour {
				t.Errorf("ttl = %v, want 1h", ttl)
			}
			stored[key] = value
			return nil
		},
		getFn: func(_ context.Context, key string) ([]byte, error) {
			if v, ok := stored[key]; ok {
				return v, nil
			}
			return nil, db.ErrKeyNotFound
		},
	}
	cache := newTestCache(ms)
	ctx := context.Background()

	cache.Put(ctx, domain.IngestResult{ID: "doc-1", Filename: "a.txt", Tags: []string{"x", "y", "z"}, Summary: "sum"})

	got, ok := cache.Get(ctx, "doc-1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Filename != "a.txt" || got.Summary != "sum" || len(got.Tags) != 3 {
		t.Errorf("entry = %+v", got)
	}
	if _, ok := stored["omnimind:doc_cache:doc-1"]; !ok {
		t.Errorf("unexpected keys: %v", stored)
	}
}

func TestGet_Miss(t *testing.T) {
	cache := newTestCache(&mockStore{})

	if _, ok := cache.Get(context.Background(), "missing"); ok {
		t.Error("expected cache miss")
	}
}

func TestGet_CorruptEntry(t *testing.T) {
	ms := &mockStore{
		getFn: func(_ context.Context, _ string) ([]byte, error) {
			return []byte("{not json"), nil
		},
	}
	cache := newTestCache(ms)

	if _, ok := cache.Get(context.Background(), "doc-1"); ok {
		t.Error("corrupt entry must read as a miss")
	}
}

func TestInvalidate(t *testing.T) {
	var deleted string
	ms := &mockStore{
		delFn: func(_ context.Context, key string) error {
			deleted = key
			return nil
		},
	}
	cache := newTestCache(ms)

	if err := cache.Invalidate(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if deleted != "omnimind:doc_cache:doc-1" {
		t.Errorf("deleted key = %q", deleted)
	}
}
