package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// --- Mocks ---

type mockVectors struct {
	stored []domain.StoredVector
	err    error
}

func (m *mockVectors) All(_ context.Context) ([]domain.StoredVector, error) {
	return m.stored, m.err
}

type mockDocs struct {
	docs map[string]domain.Document
	err  error
}

func (m *mockDocs) Get(_ context.Context, id string) (domain.Document, error) {
	if m.err != nil {
		return domain.Document{}, m.err
	}
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrNotFound
	}
	return doc, nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func newService(vectors *mockVectors, docs *mockDocs, embedder *mockEmbedder) *Service {
	return New(vectors, docs, embedder, 0.5, 5, time.Second, zap.NewNop())
}

func docFor(id string) domain.Document {
	return domain.Document{ID: id, Filename: id + ".txt", MimeType: "text/plain"}
}

// --- Tests ---

func TestSearch_RanksByDescendingSimilarity(t *testing.T) {
	// Query [1,0]; stored vectors at decreasing angles from it.
	vectors := &mockVectors{stored: []domain.StoredVector{
		{DocID: "low", Vector: []float32{0.6, 0.8}},   // cos = 0.6
		{DocID: "high", Vector: []float32{1, 0}},      // cos = 1.0
		{DocID: "mid", Vector: []float32{0.8, 0.6}},   // cos = 0.8
		{DocID: "out", Vector: []float32{0.2, 0.98}},  // below threshold
		{DocID: "neg", Vector: []float32{-1, 0}},      // cos = -1
	}}
	docs := &mockDocs{docs: map[string]domain.Document{
		"low": docFor("low"), "high": docFor("high"), "mid": docFor("mid"),
		"out": docFor("out"), "neg": docFor("neg"),
	}}
	svc := newService(vectors, docs, &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	wantOrder := []string{"high", "mid", "low"}
	if len(results) != len(wantOrder) {
		t.Fatalf("got %d results, want %d", len(results), len(wantOrder))
	}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("result[%d] = %s, want %s", i, results[i].ID, want)
		}
	}
	if results[0].Similarity < results[1].Similarity || results[1].Similarity < results[2].Similarity {
		t.Errorf("similarities not descending: %v", results)
	}
}

func TestSearch_ThresholdIsExclusive(t *testing.T) {
	svc := New(
		&mockVectors{stored: []domain.StoredVector{
			{DocID: "at", Vector: []float32{1, 1, 0, 0}},    // cos with [1,0,0,0] = 1/sqrt2 ≈ 0.707 > 0.5
			{DocID: "below", Vector: []float32{1, 2, 2, 0}}, // cos = 1/3 < 0.5
		}},
		&mockDocs{docs: map[string]domain.Document{"at": docFor("at"), "below": docFor("below")}},
		&mockEmbedder{vec: []float32{1, 0, 0, 0}},
		1.0/2.0, 5, time.Second, zap.NewNop(),
	)

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "at" {
		t.Errorf("results = %+v, want only the above-threshold hit", results)
	}

	// A score exactly equal to minScore is excluded.
	svcEqual := New(
		&mockVectors{stored: []domain.StoredVector{{DocID: "x", Vector: []float32{1, 0}}}},
		&mockDocs{docs: map[string]domain.Document{"x": docFor("x")}},
		&mockEmbedder{vec: []float32{1, 0}},
		1.0, 5, time.Second, zap.NewNop(), // identical vectors score exactly 1.0
	)
	results, err = svcEqual.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("score == minScore must be excluded, got %+v", results)
	}
}

func TestSearch_TopKCap(t *testing.T) {
	stored := make([]domain.StoredVector, 0, 8)
	docMap := map[string]domain.Document{}
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, id := range ids {
		stored = append(stored, domain.StoredVector{DocID: id, Vector: []float32{1, 0}})
		docMap[id] = docFor(id)
	}
	svc := newService(&mockVectors{stored: stored}, &mockDocs{docs: docMap},
		&mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("got %d results, want the top-5 cap", len(results))
	}
	// Equal scores keep scan order (stable sort).
	for i, want := range ids[:5] {
		if results[i].ID != want {
			t.Errorf("result[%d] = %s, want %s", i, results[i].ID, want)
		}
	}
}

func TestSearch_EmptyQuerySkipsEmbedder(t *testing.T) {
	embedder := &mockEmbedder{vec: []float32{1, 0}}
	svc := newService(&mockVectors{}, &mockDocs{}, embedder)

	for _, q := range []string{"", "   ", "\n\t"} {
		results, err := svc.Search(context.Background(), q)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if results != nil {
			t.Errorf("Search(%q) = %v, want empty", q, results)
		}
	}
	if embedder.called {
		t.Error("embedder must not be called for blank queries")
	}
}

func TestSearch_EmbedderFailureYieldsEmptySet(t *testing.T) {
	svc := newService(
		&mockVectors{stored: []domain.StoredVector{{DocID: "a", Vector: []float32{1, 0}}}},
		&mockDocs{docs: map[string]domain.Document{"a": docFor("a")}},
		&mockEmbedder{err: domain.ErrEmbeddingUnavailable},
	)

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("embedding failure must not be an error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}

func TestSearch_DimensionMismatchIsFatal(t *testing.T) {
	svc := newService(
		&mockVectors{stored: []domain.StoredVector{{DocID: "a", Vector: []float32{1, 0, 0}}}},
		&mockDocs{},
		&mockEmbedder{vec: []float32{1, 0}},
	)

	_, err := svc.Search(context.Background(), "query")
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}
}

func TestSearch_HydrationSkipsMissingDocuments(t *testing.T) {
	svc := newService(
		&mockVectors{stored: []domain.StoredVector{
			{DocID: "kept", Vector: []float32{1, 0}},
			{DocID: "gone", Vector: []float32{1, 0}},
		}},
		&mockDocs{docs: map[string]domain.Document{"kept": docFor("kept")}},
		&mockEmbedder{vec: []float32{1, 0}},
	)

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "kept" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearch_StoreErrorsPropagate(t *testing.T) {
	t.Run("vector scan", func(t *testing.T) {
		svc := newService(&mockVectors{err: errors.New("redis down")}, &mockDocs{},
			&mockEmbedder{vec: []float32{1, 0}})
		if _, err := svc.Search(context.Background(), "query"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("hydration", func(t *testing.T) {
		svc := newService(
			&mockVectors{stored: []domain.StoredVector{{DocID: "a", Vector: []float32{1, 0}}}},
			&mockDocs{err: errors.New("db down")},
			&mockEmbedder{vec: []float32{1, 0}},
		)
		if _, err := svc.Search(context.Background(), "query"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestSearch_EmptyCorpus(t *testing.T) {
	svc := newService(&mockVectors{}, &mockDocs{}, &mockEmbedder{vec: []float32{1, 0}})

	results, err := svc.Search(context.Background(), "query")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v", results)
	}
}
