package document

import (
	"context"
	"strconv"
	"testing"

	"github.com/kailas-cloud/docgate/internal/db"
	"github.com/kailas-cloud/docgate/internal/domain"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	createIndexFn func(ctx context.Context, def *db.VectorIndex) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index string) (int, error)

	kv map[string]int64
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) SetNX(_ context.Context, key string, value []byte) (bool, error) {
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	n, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return false, err
	}
	m.kv[key] = n
	return true, nil
}

func (m *mockStore) Incr(_ context.Context, key string) (int64, error) {
	m.kv[key]++
	return m.kv[key], nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.VectorIndex) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index)
	}
	return 0, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vector, TotalTokens: 3}, nil
}

func testConfig() Config {
	return Config{
		Prefix:     "docgate:",
		Collection: "documents",
		Dimensions: 4,
		Algorithm:  db.VectorHNSW,
		HNSW:       HNSWConfig{M: 16, EFConstruct: 200},
	}
}

func newTestRepo(t *testing.T) (*Repo, *mockStore, *stubEmbedder) {
	t.Helper()
	ms := &mockStore{kv: map[string]int64{}}
	emb := &stubEmbedder{vector: []float32{0.1, 0.2, 0.3, 0.4}}
	return New(ms, emb, testConfig()), ms, emb
}
