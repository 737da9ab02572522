package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/docgate/internal/domain"
)

func TestWrapLRU_DisabledReturnsInner(t *testing.T) {
	inner := &mockEmbedder{}
	if got := WrapLRU(inner, 0, time.Minute, nil); got != domain.Embedder(inner) {
		t.Fatal("expected inner for size 0")
	}
	if got := WrapLRU(inner, 10, 0, nil); got != domain.Embedder(inner) {
		t.Fatal("expected inner for ttl 0")
	}
}

func TestLRUEmbedder_HitSkipsInner(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 4}}
	e := WrapLRU(inner, 10, time.Minute, nil)

	first, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalTokens != 4 {
		t.Fatalf("expected tokens from inner on miss, got %d", first.TotalTokens)
	}

	second, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 inner call, got %d", inner.calls)
	}
	if second.TotalTokens != 0 || second.Embedding[1] != 0.2 {
		t.Fatalf("unexpected cached result %+v", second)
	}
}

func TestLRUEmbedder_ReturnsCopies(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 2}}}
	e := WrapLRU(inner, 10, time.Minute, nil)

	if _, err := e.Embed(context.Background(), "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := e.Embed(context.Background(), "k")
	got.Embedding[0] = 99

	again, _ := e.Embed(context.Background(), "k")
	if again.Embedding[0] != 1 {
		t.Fatalf("cache entry was mutated through a returned slice: %v", again.Embedding)
	}
}

func TestLRUEmbedder_ErrorNotCached(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("boom")}
	e := WrapLRU(inner, 10, time.Minute, nil).(*LRUEmbedder)

	if _, err := e.Embed(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
	if e.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", e.Len())
	}
}
