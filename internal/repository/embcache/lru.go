package embcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// LRUEmbedder keeps recent embeddings in process memory in front of inner.
type LRUEmbedder struct {
	inner      domain.Embedder
	cache      *expirable.LRU[string, []float32]
	cacheTotal *prometheus.CounterVec
}

// WrapLRU returns inner unchanged when size or ttl is not positive.
func WrapLRU(inner domain.Embedder, size int, ttl time.Duration, cacheTotal *prometheus.CounterVec) domain.Embedder {
	if inner == nil || size <= 0 || ttl <= 0 {
		return inner
	}
	return &LRUEmbedder{
		inner:      inner,
		cache:      expirable.NewLRU[string, []float32](size, nil, ttl),
		cacheTotal: cacheTotal,
	}
}

// Embed returns a copy of the cached vector or embeds and remembers the result.
func (l *LRUEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if cached, ok := l.cache.Get(text); ok {
		countLookup(l.cacheTotal, tierMemory, true)
		return domain.EmbeddingResult{Embedding: cloneEmbedding(cached)}, nil
	}
	countLookup(l.cacheTotal, tierMemory, false)

	res, err := l.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	l.cache.Add(text, cloneEmbedding(res.Embedding))
	return res, nil
}

// Len reports the number of cached entries.
func (l *LRUEmbedder) Len() int { return l.cache.Len() }

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
