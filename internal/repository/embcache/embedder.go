// Package embcache puts two cache tiers in front of an embedding provider:
// a shared key-value tier in Redis/Valkey and an in-process LRU.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/db"
	"github.com/kailas-cloud/docgate/internal/domain"
)

const (
	tierStore  = "store"
	tierMemory = "memory"
)

// store is the slice of db.KVStore the cache needs.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Options configure the store tier.
type Options struct {
	Prefix     string // key namespace; entries live under "{Prefix}emb_cache:"
	Model      string
	Dimensions int           // requested output size, part of the key; 0 means provider default
	TTL        time.Duration // zero keeps entries forever
}

// CachedEmbedder serves embeddings from the store tier and falls through to
// the provider on a miss. Entries are little-endian float32 arrays keyed by
// sha256 of model, dimensions and text.
type CachedEmbedder struct {
	inner   domain.Embedder
	kv      store
	opts    Options
	ns      string
	lookups *prometheus.CounterVec
	logger  *zap.Logger
}

// New wraps inner. lookups may be nil; when set it is labelled by tier and result.
func New(
	inner domain.Embedder,
	kv store,
	opts Options,
	lookups *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:   inner,
		kv:      kv,
		opts:    opts,
		ns:      opts.Prefix + "emb_cache:",
		lookups: lookups,
		logger:  logger,
	}
}

// Embed implements domain.Embedder. A hit reports zero tokens since the
// provider was not called.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.load(ctx, key); ok {
		countLookup(c.lookups, tierStore, true)
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	countLookup(c.lookups, tierStore, false)

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.save(ctx, key, res.Embedding)
	return res, nil
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.opts.Model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(c.opts.Dimensions)))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return c.ns + hex.EncodeToString(h.Sum(nil))
}

// load treats every failure as a miss; the provider is the source of truth.
func (c *CachedEmbedder) load(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(data) == 0:
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Dropping unreadable embedding cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if c.opts.Dimensions > 0 && len(vec) != c.opts.Dimensions {
		c.logger.Warn("Dropping embedding cache entry with wrong size",
			zap.String("key", key), zap.Int("got", len(vec)), zap.Int("want", c.opts.Dimensions))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	data := encodeVector(vec)
	var err error
	if c.opts.TTL > 0 {
		err = c.kv.SetWithTTL(ctx, key, data, c.opts.TTL)
	} else {
		err = c.kv.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func countLookup(lookups *prometheus.CounterVec, tier string, hit bool) {
	if lookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	lookups.WithLabelValues(tier, result).Inc()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached embedding is %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
