package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/kailas-cloud/docgate/internal/db"
	"github.com/kailas-cloud/docgate/internal/domain"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.VectorIndex) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// Config describes the collection layout in Redis/Valkey.
type Config struct {
	Prefix     string // key namespace, e.g. "docgate:"
	Collection string
	Dimensions int
	Algorithm  db.VectorAlgorithm
	HNSW       HNSWConfig
}

// HNSWConfig holds HNSW tuning. Zero values fall back to server defaults.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo stores documents as hashes under a KNN index with cosine distance.
// Text is embedded on write and on query with the injected embedder.
type Repo struct {
	store    store
	embedder domain.Embedder
	cfg      Config
	seeded   atomic.Bool
}

// New creates a document repository.
func New(s store, emb domain.Embedder, cfg Config) *Repo {
	return &Repo{store: s, embedder: emb, cfg: cfg}
}

// EnsureIndex creates the collection index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	name := r.indexName()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(name, r.docPrefix(), r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Add embeds the document content and writes it under the given id.
func (r *Repo) Add(ctx context.Context, id string, doc domain.Document) error {
	fields, err := r.prepare(ctx, doc)
	if err != nil {
		return err
	}
	return r.write(ctx, id, fields)
}

// AddNext embeds the document, then takes doc_{n} from the sequence and
// writes it. Embedding and encoding failures leave the counter untouched.
// A failed HSET still consumes n; the next id then runs one ahead of the count.
func (r *Repo) AddNext(ctx context.Context, doc domain.Document) (string, error) {
	fields, err := r.prepare(ctx, doc)
	if err != nil {
		return "", err
	}
	n, err := r.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("next id: %w", err)
	}
	id := domain.DocumentID(n)
	if err := r.write(ctx, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repo) prepare(ctx context.Context, doc domain.Document) (map[string]string, error) {
	res, err := r.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("embed document: %w", err)
	}
	return buildHashFields(doc, res.Embedding)
}

func (r *Repo) write(ctx context.Context, id string, fields map[string]string) error {
	key := r.docPrefix() + id
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Query returns the topK nearest documents to text, nearest first.
func (r *Repo) Query(ctx context.Context, text string, topK int) (domain.QueryResult, error) {
	res, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("embed query: %w", err)
	}

	result, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Field:        db.DefaultVectorAlias,
		Vector:       res.Embedding,
		K:            topK,
		ReturnFields: []string{fieldContent, fieldMetadata, "__vector_score"},
	})
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("search %s: %w", r.cfg.Collection, err)
	}

	return toQueryResult(result), nil
}

// Count returns the number of documents in the collection.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName())
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", r.cfg.Collection, err)
	}
	return n, nil
}

// NextSequence returns the next document number from an atomic counter.
// The counter is seeded from the current count once, so ids continue
// after documents written before the counter existed.
func (r *Repo) NextSequence(ctx context.Context) (int64, error) {
	if !r.seeded.Load() {
		count, err := r.Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("seed sequence: %w", err)
		}
		if _, err := r.store.SetNX(ctx, r.seqKey(), []byte(strconv.Itoa(count))); err != nil {
			return 0, fmt.Errorf("seed sequence: %w", err)
		}
		r.seeded.Store(true)
	}

	n, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return 0, fmt.Errorf("incr sequence: %w", err)
	}
	return n, nil
}

func (r *Repo) indexName() string { return r.cfg.Prefix + r.cfg.Collection + ":idx" }
func (r *Repo) docPrefix() string { return r.cfg.Prefix + r.cfg.Collection + ":" }

// seqKey lives outside the document prefix so SCAN-based counts ignore it.
func (r *Repo) seqKey() string { return r.cfg.Prefix + "seq:" + r.cfg.Collection }

func buildIndex(name, prefix string, cfg Config) (*db.VectorIndex, error) {
	def := &db.VectorIndex{
		Name:      name,
		Prefix:    prefix,
		Field:     fieldVector,
		Alias:     db.DefaultVectorAlias,
		Dim:       cfg.Dimensions,
		Algorithm: cfg.Algorithm,
		Distance:  db.DistanceCosine,
	}
	if cfg.Algorithm != db.VectorFlat {
		def.M = cfg.HNSW.M
		def.EFConstruction = cfg.HNSW.EFConstruct
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return def, nil
}

func buildHashFields(doc domain.Document, vector []float32) (map[string]string, error) {
	meta := doc.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return map[string]string{
		fieldContent:  doc.Content,
		fieldMetadata: string(data),
		fieldVector:   db.VectorBlob(vector),
	}, nil
}
