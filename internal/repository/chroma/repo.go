// Package chroma stores documents in a Chroma collection over its HTTP v2 API.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// The client exports no constant for distances.
const includeDistances chromago.Include = "distances"

// Config locates the Chroma server and collection.
type Config struct {
	URL        string
	Collection string
}

// Repo adds, queries and counts documents in one cosine-space collection.
// Vectors come from the injected embedder so both backends share one embedding model.
type Repo struct {
	client     chromago.Client
	collection chromago.Collection
	embed      *embeddingFunction
}

// New connects to Chroma and opens (or creates) the collection with cosine distance.
func New(ctx context.Context, cfg Config, emb domain.Embedder) (*Repo, error) {
	var opts []chromago.ClientOption
	if cfg.URL != "" {
		opts = append(opts, chromago.WithBaseURL(cfg.URL))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("chroma client: %w", err)
	}

	ef := newEmbeddingFunction(emb)
	col, err := client.GetOrCreateCollection(ctx, cfg.Collection,
		chromago.WithEmbeddingFunctionCreate(ef),
		chromago.WithHNSWSpaceCreate(embeddings.COSINE),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get or create collection %s: %w", cfg.Collection, err)
	}

	return &Repo{client: client, collection: col, embed: ef}, nil
}

// Close releases the client.
func (r *Repo) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close chroma client: %w", err)
	}
	return nil
}

// Ping checks the server heartbeat.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("chroma heartbeat: %w", err)
	}
	return nil
}

// Add embeds the content and inserts it under id.
func (r *Repo) Add(ctx context.Context, id string, doc domain.Document) error {
	vec, err := r.embed.EmbedQuery(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	attrs, err := toAttributes(doc.Metadata)
	if err != nil {
		return err
	}

	opts := []chromago.CollectionAddOption{
		chromago.WithIDs(chromago.DocumentID(id)),
		chromago.WithTexts(doc.Content),
		chromago.WithEmbeddings(vec),
	}
	if len(attrs) > 0 {
		opts = append(opts, chromago.WithMetadatas(chromago.NewDocumentMetadata(attrs...)))
	}

	if err := r.collection.Add(ctx, opts...); err != nil {
		return fmt.Errorf("chroma add %s: %w", id, err)
	}
	return nil
}

// Query returns the topK nearest documents to text.
func (r *Repo) Query(ctx context.Context, text string, topK int) (domain.QueryResult, error) {
	vec, err := r.embed.EmbedQuery(ctx, text)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("embed query: %w", err)
	}

	results, err := r.collection.Query(ctx,
		chromago.WithQueryEmbeddings(vec),
		chromago.WithNResults(topK),
		chromago.WithIncludeQuery(chromago.IncludeDocuments, chromago.IncludeMetadatas, includeDistances),
	)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("chroma query: %w", err)
	}

	out := domain.QueryResult{
		Documents: []string{},
		Metadatas: []map[string]any{},
		Distances: []float64{},
	}

	docGroups := results.GetDocumentsGroups()
	if len(docGroups) == 0 {
		return out, nil
	}
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()

	for i, doc := range docGroups[0] {
		out.Documents = append(out.Documents, doc.ContentString())

		var meta chromago.DocumentMetadata
		if len(metaGroups) > 0 && i < len(metaGroups[0]) {
			meta = metaGroups[0][i]
		}
		out.Metadatas = append(out.Metadatas, metadataToMap(meta))

		var dist float64
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			dist = float64(distGroups[0][i])
		}
		out.Distances = append(out.Distances, dist)
	}
	return out, nil
}

// Count returns the number of documents in the collection.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("chroma count: %w", err)
	}
	return int(n), nil
}

// toAttributes converts scalar metadata into Chroma attributes.
func toAttributes(m map[string]any) ([]*chromago.MetaAttribute, error) {
	attrs := make([]*chromago.MetaAttribute, 0, len(m))
	for k, v := range m {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, chromago.NewStringAttribute(k, val))
		case bool:
			attrs = append(attrs, chromago.NewBoolAttribute(k, val))
		case int:
			attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
		case int64:
			attrs = append(attrs, chromago.NewIntAttribute(k, val))
		case float32:
			attrs = append(attrs, chromago.NewFloatAttribute(k, float64(val)))
		case float64:
			if val == float64(int64(val)) {
				attrs = append(attrs, chromago.NewIntAttribute(k, int64(val)))
			} else {
				attrs = append(attrs, chromago.NewFloatAttribute(k, val))
			}
		default:
			return nil, fmt.Errorf("%w: key %q has type %T", domain.ErrInvalidMetadata, k, v)
		}
	}
	return attrs, nil
}

// metadataToMap flattens Chroma metadata through its JSON form.
func metadataToMap(meta chromago.DocumentMetadata) map[string]any {
	out := map[string]any{}
	if meta == nil {
		return out
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}
