package chroma

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// embeddingFunction exposes a domain.Embedder as a Chroma embedding function,
// so the collection never falls back to the client's bundled default model.
type embeddingFunction struct {
	embedder domain.Embedder
}

var _ embeddings.EmbeddingFunction = (*embeddingFunction)(nil)

func newEmbeddingFunction(emb domain.Embedder) *embeddingFunction {
	return &embeddingFunction{embedder: emb}
}

// EmbedDocuments embeds each text in order.
func (f *embeddingFunction) EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	out := make([]embeddings.Embedding, 0, len(texts))
	for i, text := range texts {
		emb, err := f.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed document %d: %w", i, err)
		}
		out = append(out, emb)
	}
	return out, nil
}

// EmbedQuery embeds a single text.
func (f *embeddingFunction) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	res, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbeddingFromFloat32(res.Embedding), nil
}
