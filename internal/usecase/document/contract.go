package document

import (
	"context"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// Store is the vector store contract shared by the Redis/Valkey and Chroma backends.
type Store interface {
	Add(ctx context.Context, id string, doc domain.Document) error
	Query(ctx context.Context, text string, topK int) (domain.QueryResult, error)
	Count(ctx context.Context) (int, error)
}

// SequencedAdder numbers and writes a document in one call, backed by an
// atomic counter. Optional on Store. Implementations reserve the number only
// after every step that can fail before the write, so a rejected document
// does not consume an id.
type SequencedAdder interface {
	AddNext(ctx context.Context, doc domain.Document) (string, error)
}
