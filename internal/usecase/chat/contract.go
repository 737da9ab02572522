package chat

import (
	"context"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// Retriever finds documents related to a question.
type Retriever interface {
	Query(ctx context.Context, question string, topK int) (domain.QueryResult, error)
}
