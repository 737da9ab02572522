package chi

import (
	"context"

	"github.com/kailas-cloud/docgate/internal/domain"
	chatuc "github.com/kailas-cloud/docgate/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/docgate/internal/usecase/health"
)

// DocumentService is the document use case consumed by the HTTP layer.
type DocumentService interface {
	Add(ctx context.Context, doc domain.Document) (string, error)
	Query(ctx context.Context, question string, topK int) (domain.QueryResult, error)
}

// ChatService is the chat use case consumed by the HTTP layer.
type ChatService interface {
	Chat(ctx context.Context, message string, useContext bool) (chatuc.Reply, error)
}

// HealthService is the health use case consumed by the HTTP layer.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
	Status(ctx context.Context) (healthuc.Summary, error)
}
