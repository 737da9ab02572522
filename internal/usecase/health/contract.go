package health

import "context"

// Pinger checks vector store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker verifies that an upstream model endpoint answers.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DocumentCounter reports how many documents are stored.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}
