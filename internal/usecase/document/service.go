package document

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/docgate/internal/domain"
)

// IDStrategy selects how the n in doc_{n} is chosen.
type IDStrategy string

const (
	// IDSequence uses the store's atomic counter, or a local lock when the store has none.
	IDSequence IDStrategy = "sequence"
	// IDCount uses count+1 without coordination. Concurrent adds can collide.
	IDCount IDStrategy = "count"
)

// ParseIDStrategy maps a config value to an IDStrategy. Empty means IDSequence.
func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(s) {
	case "", IDSequence:
		return IDSequence, nil
	case IDCount:
		return IDCount, nil
	default:
		return "", fmt.Errorf("unknown id strategy %q", s)
	}
}

// Service adds, queries and counts documents.
type Service struct {
	store    Store
	strategy IDStrategy
	mu       sync.Mutex
}

// New creates a document service.
func New(store Store, strategy IDStrategy) *Service {
	if strategy == "" {
		strategy = IDSequence
	}
	return &Service{store: store, strategy: strategy}
}

// Add assigns doc_{n} and writes the document. Returns the assigned id.
func (s *Service) Add(ctx context.Context, doc domain.Document) (string, error) {
	if err := domain.ValidateMetadata(doc.Metadata); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	if s.strategy == IDCount {
		return s.addAfterCount(ctx, doc)
	}

	if seq, ok := s.store.(SequencedAdder); ok {
		id, err := seq.AddNext(ctx, doc)
		if err != nil {
			return "", fmt.Errorf("add document: %w", err)
		}
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addAfterCount(ctx, doc)
}

// Query returns up to topK nearest documents for question.
func (s *Service) Query(ctx context.Context, question string, topK int) (domain.QueryResult, error) {
	res, err := s.store.Query(ctx, question, topK)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("query documents: %w", err)
	}
	return res, nil
}

// Count returns the number of stored documents.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (s *Service) addAfterCount(ctx context.Context, doc domain.Document) (string, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count documents: %w", err)
	}
	return s.write(ctx, domain.DocumentID(int64(n)+1), doc)
}

func (s *Service) write(ctx context.Context, id string, doc domain.Document) (string, error) {
	if err := s.store.Add(ctx, id, doc); err != nil {
		return "", fmt.Errorf("add document %s: %w", id, err)
	}
	return id, nil
}
