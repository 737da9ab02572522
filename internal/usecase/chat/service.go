package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/domain"
	"github.com/kailas-cloud/docgate/internal/logger"
)

// Reply is the model answer plus the context string it was grounded on.
// ContextUsed is nil when retrieval was not requested.
type Reply struct {
	Response    string
	ContextUsed *string
}

// Service answers a message, optionally grounded on retrieved documents.
type Service struct {
	retriever Retriever
	completer domain.Completer
	cfg       domain.ChatConfig
}

// New creates a chat service. Zero fields in cfg take DefaultChatConfig values.
func New(r Retriever, c domain.Completer, cfg domain.ChatConfig) *Service {
	def := domain.DefaultChatConfig()
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = def.SystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.ContextTopK <= 0 {
		cfg.ContextTopK = def.ContextTopK
	}
	return &Service{retriever: r, completer: c, cfg: cfg}
}

// Chat runs retrieval (when useContext is set), builds the prompt and calls the model once.
func (s *Service) Chat(ctx context.Context, message string, useContext bool) (Reply, error) {
	var contextText string
	if useContext {
		res, err := s.retriever.Query(ctx, message, s.cfg.ContextTopK)
		if err != nil {
			return Reply{}, fmt.Errorf("retrieve context: %w", err)
		}
		contextText = strings.Join(res.Documents, "\n\n")
		logger.FromContext(ctx).Debug("Chat context retrieved",
			zap.Int("documents", res.Len()),
			zap.Int("context_bytes", len(contextText)),
		)
	}

	answer, err := s.completer.Complete(ctx, domain.Completion{
		System:      s.cfg.SystemPrompt,
		Prompt:      BuildPrompt(contextText, message),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("complete: %w", err)
	}

	reply := Reply{Response: answer}
	if useContext {
		reply.ContextUsed = &contextText
	}
	return reply, nil
}

// BuildPrompt wraps message in the grounding template when contextText is non-empty.
func BuildPrompt(contextText, message string) string {
	if contextText == "" {
		return message
	}
	return "Based on the following context, answer the question.\n\n" +
		"Context:\n" + contextText + "\n\n" +
		"Question: " + message + "\nAnswer:"
}
