package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/domain"
	"github.com/kailas-cloud/docgate/internal/metrics"
)

// Completer sends chat completions to an OpenAI-compatible server such as vLLM.
type Completer struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// CompleterConfig holds the chat provider settings.
type CompleterConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewCompleter creates a chat completion client.
func NewCompleter(cfg *CompleterConfig) *Completer {
	return &Completer{
		client:   newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.Completer. It returns the first choice's message content.
func (c *Completer) Complete(ctx context.Context, req domain.Completion) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveChat(c.provider, c.model, duration.Seconds(), err)
		c.logger.Warn("Chat completion failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", parseAPIError("chat", err, domain.ErrCompletionProviderError)
	}

	if len(resp.Choices) == 0 {
		metrics.ObserveChat(c.provider, c.model, duration.Seconds(), domain.ErrEmptyCompletion)
		return "", fmt.Errorf("chat completion: %w", domain.ErrEmptyCompletion)
	}

	metrics.ObserveChat(c.provider, c.model, duration.Seconds(), nil)
	metrics.AddChatTokens(c.provider, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies the model server via ListModels.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
