// Package gemini implements the chat completion contract on the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/docgate/internal/domain"
	"github.com/kailas-cloud/docgate/internal/metrics"
)

const provider = "gemini"

// Config holds Gemini client settings.
type Config struct {
	APIKey  string
	BaseURL string // optional override, used by tests and proxies
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Completer sends a system instruction plus one user turn to GenerateContent.
type Completer struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewCompleter builds a Gemini API client once for the process lifetime.
func NewCompleter(ctx context.Context, cfg *Config) (*Completer, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Completer{client: client, model: cfg.Model, logger: cfg.Logger}, nil
}

// Complete implements domain.Completer.
func (c *Completer) Complete(ctx context.Context, req domain.Completion) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: int32(req.MaxTokens), //nolint:gosec // bounded by config validation
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		config,
	)
	duration := time.Since(start)

	if err != nil {
		metrics.ObserveChat(provider, c.model, duration.Seconds(), err)
		c.logger.Warn("Gemini request failed",
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return "", fmt.Errorf("gemini generate: %w: %w", domain.ErrCompletionProviderError, err)
	}

	if len(resp.Candidates) == 0 {
		metrics.ObserveChat(provider, c.model, duration.Seconds(), domain.ErrEmptyCompletion)
		return "", fmt.Errorf("gemini generate: %w", domain.ErrEmptyCompletion)
	}

	metrics.ObserveChat(provider, c.model, duration.Seconds(), nil)
	if u := resp.UsageMetadata; u != nil {
		metrics.AddChatTokens(provider, c.model, int(u.PromptTokenCount), int(u.CandidatesTokenCount))
	}

	return resp.Text(), nil
}
