package domain

import "context"

// Completion is a single system + user exchange sent to a chat model.
type Completion struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Completer produces the model's reply text for a completion request.
type Completer interface {
	Complete(ctx context.Context, c Completion) (string, error)
}
