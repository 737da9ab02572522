package domain

// ChatConfig holds prompt and sampling settings for the chat flow.
// The model name belongs to the completer.
type ChatConfig struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	ContextTopK  int
}

// DefaultChatConfig returns the settings used against a local vLLM server.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		SystemPrompt: "You are a helpful assistant.",
		MaxTokens:    500,
		Temperature:  0.7,
		ContextTopK:  3,
	}
}

// DefaultTopK is the number of neighbours returned when a query omits top_k.
const DefaultTopK = 3
