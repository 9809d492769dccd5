package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// Message is one chat-completion message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest holds the parameters of one chat-completion call.
// JSONOutput requests a schema-constrained JSON object response.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSONOutput  bool
}

// CompletionResult carries the completion text and token usage.
type CompletionResult struct {
	Content      string
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared chat-completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// HealthChecker verifies LLM provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
