package sections

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Completer generates structured LLM output for splitting and summarizing.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
