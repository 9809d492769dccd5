package generator

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Completer produces the final answer text.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
