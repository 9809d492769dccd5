package selector

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Completer generates the structured section selection.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
