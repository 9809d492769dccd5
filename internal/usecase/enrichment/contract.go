package enrichment

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Completer synthesizes collected source payloads into a unified profile.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// WebProvider supplies search results and page content for source lookups.
type WebProvider interface {
	Search(ctx context.Context, query string) []domain.WebResult
	FetchPage(ctx context.Context, pageURL string) (string, error)
}
