package ingest

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// PageFetcher retrieves cleaned page text for a URL.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Completer runs the page analysis prompt.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// Embedder produces the document's retrieval vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// DocumentWriter persists analyzed documents.
type DocumentWriter interface {
	Save(ctx context.Context, doc *domain.Document, embedding []float32) (bool, error)
}
