package retriever

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// VectorReader reads stored document embeddings for ranking.
type VectorReader interface {
	Embeddings(ctx context.Context) ([]domain.DocumentVector, error)
}
