// Package retriever ranks stored documents against a query by embedding
// similarity.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

// Service embeds queries and ranks candidate documents by cosine similarity.
type Service struct {
	embedder   Embedder
	vectors    VectorReader
	dimensions int
	topK       int
	logger     *zap.Logger
}

// New creates a retriever service. dimensions is the embedding width used
// for the zero-vector fallback; topK bounds how many results Rank returns.
func New(embedder Embedder, vectors VectorReader, dimensions, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		embedder:   embedder,
		vectors:    vectors,
		dimensions: dimensions,
		topK:       topK,
		logger:     logger,
	}
}

// Embed vectorizes text. On provider failure it degrades to a zero vector
// instead of failing the request; the zero vector scores 0.0 against every
// candidate and so ranks last. The degradation is logged because it can
// silently exclude relevant documents.
func (s *Service) Embed(ctx context.Context, text string) []float32 {
	result, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("embedding failed, degrading to zero vector", zap.Error(err))
		return make([]float32, s.dimensions)
	}
	return result.Embedding
}

// Rank scores every stored document vector against the query vector and
// returns at most topK results sorted by score descending. Ties keep the
// original candidate order (stable sort). Rank positions are 1-based.
func (s *Service) Rank(ctx context.Context, queryVector []float32, topK int) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		topK = s.topK
	}

	candidates, err := s.vectors.Embeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load document vectors: %w", err)
	}

	results := make([]domain.RetrievalResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.RetrievalResult{
			DocumentID: c.DocumentID,
			Score:      cosineSimilarity(queryVector, c.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// Retrieve embeds the query and ranks all stored documents in one call.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	vec := s.Embed(ctx, query)
	return s.Rank(ctx, vec, topK)
}
