// Package ingest turns a URL into a stored, retrievable document.
// Unlike the chat path, ingestion surfaces failures: a document only
// exists after a successful fetch and analysis.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
	"github.com/bna-dev/prospector/internal/textutil"
)

const (
	analyzeTemperature = 0.3
	analyzeMaxTokens   = 800
)

type analysis struct {
	Title     string            `json:"title"`
	Summary   string            `json:"summary"`
	KeyPoints []string          `json:"key_points"`
	Entities  map[string]string `json:"entities"`
}

// Service fetches, analyzes, and persists company pages.
type Service struct {
	fetcher   PageFetcher
	completer Completer
	embedder  Embedder
	docs      DocumentWriter
	logger    *zap.Logger
}

func New(fetcher PageFetcher, completer Completer, embedder Embedder, docs DocumentWriter, logger *zap.Logger) *Service {
	return &Service{fetcher: fetcher, completer: completer, embedder: embedder, docs: docs, logger: logger}
}

const analyzeSystem = `You are a company analyst. Analyze the page content and respond with JSON only:
{"title": "page or company title", "summary": "summary of at most 150 words", "key_points": ["point"], "entities": {"company_name": "...", "sector": "...", "product": "..."}}
Include only entity keys the content supports.`

// Ingest fetches the URL, analyzes it with the language model, and
// stores the resulting document with its retrieval embedding.
func (s *Service) Ingest(ctx context.Context, rawURL string) (domain.Document, error) {
	if rawURL == "" {
		return domain.Document{}, fmt.Errorf("url is required: %w", domain.ErrInvalidRequest)
	}
	pageURL := textutil.FormatURL(rawURL)

	content, err := s.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return domain.Document{}, fmt.Errorf("fetch page: %w", err)
	}

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      analyzeSystem,
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: content}},
		Temperature: analyzeTemperature,
		MaxTokens:   analyzeMaxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("analyze page: %w", err)
	}

	var parsed analysis
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil {
		return domain.Document{}, fmt.Errorf("parse analysis: %v: %w", err, domain.ErrMalformedPayload)
	}

	doc, err := domain.NewDocument(
		uuid.NewString(),
		pageURL,
		textutil.FormatTitle(parsed.Title),
		content,
		textutil.FormatSummary(parsed.Summary),
		textutil.FormatKeyPoints(parsed.KeyPoints),
		parsed.Entities,
	)
	if err != nil {
		return domain.Document{}, err
	}

	// The embed both warms the cache and yields the stored vector.
	// A document without a vector is still stored; it simply will not
	// rank until re-embedded.
	var embedding []float32
	if embRes, err := s.embedder.Embed(ctx, doc.RetrievalText()); err != nil {
		s.logger.Warn("retrieval embedding failed during ingest",
			zap.String("document_id", doc.ID),
			zap.Error(err))
	} else {
		embedding = embRes.Embedding
	}

	if _, err := s.docs.Save(ctx, &doc, embedding); err != nil {
		return domain.Document{}, fmt.Errorf("save document: %w", err)
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.String("url", doc.URL),
		zap.Int("key_points", len(doc.KeyPoints)))
	return doc, nil
}
