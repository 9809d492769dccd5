package chat

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Retriever ranks stored documents against a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievalResult, error)
}

// DocumentReader loads ranked documents for processing.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domain.Document, error)
}

// SectionProcessor splits and summarizes one document.
type SectionProcessor interface {
	Process(ctx context.Context, doc *domain.Document) (domain.ProcessedDocument, error)
}

// SectionSelector picks the most query-relevant sections.
type SectionSelector interface {
	Select(ctx context.Context, query string, processed []domain.ProcessedDocument) []domain.SelectedSection
}

// WebProvider supplies live web evidence.
type WebProvider interface {
	Search(ctx context.Context, query string) []domain.WebResult
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Generator produces the final answer. Its contract is non-throwing.
type Generator interface {
	Generate(ctx context.Context, question, assembledContext string, history []domain.ConversationTurn) string
}

// HistoryStore persists conversation turns, newest first on reads.
type HistoryStore interface {
	Append(ctx context.Context, turn domain.ConversationTurn) error
	Recent(ctx context.Context, n int) ([]domain.ConversationTurn, error)
	Clear(ctx context.Context) error
}
