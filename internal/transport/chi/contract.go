package chi

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
	chatuc "github.com/bna-dev/prospector/internal/usecase/chat"
	healthuc "github.com/bna-dev/prospector/internal/usecase/health"
)

// Ingestor turns a URL into a stored document.
type Ingestor interface {
	Ingest(ctx context.Context, rawURL string) (domain.Document, error)
}

// DocumentStore is the read/delete surface over stored documents.
// Entity writes stay here too: the enrich handler owns the merge.
type DocumentStore interface {
	Get(ctx context.Context, id string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
	Delete(ctx context.Context, id string) error
	UpdateEntities(ctx context.Context, id string, entities map[string]string) error
}

// Enricher aggregates external sources into a company profile.
type Enricher interface {
	Enrich(ctx context.Context, company, companyDomain string) domain.EnrichmentResult
}

// ChatService answers questions and manages conversation history.
type ChatService interface {
	Ask(ctx context.Context, req chatuc.Request) (chatuc.Response, error)
	History(ctx context.Context, limit int) ([]domain.ConversationTurn, error)
	ClearHistory(ctx context.Context) error
}

// Evaluator scores pipeline runs and serves the evaluation history.
type Evaluator interface {
	Evaluate(ctx context.Context, query, answer, assembledContext string, selected []domain.SelectedSection) (domain.EvaluationRecord, domain.RegressionReport, error)
	Recent(ctx context.Context, n int) ([]domain.EvaluationRecord, error)
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
