package evaluator

import (
	"context"

	"github.com/bna-dev/prospector/internal/domain"
)

// Completer produces judge verdicts for quality scoring.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// HistoryWriter persists evaluation records for trend analysis.
type HistoryWriter interface {
	Append(ctx context.Context, rec domain.EvaluationRecord) error
	Recent(ctx context.Context, n int) ([]domain.EvaluationRecord, error)
}
