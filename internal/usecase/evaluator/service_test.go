package evaluator

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

type mockCompleter struct {
	response string
	err      error
}

func (m *mockCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Content: m.response}, nil
}

type mockHistory struct {
	records []domain.EvaluationRecord
	err     error
}

func (m *mockHistory) Append(_ context.Context, rec domain.EvaluationRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append([]domain.EvaluationRecord{rec}, m.records...)
	return nil
}

func (m *mockHistory) Recent(_ context.Context, n int) ([]domain.EvaluationRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.records) {
		n = len(m.records)
	}
	return m.records[:n], nil
}

func recordWithOveralls(ret, gen float64) domain.EvaluationRecord {
	return domain.EvaluationRecord{
		Retriever: domain.RetrieverScores{Overall: ret},
		Generator: domain.GeneratorScores{Overall: gen},
	}
}

func TestEvaluateRetriever_ParsesVerdict(t *testing.T) {
	mc := &mockCompleter{response: `{"retriever_scores": {"relevance": 8, "coverage": 7, "precision": 9, "completeness": 6, "overall": 7.5}, "issues": ["narrow coverage"], "recommendations": ["widen top_k"]}`}
	svc := New(mc, &mockHistory{}, zap.NewNop())

	scores, issues, recs := svc.EvaluateRetriever(context.Background(), "q", nil)
	if scores.Overall != 7.5 {
		t.Errorf("Overall = %v, want 7.5", scores.Overall)
	}
	if len(issues) != 1 || issues[0] != "narrow coverage" {
		t.Errorf("issues = %v", issues)
	}
	if len(recs) != 1 || recs[0] != "widen top_k" {
		t.Errorf("recommendations = %v", recs)
	}
}

func TestEvaluateRetriever_FailureUsesNeutralScores(t *testing.T) {
	mc := &mockCompleter{err: errors.New("judge unavailable")}
	svc := New(mc, &mockHistory{}, zap.NewNop())

	scores, issues, _ := svc.EvaluateRetriever(context.Background(), "q", nil)
	if scores != domain.NeutralRetrieverScores() {
		t.Errorf("scores = %+v, want neutral", scores)
	}
	if len(issues) != 1 || issues[0] != "evaluation error" {
		t.Errorf("issues = %v", issues)
	}
}

func TestEvaluateGenerator_MalformedVerdictUsesNeutralScores(t *testing.T) {
	mc := &mockCompleter{response: "not json at all"}
	svc := New(mc, &mockHistory{}, zap.NewNop())

	scores, issues, _ := svc.EvaluateGenerator(context.Background(), "q", "a", "ctx")
	if scores != domain.NeutralGeneratorScores() {
		t.Errorf("scores = %+v, want neutral", scores)
	}
	if len(issues) != 1 || issues[0] != "evaluation error" {
		t.Errorf("issues = %v", issues)
	}
}

func TestDetectRegression_EmptyHistoryNeverFlags(t *testing.T) {
	report := DetectRegression(recordWithOveralls(0, 0), nil)
	if report.HasRegression {
		t.Error("empty history must not report a regression")
	}
}

func TestDetectRegression_StrictThreshold(t *testing.T) {
	history := []domain.EvaluationRecord{
		recordWithOveralls(8, 8),
		recordWithOveralls(8, 8),
	}

	// Exactly 80% of the baseline is not a regression.
	report := DetectRegression(recordWithOveralls(6.4, 6.4), history)
	if report.HasRegression {
		t.Errorf("score at exactly 0.8x baseline flagged: %+v", report)
	}

	report = DetectRegression(recordWithOveralls(6.39, 6.39), history)
	if !report.RetrieverRegression || !report.GeneratorRegression {
		t.Errorf("score below 0.8x baseline not flagged: %+v", report)
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations for a flagged regression")
	}
}

func TestDetectRegression_UsesAtMostTenRecords(t *testing.T) {
	history := make([]domain.EvaluationRecord, 0, 12)
	for i := 0; i < 10; i++ {
		history = append(history, recordWithOveralls(9, 9))
	}
	// Older records beyond the window would drag the baseline down.
	history = append(history, recordWithOveralls(1, 1), recordWithOveralls(1, 1))

	report := DetectRegression(recordWithOveralls(7, 7), history)
	if report.RetrieverBaseline != 9 {
		t.Errorf("RetrieverBaseline = %v, want 9", report.RetrieverBaseline)
	}
	if !report.HasRegression {
		t.Error("7 against baseline 9 should flag a regression")
	}
}

func TestDetectRegression_RetrieverOnlyRecommendations(t *testing.T) {
	history := []domain.EvaluationRecord{recordWithOveralls(9, 5)}

	report := DetectRegression(recordWithOveralls(5, 5), history)
	if !report.RetrieverRegression || report.GeneratorRegression {
		t.Fatalf("expected retriever-only regression: %+v", report)
	}
	if len(report.Recommendations) != 3 {
		t.Errorf("recommendations = %v", report.Recommendations)
	}
}

func TestSuggestImprovements(t *testing.T) {
	svc := New(&mockCompleter{}, &mockHistory{}, zap.NewNop())

	ret := domain.RetrieverScores{Relevance: 6, Coverage: 8, Precision: 5, Completeness: 9, Overall: 7}
	gen := domain.GeneratorScores{Accuracy: 9, Relevance: 8, Completeness: 8, Clarity: 6, Fidelity: 8, Overall: 8}

	got := svc.SuggestImprovements(ret, gen)
	if len(got) != 3 {
		t.Fatalf("suggestions = %v", got)
	}
}

func TestEvaluate_PersistsRecord(t *testing.T) {
	mc := &mockCompleter{response: `{"retriever_scores": {"overall": 8}, "generator_scores": {"overall": 8}}`}
	hist := &mockHistory{}
	svc := New(mc, hist, zap.NewNop())

	rec, report, err := svc.Evaluate(context.Background(), "q", "a", "ctx", nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rec.ID == "" {
		t.Error("record should carry an ID")
	}
	if report.HasRegression {
		t.Error("first record should not regress")
	}
	if len(hist.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(hist.records))
	}
}
