// Package evaluator scores pipeline runs with an LLM judge and tracks
// quality trends across a rolling history of records.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	judgeTemperature = 0.2
	judgeMaxTokens   = 500
	regressionWindow = 10
	regressionFactor = 0.8
	suggestThreshold = 7
	evaluationErrTag = "evaluation error"
)

// Service runs LLM-as-judge evaluations and regression detection.
type Service struct {
	completer Completer
	history   HistoryWriter
	logger    *zap.Logger

	mu sync.Mutex
}

func New(completer Completer, history HistoryWriter, logger *zap.Logger) *Service {
	return &Service{completer: completer, history: history, logger: logger}
}

type retrieverVerdict struct {
	Scores          domain.RetrieverScores `json:"retriever_scores"`
	Issues          []string               `json:"issues"`
	Recommendations []string               `json:"recommendations"`
}

type generatorVerdict struct {
	Scores          domain.GeneratorScores `json:"generator_scores"`
	Issues          []string               `json:"issues"`
	Recommendations []string               `json:"recommendations"`
}

const retrieverJudgeSystem = `You are a strict evaluation judge for a retrieval system.
Score the selected sections against the user query on a 0-10 scale per axis.
Respond with JSON only: {"retriever_scores": {"relevance": n, "coverage": n, "precision": n, "completeness": n, "overall": n}, "issues": [...], "recommendations": [...]}`

const generatorJudgeSystem = `You are a strict evaluation judge for a question answering system.
Score the answer against the query and the provided context on a 0-10 scale per axis.
Respond with JSON only: {"generator_scores": {"accuracy": n, "relevance": n, "completeness": n, "clarity": n, "fidelity": n, "overall": n}, "issues": [...], "recommendations": [...]}`

// EvaluateRetriever scores section selection quality. Judge failures degrade
// to neutral scores so evaluation never blocks the pipeline.
func (s *Service) EvaluateRetriever(ctx context.Context, query string, selected []domain.SelectedSection) (domain.RetrieverScores, []string, []string) {
	var sb strings.Builder
	for i, sel := range selected {
		fmt.Fprintf(&sb, "[%d] doc=%s section=%q score=%.2f\n", i+1, sel.DocumentID, sel.SectionTitle, sel.RelevanceScore)
	}

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System: retrieverJudgeSystem,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: fmt.Sprintf("QUERY: %s\n\nSELECTED SECTIONS:\n%s", query, sb.String())},
		},
		Temperature: judgeTemperature,
		MaxTokens:   judgeMaxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		s.logger.Warn("retriever evaluation failed, using neutral scores", zap.Error(err))
		return domain.NeutralRetrieverScores(), []string{evaluationErrTag}, nil
	}

	var verdict retrieverVerdict
	if err := json.Unmarshal([]byte(result.Content), &verdict); err != nil {
		s.logger.Warn("retriever verdict unparseable, using neutral scores", zap.Error(err))
		return domain.NeutralRetrieverScores(), []string{evaluationErrTag}, nil
	}
	return verdict.Scores, verdict.Issues, verdict.Recommendations
}

// EvaluateGenerator scores answer quality against the assembled context.
func (s *Service) EvaluateGenerator(ctx context.Context, query, answer, assembledContext string) (domain.GeneratorScores, []string, []string) {
	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System: generatorJudgeSystem,
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: fmt.Sprintf("QUERY: %s\n\nANSWER:\n%s\n\nCONTEXT:\n%s", query, answer, assembledContext)},
		},
		Temperature: judgeTemperature,
		MaxTokens:   judgeMaxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		s.logger.Warn("generator evaluation failed, using neutral scores", zap.Error(err))
		return domain.NeutralGeneratorScores(), []string{evaluationErrTag}, nil
	}

	var verdict generatorVerdict
	if err := json.Unmarshal([]byte(result.Content), &verdict); err != nil {
		s.logger.Warn("generator verdict unparseable, using neutral scores", zap.Error(err))
		return domain.NeutralGeneratorScores(), []string{evaluationErrTag}, nil
	}
	return verdict.Scores, verdict.Issues, verdict.Recommendations
}

// Evaluate runs both judges, persists the record, and reports regressions
// against the rolling baseline.
func (s *Service) Evaluate(ctx context.Context, query, answer, assembledContext string, selected []domain.SelectedSection) (domain.EvaluationRecord, domain.RegressionReport, error) {
	retScores, retIssues, retRecs := s.EvaluateRetriever(ctx, query, selected)
	genScores, genIssues, genRecs := s.EvaluateGenerator(ctx, query, answer, assembledContext)

	rec := domain.EvaluationRecord{
		ID:              uuid.NewString(),
		Query:           query,
		Retriever:       retScores,
		Generator:       genScores,
		Issues:          append(retIssues, genIssues...),
		Recommendations: append(append(retRecs, genRecs...), s.SuggestImprovements(retScores, genScores)...),
		CreatedAt:       time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior, err := s.history.Recent(ctx, regressionWindow)
	if err != nil {
		s.logger.Warn("evaluation history unavailable, skipping regression check", zap.Error(err))
		prior = nil
	}
	report := DetectRegression(rec, prior)

	if err := s.history.Append(ctx, rec); err != nil {
		return rec, report, fmt.Errorf("append evaluation record: %w", err)
	}
	return rec, report, nil
}

// Recent returns the most recent evaluation records, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]domain.EvaluationRecord, error) {
	return s.history.Recent(ctx, n)
}

// DetectRegression flags a run whose overall score drops strictly below
// 80% of the mean over up to the last ten records. An empty history never
// reports a regression.
func DetectRegression(current domain.EvaluationRecord, history []domain.EvaluationRecord) domain.RegressionReport {
	if len(history) == 0 {
		return domain.RegressionReport{}
	}
	if len(history) > regressionWindow {
		history = history[:regressionWindow]
	}

	var retSum, genSum float64
	for _, rec := range history {
		retSum += rec.Retriever.Overall
		genSum += rec.Generator.Overall
	}
	n := float64(len(history))

	report := domain.RegressionReport{
		RetrieverBaseline: retSum / n,
		GeneratorBaseline: genSum / n,
	}
	report.RetrieverRegression = current.Retriever.Overall < regressionFactor*report.RetrieverBaseline
	report.GeneratorRegression = current.Generator.Overall < regressionFactor*report.GeneratorBaseline
	report.HasRegression = report.RetrieverRegression || report.GeneratorRegression

	switch {
	case report.RetrieverRegression && report.GeneratorRegression:
		report.Recommendations = append(report.Recommendations, "review the full pipeline: both retrieval and generation quality dropped")
	case report.RetrieverRegression:
		report.Recommendations = append(report.Recommendations,
			"review section selection criteria",
			"review relevance weighting in retrieval",
			"review section summary quality")
	case report.GeneratorRegression:
		report.Recommendations = append(report.Recommendations,
			"review the generation prompt",
			"review assembled context quality",
			"review generation temperature")
	}
	return report
}

// SuggestImprovements maps weak sub-scores to concrete tuning actions.
// An axis below 7 earns one suggestion.
func (s *Service) SuggestImprovements(ret domain.RetrieverScores, gen domain.GeneratorScores) []string {
	var out []string
	if ret.Relevance < suggestThreshold {
		out = append(out, "tighten the selection prompt to favor query-relevant sections")
	}
	if ret.Coverage < suggestThreshold {
		out = append(out, "increase top_k to widen candidate coverage")
	}
	if ret.Precision < suggestThreshold {
		out = append(out, "discard low-similarity documents before section selection")
	}
	if gen.Accuracy < suggestThreshold {
		out = append(out, "instruct the generator to quote context verbatim for factual claims")
	}
	if gen.Clarity < suggestThreshold {
		out = append(out, "ask for shorter paragraphs and explicit structure in answers")
	}
	if gen.Fidelity < suggestThreshold {
		out = append(out, "lower generation temperature to reduce drift from context")
	}
	return out
}
