package domain

import "time"

// RetrieverScores is the rubric for section selection quality. All axes in [0,10].
type RetrieverScores struct {
	Relevance    float64 `json:"relevance"`
	Coverage     float64 `json:"coverage"`
	Precision    float64 `json:"precision"`
	Completeness float64 `json:"completeness"`
	Overall      float64 `json:"overall"`
}

// GeneratorScores is the rubric for answer quality. All axes in [0,10].
type GeneratorScores struct {
	Accuracy     float64 `json:"accuracy"`
	Relevance    float64 `json:"relevance"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
	Fidelity     float64 `json:"fidelity"`
	Overall      float64 `json:"overall"`
}

// NeutralRetrieverScores is the fallback when the judge call fails.
func NeutralRetrieverScores() RetrieverScores {
	return RetrieverScores{Relevance: 5, Coverage: 5, Precision: 5, Completeness: 5, Overall: 5}
}

// NeutralGeneratorScores is the fallback when the judge call fails.
func NeutralGeneratorScores() GeneratorScores {
	return GeneratorScores{Accuracy: 5, Relevance: 5, Completeness: 5, Clarity: 5, Fidelity: 5, Overall: 5}
}

// EvaluationRecord is one scored pipeline run, appended to the rolling history.
type EvaluationRecord struct {
	ID              string          `json:"id"`
	Query           string          `json:"query"`
	Retriever       RetrieverScores `json:"retriever_scores"`
	Generator       GeneratorScores `json:"generator_scores"`
	Issues          []string        `json:"issues,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// RegressionReport compares a current record against the rolling baseline.
type RegressionReport struct {
	HasRegression       bool
	RetrieverRegression bool
	GeneratorRegression bool
	RetrieverBaseline   float64
	GeneratorBaseline   float64
	Recommendations     []string
}
