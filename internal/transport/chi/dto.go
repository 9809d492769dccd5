package chi

import (
	"time"

	"github.com/bna-dev/prospector/internal/domain"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ingestRequest struct {
	URL string `json:"url"`
}

type documentResponse struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	Summary   string            `json:"summary"`
	KeyPoints []string          `json:"key_points,omitempty"`
	Entities  map[string]string `json:"entities,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func documentToResponse(doc domain.Document) documentResponse {
	return documentResponse{
		ID:        doc.ID,
		URL:       doc.URL,
		Title:     doc.Title,
		Summary:   doc.Summary,
		KeyPoints: doc.KeyPoints,
		Entities:  doc.Entities,
		CreatedAt: doc.CreatedAt,
	}
}

type chatRequest struct {
	Message      string `json:"message"`
	UseWebSearch *bool  `json:"use_web_search,omitempty"`
	MaxHistory   int    `json:"max_history,omitempty"`
}

type chatResponse struct {
	Message   string          `json:"message"`
	Sources   []domain.Source `json:"sources"`
	Timestamp time.Time       `json:"timestamp"`
}

type evaluationRequest struct {
	Query        string `json:"query"`
	UseWebSearch *bool  `json:"use_web_search,omitempty"`
}

type regressionResponse struct {
	HasRegression       bool     `json:"has_regression"`
	RetrieverRegression bool     `json:"retriever_regression"`
	GeneratorRegression bool     `json:"generator_regression"`
	RetrieverBaseline   float64  `json:"retriever_baseline"`
	GeneratorBaseline   float64  `json:"generator_baseline"`
	Recommendations     []string `json:"recommendations,omitempty"`
}

type evaluationResponse struct {
	Record     domain.EvaluationRecord `json:"record"`
	Answer     string                  `json:"answer"`
	Regression regressionResponse      `json:"regression"`
}

func regressionToResponse(r domain.RegressionReport) regressionResponse {
	return regressionResponse{
		HasRegression:       r.HasRegression,
		RetrieverRegression: r.RetrieverRegression,
		GeneratorRegression: r.GeneratorRegression,
		RetrieverBaseline:   r.RetrieverBaseline,
		GeneratorBaseline:   r.GeneratorBaseline,
		Recommendations:     r.Recommendations,
	}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
