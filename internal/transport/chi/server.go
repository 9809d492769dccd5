// Package chi exposes the HTTP API: document ingestion, enrichment,
// RAG chat, evaluation, and health.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
	chatuc "github.com/bna-dev/prospector/internal/usecase/chat"
	healthuc "github.com/bna-dev/prospector/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the handlers for the prospector HTTP API.
type Server struct {
	ingestor      Ingestor
	documents     DocumentStore
	enricher      Enricher
	chat          ChatService
	evaluator     Evaluator
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingestor Ingestor,
	documents DocumentStore,
	enricher Enricher,
	chat ChatService,
	evaluator Evaluator,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingestor:  ingestor,
		documents: documents,
		enricher:  enricher,
		chat:      chat,
		evaluator: evaluator,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, "document_not_found"),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrPageFetchFailed, http.StatusBadGateway, "page_fetch_failed"),
		sentinelHandler(domain.ErrMalformedPayload, http.StatusBadGateway, "malformed_provider_payload"),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, "provider_unavailable"),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.GetHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/documents", s.IngestDocument)
		r.Get("/documents", s.ListDocuments)
		r.Get("/documents/{id}", s.GetDocument)
		r.Delete("/documents/{id}", s.DeleteDocument)
		r.Post("/documents/{id}/enrich", s.EnrichDocument)

		r.Post("/chat", s.Chat)
		r.Get("/chat/history", s.GetChatHistory)
		r.Delete("/chat/history", s.ClearChatHistory)

		r.Post("/evaluations", s.RunEvaluation)
		r.Get("/evaluations", s.ListEvaluations)
	})
}

// IngestDocument handles POST /api/v1/documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "url is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	doc, err := s.ingestor.Ingest(ctx, req.URL)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusCreated, documentToResponse(doc))
}

// ListDocuments handles GET /api/v1/documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make([]documentResponse, len(docs))
	for i, doc := range docs {
		out[i] = documentToResponse(doc)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetDocument handles GET /api/v1/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(doc))
}

// DeleteDocument handles DELETE /api/v1/documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EnrichDocument handles POST /api/v1/documents/{id}/enrich. The
// entity merge into the document happens here, not in the enrichment
// service: the aggregate only reads external sources.
func (s *Server) EnrichDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	company := doc.Entities["company_name"]
	if company == "" {
		company = doc.Title
	}
	companyDomain := ""
	if u, err := url.Parse(doc.URL); err == nil {
		companyDomain = u.Host
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	result := s.enricher.Enrich(ctx, company, companyDomain)

	if err := s.documents.UpdateEntities(r.Context(), id, profileEntities(result)); err != nil {
		s.handleDomainError(w, err)
		return
	}

	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, result)
}

// Chat handles POST /api/v1/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "message is required")
		return
	}

	useWeb := true
	if req.UseWebSearch != nil {
		useWeb = *req.UseWebSearch
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.chat.Ask(ctx, chatuc.Request{
		Message:      req.Message,
		UseWebSearch: useWeb,
		MaxHistory:   req.MaxHistory,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, chatResponse{
		Message:   resp.Message,
		Sources:   resp.Sources,
		Timestamp: resp.Timestamp,
	})
}

// GetChatHistory handles GET /api/v1/chat/history.
func (s *Server) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	turns, err := s.chat.History(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	writeJSON(w, http.StatusOK, turns)
}

// ClearChatHistory handles DELETE /api/v1/chat/history.
func (s *Server) ClearChatHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.ClearHistory(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunEvaluation handles POST /api/v1/evaluations. It runs the full
// pipeline for the query and scores both stages.
func (s *Server) RunEvaluation(w http.ResponseWriter, r *http.Request) {
	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "query is required")
		return
	}

	useWeb := true
	if req.UseWebSearch != nil {
		useWeb = *req.UseWebSearch
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.chat.Ask(ctx, chatuc.Request{Message: req.Query, UseWebSearch: useWeb})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	record, regression, err := s.evaluator.Evaluate(ctx, req.Query, answer.Message, answer.AssembledContext, answer.Selected)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setLLMHeaders(w, usage)
	writeJSON(w, http.StatusOK, evaluationResponse{
		Record:     record,
		Answer:     answer.Message,
		Regression: regressionToResponse(regression),
	})
}

// ListEvaluations handles GET /api/v1/evaluations.
func (s *Server) ListEvaluations(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	records, err := s.evaluator.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: string(report.Status), Checks: checks})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

// profileEntities flattens the synthesized profile into document
// entities. Only scalar fields merge; list-valued insight fields stay
// in the enrichment response.
func profileEntities(result domain.EnrichmentResult) map[string]string {
	entities := map[string]string{
		"enriched_at":      result.EnrichedAt.Format(time.RFC3339),
		"enrichment_count": strconv.Itoa(result.SourcesCount),
	}
	if v := result.Profile.FundingStatus; v != "" {
		entities["funding_status"] = v
	}
	if v := result.Profile.MarketPosition; v != "" {
		entities["market_position"] = v
	}
	if v := result.Profile.SalesApproach; v != "" {
		entities["sales_approach"] = v
	}
	return entities
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func setLLMHeaders(w http.ResponseWriter, usage *domain.LLMUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-LLM-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrInvalidRequest,
		domain.ErrPageFetchFailed,
		domain.ErrMalformedPayload,
		domain.ErrProviderUnavailable,
		domain.ErrRateLimited,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
