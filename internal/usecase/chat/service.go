// Package chat orchestrates one question through the full pipeline:
// retrieval, hierarchical section processing, selection, optional web
// search, context assembly, generation, and history persistence. The
// endpoint always answers; provider failures degrade into the answer
// text rather than surfacing as errors.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
	"github.com/bna-dev/prospector/internal/usecase/assembler"
)

const (
	defaultMaxHistory = 10
	maxScrapeResults  = 2
)

// Request is one chat question.
type Request struct {
	Message      string
	UseWebSearch bool
	MaxHistory   int
}

// Response is the rendered answer with its citation list.
// AssembledContext and Selected expose pipeline artifacts for
// downstream evaluation; they are not part of the API payload.
type Response struct {
	Message          string
	Sources          []domain.Source
	Timestamp        time.Time
	AssembledContext string
	Selected         []domain.SelectedSection
}

// Service wires the pipeline stages together.
type Service struct {
	retriever Retriever
	docs      DocumentReader
	sections  SectionProcessor
	selector  SectionSelector
	web       WebProvider
	assembler *assembler.Service
	generator Generator
	history   HistoryStore
	topK      int
	logger    *zap.Logger
}

func New(
	retriever Retriever,
	docs DocumentReader,
	sections SectionProcessor,
	selector SectionSelector,
	web WebProvider,
	asm *assembler.Service,
	generator Generator,
	history HistoryStore,
	topK int,
	logger *zap.Logger,
) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		retriever: retriever,
		docs:      docs,
		sections:  sections,
		selector:  selector,
		web:       web,
		assembler: asm,
		generator: generator,
		history:   history,
		topK:      topK,
		logger:    logger,
	}
}

// Ask answers one question. It degrades stage by stage: a failed
// retrieval yields an answer without internal evidence, a failed web
// search yields one without web evidence, and only an empty message is
// rejected outright.
func (s *Service) Ask(ctx context.Context, req Request) (Response, error) {
	if req.Message == "" {
		return Response{}, domain.ErrInvalidRequest
	}
	maxHistory := req.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}

	history := s.loadHistory(ctx, maxHistory)
	ranked := s.retrieveDocuments(ctx, req.Message)
	selected, processed := s.selectSections(ctx, req.Message, ranked)

	var webResults []domain.WebResult
	var scraped []domain.ScrapedPage
	if req.UseWebSearch && s.web != nil {
		webResults, scraped = s.searchWeb(ctx, req.Message)
	}

	assembled := s.assembler.Assemble(assembler.Input{
		InternalSections: sectionEvidence(selected, processed, ranked),
		InternalDocs:     ranked,
		WebResults:       webResults,
		ScrapedPages:     scraped,
		History:          history,
	})

	answer := s.generator.Generate(ctx, req.Message, assembled.Text, history)
	now := time.Now().UTC()

	s.appendTurn(ctx, domain.ConversationTurn{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   req.Message,
		CreatedAt: now,
	})
	s.appendTurn(ctx, domain.ConversationTurn{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   answer,
		Sources:   assembled.Sources,
		CreatedAt: now,
	})

	return Response{
		Message:          answer,
		Sources:          assembled.Sources,
		Timestamp:        now,
		AssembledContext: assembled.Text,
		Selected:         selected,
	}, nil
}

// History returns up to limit turns in chronological order.
func (s *Service) History(ctx context.Context, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		limit = 50
	}
	recent, err := s.history.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return domain.Chronological(recent), nil
}

// ClearHistory wipes the stored conversation.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.history.Clear(ctx)
}

func (s *Service) loadHistory(ctx context.Context, maxHistory int) []domain.ConversationTurn {
	recent, err := s.history.Recent(ctx, maxHistory)
	if err != nil {
		s.logger.Warn("history unavailable, answering without it", zap.Error(err))
		return nil
	}
	// Storage hands turns back newest first; the pipeline wants them
	// in the order they were said.
	return domain.Chronological(recent)
}

func (s *Service) retrieveDocuments(ctx context.Context, query string) []domain.RankedDocument {
	results, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		s.logger.Warn("retrieval failed, answering without internal evidence", zap.Error(err))
		return nil
	}

	ranked := make([]domain.RankedDocument, 0, len(results))
	for _, res := range results {
		doc, err := s.docs.Get(ctx, res.DocumentID)
		if err != nil {
			s.logger.Warn("ranked document unavailable",
				zap.String("document_id", res.DocumentID),
				zap.Error(err))
			continue
		}
		ranked = append(ranked, domain.RankedDocument{Document: doc, Score: res.Score})
	}
	return ranked
}

func (s *Service) selectSections(ctx context.Context, query string, ranked []domain.RankedDocument) ([]domain.SelectedSection, []domain.ProcessedDocument) {
	if len(ranked) == 0 {
		return nil, nil
	}

	processed := make([]domain.ProcessedDocument, 0, len(ranked))
	for i := range ranked {
		pd, err := s.sections.Process(ctx, &ranked[i].Document)
		if err != nil {
			s.logger.Warn("section processing failed for document",
				zap.String("document_id", ranked[i].Document.ID),
				zap.Error(err))
			continue
		}
		processed = append(processed, pd)
	}
	return s.selector.Select(ctx, query, processed), processed
}

func (s *Service) searchWeb(ctx context.Context, query string) ([]domain.WebResult, []domain.ScrapedPage) {
	results := s.web.Search(ctx, query)
	if len(results) == 0 {
		return nil, nil
	}

	var scraped []domain.ScrapedPage
	for i, r := range results {
		if i >= maxScrapeResults {
			break
		}
		content, err := s.web.FetchPage(ctx, r.URL)
		if err != nil {
			s.logger.Warn("scrape failed", zap.String("url", r.URL), zap.Error(err))
			continue
		}
		scraped = append(scraped, domain.ScrapedPage{URL: r.URL, Title: r.Title, Content: content})
	}
	return results, scraped
}

func (s *Service) appendTurn(ctx context.Context, turn domain.ConversationTurn) {
	if err := s.history.Append(ctx, turn); err != nil {
		s.logger.Warn("failed to persist conversation turn",
			zap.String("role", string(turn.Role)),
			zap.Error(err))
	}
}

// sectionEvidence resolves selector picks back to their summaries and
// document context, preserving selection order.
func sectionEvidence(selected []domain.SelectedSection, processed []domain.ProcessedDocument, ranked []domain.RankedDocument) []assembler.SectionEvidence {
	if len(selected) == 0 {
		return nil
	}

	summaries := make(map[string]string)
	for _, pd := range processed {
		for _, sec := range pd.Sections {
			summaries[pd.DocumentID+"\x00"+sec.Section.Title] = sec.Summary
		}
	}
	urls := make(map[string]string)
	titles := make(map[string]string)
	for _, rd := range ranked {
		urls[rd.Document.ID] = rd.Document.URL
		titles[rd.Document.ID] = rd.Document.Title
	}

	evidence := make([]assembler.SectionEvidence, 0, len(selected))
	for _, sel := range selected {
		evidence = append(evidence, assembler.SectionEvidence{
			DocumentID:    sel.DocumentID,
			DocumentTitle: titles[sel.DocumentID],
			URL:           urls[sel.DocumentID],
			SectionTitle:  sel.SectionTitle,
			Summary:       summaries[sel.DocumentID+"\x00"+sel.SectionTitle],
			Score:         sel.RelevanceScore,
		})
	}
	return evidence
}
