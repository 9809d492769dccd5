// Package sections decomposes documents into topical sections and
// summarizes each one via the LLM.
package sections

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	// splitInputCap bounds the content sent to the split prompt.
	splitInputCap = 4000
	// summaryFallbackChars is the prefix used when summarization fails.
	summaryFallbackChars = 150

	splitTemperature     = 0.3
	summaryTemperature   = 0.3
	summaryMaxTokens     = 200
	fallbackSectionTitle = "Full Analysis"
)

// Service turns documents into summarized sections.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a section processing service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// splitResult is the schema-constrained payload expected from the split call.
type splitResult struct {
	Sections []struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		FocusArea  string `json:"focus_area"`
		Importance string `json:"importance"`
	} `json:"sections"`
}

// Process splits a document into sections and summarizes each.
// Provider and parse failures degrade per section, never failing the run.
func (s *Service) Process(ctx context.Context, doc *domain.Document) (domain.ProcessedDocument, error) {
	secs := s.split(ctx, doc)

	summarized := make([]domain.SummarizedSection, 0, len(secs))
	for _, sec := range secs {
		summarized = append(summarized, domain.SummarizedSection{
			Section:  sec,
			Summary:  s.summarize(ctx, &sec),
			Metadata: sec.ExtractMetadata(),
		})
	}

	return domain.ProcessedDocument{
		DocumentID:    doc.ID,
		Title:         doc.Title,
		Sections:      summarized,
		TotalSections: len(summarized),
	}, nil
}

// split asks the LLM to partition the document's summary and key points into
// coherent sections. Malformed or missing output degrades to a single
// high-importance section spanning the whole content.
func (s *Service) split(ctx context.Context, doc *domain.Document) []domain.Section {
	content := doc.Summary + "\n" + strings.Join(doc.KeyPoints, "\n")
	if len(content) > splitInputCap {
		content = content[:splitInputCap]
	}

	prompt := fmt.Sprintf(`Analyze the following business analysis content and divide it into logically coherent sections.
Each section must have a specific focus (e.g. products, market, technology).

Return ONLY a JSON object with this structure:
{
  "sections": [
    {
      "title": "Section title",
      "content": "Section content",
      "focus_area": "Focus area",
      "importance": "High/Medium/Low"
    }
  ]
}

CONTENT:
%s`, content)

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Temperature: splitTemperature,
		JSONOutput:  true,
	})
	if err != nil {
		s.logger.Warn("section split failed, using single-section fallback",
			zap.String("document_id", doc.ID), zap.Error(err))
		return s.fallbackSections(doc, content)
	}

	var parsed splitResult
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil || len(parsed.Sections) == 0 {
		s.logger.Warn("section split output malformed, using single-section fallback",
			zap.String("document_id", doc.ID), zap.Error(err))
		return s.fallbackSections(doc, content)
	}

	secs := make([]domain.Section, 0, len(parsed.Sections))
	for _, p := range parsed.Sections {
		secs = append(secs, domain.Section{
			ParentDocumentID: doc.ID,
			Title:            p.Title,
			Content:          p.Content,
			FocusArea:        p.FocusArea,
			Importance:       domain.ParseImportance(p.Importance),
		})
	}
	return secs
}

func (s *Service) fallbackSections(doc *domain.Document, content string) []domain.Section {
	return []domain.Section{{
		ParentDocumentID: doc.ID,
		Title:            fallbackSectionTitle,
		Content:          content,
		FocusArea:        "general",
		Importance:       domain.ImportanceHigh,
	}}
}

// summarize asks the LLM for a short executive summary of one section.
// On failure, falls back to a prefix of the raw content with an ellipsis.
func (s *Service) summarize(ctx context.Context, sec *domain.Section) string {
	prompt := fmt.Sprintf(`Write a concise executive summary (at most 150 words) of the following business analysis section.
Focus on the points most relevant to B2B sales.

SECTION: %s
CONTENT: %s

Return only the summary, no extra formatting.`, sec.Title, sec.Content)

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Temperature: summaryTemperature,
		MaxTokens:   summaryMaxTokens,
	})
	if err != nil {
		s.logger.Warn("section summary failed, using content prefix",
			zap.String("section", sec.Title), zap.Error(err))
		return truncateFallback(sec.Content)
	}

	summary := strings.TrimSpace(result.Content)
	if summary == "" {
		return truncateFallback(sec.Content)
	}
	return summary
}

func truncateFallback(content string) string {
	if len(content) <= summaryFallbackChars {
		return content
	}
	return content[:summaryFallbackChars] + "..."
}
