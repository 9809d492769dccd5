// Package selector picks the sections most relevant to a question across
// all processed documents.
package selector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	selectTemperature = 0.2
	fallbackPicks     = 3
	maxPicks          = 5
)

// Service selects relevant sections via an LLM with a hallucination guard.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// New creates a section selector service.
func New(completer Completer, logger *zap.Logger) *Service {
	return &Service{completer: completer, logger: logger}
}

// candidate is the compact shape shown to the model: summaries only,
// never full section content.
type candidate struct {
	DocumentID    string `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	SectionTitle  string `json:"section_title"`
	Summary       string `json:"summary"`
}

// selectionResult is the schema-constrained payload expected from the model.
type selectionResult struct {
	SelectedSections []struct {
		DocumentID     string  `json:"document_id"`
		SectionTitle   string  `json:"section_title"`
		RelevanceScore float64 `json:"relevance_score"`
		Reason         string  `json:"reason"`
	} `json:"selected_sections"`
}

// Select asks the LLM for the 3-5 most relevant sections. Picks referencing
// a (document, section) pair absent from the candidate set are discarded.
// Provider or parse failure falls back to the first 3 candidates in order.
func (s *Service) Select(ctx context.Context, query string, processed []domain.ProcessedDocument) []domain.SelectedSection {
	candidates := flatten(processed)
	if len(candidates) == 0 {
		return nil
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		s.logger.Warn("candidate marshal failed", zap.Error(err))
		return fallback(candidates)
	}

	prompt := fmt.Sprintf(`You are an expert at selecting content for retrieval-augmented generation.

USER QUESTION: %s

AVAILABLE SECTIONS:
%s

Select the 3-5 sections most relevant to answering the question.
Return ONLY a JSON object:
{
  "selected_sections": [
    {
      "document_id": "document ID",
      "section_title": "section title",
      "relevance_score": 0.0,
      "reason": "why this section is relevant"
    }
  ]
}`, query, string(payload))

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Temperature: selectTemperature,
		JSONOutput:  true,
	})
	if err != nil {
		s.logger.Warn("section selection failed, using first candidates", zap.Error(err))
		return fallback(candidates)
	}

	var parsed selectionResult
	if err := json.Unmarshal([]byte(result.Content), &parsed); err != nil || len(parsed.SelectedSections) == 0 {
		s.logger.Warn("section selection output malformed, using first candidates", zap.Error(err))
		return fallback(candidates)
	}

	valid := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		valid[pairKey(c.DocumentID, c.SectionTitle)] = true
	}

	picks := make([]domain.SelectedSection, 0, len(parsed.SelectedSections))
	for _, p := range parsed.SelectedSections {
		if !valid[pairKey(p.DocumentID, p.SectionTitle)] {
			s.logger.Warn("selector referenced unknown section, discarding",
				zap.String("document_id", p.DocumentID),
				zap.String("section_title", p.SectionTitle))
			continue
		}
		picks = append(picks, domain.SelectedSection{
			DocumentID:     p.DocumentID,
			SectionTitle:   p.SectionTitle,
			RelevanceScore: p.RelevanceScore,
			Reason:         p.Reason,
		})
		if len(picks) >= maxPicks {
			break
		}
	}

	if len(picks) == 0 {
		return fallback(candidates)
	}
	return picks
}

func flatten(processed []domain.ProcessedDocument) []candidate {
	var candidates []candidate
	for _, doc := range processed {
		for _, sec := range doc.Sections {
			candidates = append(candidates, candidate{
				DocumentID:    doc.DocumentID,
				DocumentTitle: doc.Title,
				SectionTitle:  sec.Section.Title,
				Summary:       sec.Summary,
			})
		}
	}
	return candidates
}

func fallback(candidates []candidate) []domain.SelectedSection {
	n := fallbackPicks
	if len(candidates) < n {
		n = len(candidates)
	}
	picks := make([]domain.SelectedSection, 0, n)
	for _, c := range candidates[:n] {
		picks = append(picks, domain.SelectedSection{
			DocumentID:     c.DocumentID,
			SectionTitle:   c.SectionTitle,
			RelevanceScore: 0.5,
			Reason:         "fallback selection",
		})
	}
	return picks
}

func pairKey(docID, sectionTitle string) string {
	return docID + "\x00" + strings.TrimSpace(sectionTitle)
}
