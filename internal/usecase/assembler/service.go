// Package assembler deterministically merges internal evidence, web results,
// scraped pages and conversation history into a bounded prompt context.
// No LLM calls happen here.
package assembler

import (
	"fmt"
	"strings"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	maxWebResults   = 5
	maxScrapedPages = 2
	scrapedCharCap  = 2000
	maxSourceDocs   = 3
	maxSourceWeb    = 3
)

// SectionEvidence is one selected section carried with its document
// context, in selection order.
type SectionEvidence struct {
	DocumentID    string
	DocumentTitle string
	URL           string
	SectionTitle  string
	Summary       string
	Score         float64
}

// Input carries everything one assembled context is built from.
// History must already be in chronological order. InternalSections is
// the preferred internal evidence; when empty, whole documents from
// InternalDocs are rendered instead. InternalDocs always feeds the
// citation list.
type Input struct {
	InternalSections []SectionEvidence
	InternalDocs     []domain.RankedDocument
	WebResults       []domain.WebResult
	ScrapedPages     []domain.ScrapedPage
	History          []domain.ConversationTurn
}

// Context is the assembled prompt text plus the parallel citation list.
type Context struct {
	Text    string
	Sources []domain.Source
}

// Service assembles bounded contexts.
type Service struct {
	maxChars        int
	maxHistoryTurns int
}

// New creates a context assembler. maxChars is the overall character ceiling;
// maxHistoryTurns bounds how many trailing turns are included.
func New(maxChars, maxHistoryTurns int) *Service {
	if maxChars <= 0 {
		maxChars = 12000
	}
	if maxHistoryTurns <= 0 {
		maxHistoryTurns = 6
	}
	return &Service{maxChars: maxChars, maxHistoryTurns: maxHistoryTurns}
}

// Assemble renders the four blocks in fixed order: internal documents, web
// results, scraped pages, recent history. When the ceiling would be exceeded,
// lower-priority blocks are dropped first (scraped, then web results, then
// older history turns); internal documents are never truncated.
func (s *Service) Assemble(input Input) Context {
	internal := s.renderInternal(input)
	web := s.renderWeb(input.WebResults)
	scraped := s.renderScraped(input.ScrapedPages)
	history := s.trimHistory(input.History)

	for {
		text := join(internal, web, scraped, s.renderHistory(history))
		if len(text) <= s.maxChars {
			return Context{Text: text, Sources: s.sources(input)}
		}
		switch {
		case scraped != "":
			scraped = ""
		case web != "":
			web = ""
		case len(history) > 0:
			history = history[1:] // drop the oldest turn
		default:
			// only internal evidence left; it is never cut
			return Context{Text: text, Sources: s.sources(input)}
		}
	}
}

func (s *Service) renderInternal(input Input) string {
	if len(input.InternalSections) > 0 {
		var b strings.Builder
		b.WriteString("INTERNAL ANALYSES:\n")
		for i, sec := range input.InternalSections {
			fmt.Fprintf(&b, "[Document %d] %s\nTitle: %s\nSection: %s\nSummary: %s\nRelevance: %.2f\n\n",
				i+1, sec.URL, sec.DocumentTitle, sec.SectionTitle, sec.Summary, sec.Score)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	if len(input.InternalDocs) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("INTERNAL ANALYSES:\n")
	for i, rd := range input.InternalDocs {
		fmt.Fprintf(&b, "[Document %d] %s\nTitle: %s\nSummary: %s\nSimilarity: %.3f\n\n",
			i+1, rd.Document.URL, rd.Document.Title, rd.Document.Summary, rd.Score)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) renderWeb(results []domain.WebResult) string {
	if len(results) == 0 {
		return ""
	}
	if len(results) > maxWebResults {
		results = results[:maxWebResults]
	}
	var b strings.Builder
	b.WriteString("WEB SEARCH RESULTS:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[Result %d] %s\nURL: %s\nSnippet: %s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) renderScraped(pages []domain.ScrapedPage) string {
	if len(pages) == 0 {
		return ""
	}
	if len(pages) > maxScrapedPages {
		pages = pages[:maxScrapedPages]
	}
	var b strings.Builder
	b.WriteString("SCRAPED PAGE CONTENT:\n")
	for _, p := range pages {
		content := p.Content
		if len(content) > scrapedCharCap {
			content = content[:scrapedCharCap]
		}
		fmt.Fprintf(&b, "From %s:\n%s\n\n", p.URL, content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (s *Service) trimHistory(history []domain.ConversationTurn) []domain.ConversationTurn {
	if len(history) > s.maxHistoryTurns {
		return history[len(history)-s.maxHistoryTurns:]
	}
	return history
}

func (s *Service) renderHistory(history []domain.ConversationTurn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// sources builds the citation list independently of the rendered text:
// top 3 internal documents plus top 3 web results.
func (s *Service) sources(input Input) []domain.Source {
	var sources []domain.Source
	for i, rd := range input.InternalDocs {
		if i >= maxSourceDocs {
			break
		}
		sources = append(sources, domain.Source{
			Type:    domain.SourceInternal,
			Title:   rd.Document.Title,
			URL:     rd.Document.URL,
			Snippet: rd.Document.Summary,
		})
	}
	for i, r := range input.WebResults {
		if i >= maxSourceWeb {
			break
		}
		sources = append(sources, domain.Source{
			Type:    domain.SourceWeb,
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Snippet,
		})
	}
	return sources
}

func join(blocks ...string) string {
	var nonEmpty []string
	for _, b := range blocks {
		if b != "" {
			nonEmpty = append(nonEmpty, b)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
