package assembler

import (
	"strings"
	"testing"
	"time"

	"github.com/bna-dev/prospector/internal/domain"
)

func testInput() Input {
	return Input{
		InternalDocs: []domain.RankedDocument{
			{Document: domain.Document{ID: "a", URL: "https://a.com", Title: "Doc A", Summary: "summary A"}, Score: 0.91},
			{Document: domain.Document{ID: "b", URL: "https://b.com", Title: "Doc B", Summary: "summary B"}, Score: 0.72},
		},
		WebResults: []domain.WebResult{
			{Title: "Web 1", URL: "https://w1.com", Snippet: "snippet 1"},
		},
		ScrapedPages: []domain.ScrapedPage{
			{URL: "https://w1.com", Title: "Web 1", Content: "scraped body"},
		},
		History: []domain.ConversationTurn{
			{Role: domain.RoleUser, Content: "earlier question", CreatedAt: time.Now()},
			{Role: domain.RoleAssistant, Content: "earlier answer", CreatedAt: time.Now()},
		},
	}
}

func TestAssemble_BlockOrder(t *testing.T) {
	svc := New(100000, 6)
	ctx := svc.Assemble(testInput())

	internalIdx := strings.Index(ctx.Text, "INTERNAL ANALYSES:")
	webIdx := strings.Index(ctx.Text, "WEB SEARCH RESULTS:")
	scrapedIdx := strings.Index(ctx.Text, "SCRAPED PAGE CONTENT:")
	historyIdx := strings.Index(ctx.Text, "CONVERSATION HISTORY:")

	for name, idx := range map[string]int{
		"internal": internalIdx, "web": webIdx, "scraped": scrapedIdx, "history": historyIdx,
	} {
		if idx < 0 {
			t.Fatalf("block %s missing from context:\n%s", name, ctx.Text)
		}
	}
	if !(internalIdx < webIdx && webIdx < scrapedIdx && scrapedIdx < historyIdx) {
		t.Errorf("blocks out of order: internal=%d web=%d scraped=%d history=%d",
			internalIdx, webIdx, scrapedIdx, historyIdx)
	}
}

func TestAssemble_Deterministic(t *testing.T) {
	svc := New(100000, 6)
	input := testInput()

	first := svc.Assemble(input)
	second := svc.Assemble(input)
	if first.Text != second.Text {
		t.Error("assembly is not deterministic")
	}
}

func TestAssemble_CeilingDropsScrapedFirst(t *testing.T) {
	input := testInput()
	input.ScrapedPages[0].Content = strings.Repeat("x", 1500)

	// Room for everything except the scraped block.
	svc := New(900, 6)
	ctx := svc.Assemble(input)

	if strings.Contains(ctx.Text, "SCRAPED PAGE CONTENT:") {
		t.Error("expected scraped block to be dropped first")
	}
	if !strings.Contains(ctx.Text, "INTERNAL ANALYSES:") {
		t.Error("internal block must survive")
	}
	if !strings.Contains(ctx.Text, "WEB SEARCH RESULTS:") {
		t.Error("web block should survive when dropping scraped suffices")
	}
}

func TestAssemble_CeilingDropsWebBeforeHistory(t *testing.T) {
	input := testInput()
	input.WebResults[0].Snippet = strings.Repeat("w", 400)
	input.ScrapedPages = nil

	svc := New(550, 6)
	ctx := svc.Assemble(input)

	if strings.Contains(ctx.Text, "WEB SEARCH RESULTS:") {
		t.Error("expected web block dropped")
	}
	if !strings.Contains(ctx.Text, "INTERNAL ANALYSES:") {
		t.Error("internal block must survive")
	}
}

func TestAssemble_InternalNeverTruncated(t *testing.T) {
	input := Input{
		InternalDocs: []domain.RankedDocument{
			{Document: domain.Document{URL: "https://a.com", Title: "Doc A", Summary: strings.Repeat("s", 500)}, Score: 0.9},
		},
	}
	svc := New(100, 6)
	ctx := svc.Assemble(input)

	if !strings.Contains(ctx.Text, "INTERNAL ANALYSES:") {
		t.Fatal("internal block missing")
	}
	if len(ctx.Text) <= 100 {
		t.Error("internal evidence should exceed ceiling rather than be cut")
	}
}

func TestAssemble_SectionsPreferredOverDocuments(t *testing.T) {
	input := testInput()
	input.InternalSections = []SectionEvidence{
		{DocumentID: "a", DocumentTitle: "Doc A", URL: "https://a.com", SectionTitle: "Pricing", Summary: "tiered pricing", Score: 0.88},
		{DocumentID: "b", DocumentTitle: "Doc B", URL: "https://b.com", SectionTitle: "Team", Summary: "founding team", Score: 0.61},
	}

	svc := New(100000, 6)
	ctx := svc.Assemble(input)

	if !strings.Contains(ctx.Text, "Section: Pricing") {
		t.Errorf("selected section missing:\n%s", ctx.Text)
	}
	if strings.Contains(ctx.Text, "Summary: summary A") {
		t.Error("document-level rendering should be replaced by sections")
	}
	// The citation list still comes from the ranked documents.
	if len(ctx.Sources) == 0 || ctx.Sources[0].Title != "Doc A" {
		t.Errorf("sources = %+v", ctx.Sources)
	}

	pIdx := strings.Index(ctx.Text, "Section: Pricing")
	tIdx := strings.Index(ctx.Text, "Section: Team")
	if pIdx > tIdx {
		t.Error("sections must render in selection order")
	}
}

func TestAssemble_WebResultsCappedAtFive(t *testing.T) {
	input := Input{}
	for i := 0; i < 8; i++ {
		input.WebResults = append(input.WebResults, domain.WebResult{
			Title: "W", URL: "https://w.com", Snippet: "s",
		})
	}
	svc := New(100000, 6)
	ctx := svc.Assemble(input)

	if strings.Contains(ctx.Text, "[Result 6]") {
		t.Error("expected at most 5 web results")
	}
	if !strings.Contains(ctx.Text, "[Result 5]") {
		t.Error("expected 5th web result present")
	}
}

func TestAssemble_HistoryChronologicalAndCapped(t *testing.T) {
	input := Input{}
	for _, content := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		input.History = append(input.History, domain.ConversationTurn{
			Role: domain.RoleUser, Content: content,
		})
	}
	svc := New(100000, 6)
	ctx := svc.Assemble(input)

	// Only the trailing 6 turns survive.
	if strings.Contains(ctx.Text, "user: a\n") || strings.Contains(ctx.Text, "user: b\n") {
		t.Error("expected oldest turns trimmed")
	}
	cIdx := strings.Index(ctx.Text, "user: c")
	hIdx := strings.Index(ctx.Text, "user: h")
	if cIdx < 0 || hIdx < 0 || cIdx > hIdx {
		t.Errorf("history order wrong: c=%d h=%d", cIdx, hIdx)
	}
}

func TestAssemble_SourcesTopThreePlusTopThree(t *testing.T) {
	input := Input{}
	for i := 0; i < 5; i++ {
		input.InternalDocs = append(input.InternalDocs, domain.RankedDocument{
			Document: domain.Document{ID: "d", URL: "https://d.com", Title: "D"},
		})
		input.WebResults = append(input.WebResults, domain.WebResult{Title: "W", URL: "https://w.com"})
	}
	svc := New(100000, 6)
	ctx := svc.Assemble(input)

	if len(ctx.Sources) != 6 {
		t.Fatalf("expected 6 sources (3 internal + 3 web), got %d", len(ctx.Sources))
	}
	for i := 0; i < 3; i++ {
		if ctx.Sources[i].Type != domain.SourceInternal {
			t.Errorf("source %d type = %q, want internal", i, ctx.Sources[i].Type)
		}
	}
	for i := 3; i < 6; i++ {
		if ctx.Sources[i].Type != domain.SourceWeb {
			t.Errorf("source %d type = %q, want web", i, ctx.Sources[i].Type)
		}
	}
}

func TestAssemble_ScrapedContentCapped(t *testing.T) {
	input := Input{
		ScrapedPages: []domain.ScrapedPage{
			{URL: "https://x.com", Content: strings.Repeat("z", 3000)},
		},
	}
	svc := New(100000, 6)
	ctx := svc.Assemble(input)

	if strings.Count(ctx.Text, "z") != 2000 {
		t.Errorf("expected scraped content capped at 2000 chars, got %d", strings.Count(ctx.Text, "z"))
	}
}
