package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
	"github.com/bna-dev/prospector/internal/usecase/assembler"
)

type mockRetriever struct {
	results []domain.RetrievalResult
	err     error
}

func (m *mockRetriever) Retrieve(_ context.Context, _ string, _ int) ([]domain.RetrievalResult, error) {
	return m.results, m.err
}

type mockDocs struct {
	docs map[string]domain.Document
}

func (m *mockDocs) Get(_ context.Context, id string) (domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return doc, nil
}

type mockProcessor struct{}

func (m *mockProcessor) Process(_ context.Context, doc *domain.Document) (domain.ProcessedDocument, error) {
	return domain.ProcessedDocument{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Sections: []domain.SummarizedSection{
			{Section: domain.Section{ParentDocumentID: doc.ID, Title: "Overview"}, Summary: "summary of " + doc.Title},
		},
		TotalSections: 1,
	}, nil
}

type mockSelector struct{}

func (m *mockSelector) Select(_ context.Context, _ string, processed []domain.ProcessedDocument) []domain.SelectedSection {
	var out []domain.SelectedSection
	for _, pd := range processed {
		for _, sec := range pd.Sections {
			out = append(out, domain.SelectedSection{
				DocumentID:     pd.DocumentID,
				SectionTitle:   sec.Section.Title,
				RelevanceScore: 0.9,
				Reason:         "direct match",
			})
		}
	}
	return out
}

type mockWeb struct {
	results     []domain.WebResult
	pageErr     error
	searchCalls int
}

func (m *mockWeb) Search(_ context.Context, _ string) []domain.WebResult {
	m.searchCalls++
	return m.results
}

func (m *mockWeb) FetchPage(_ context.Context, pageURL string) (string, error) {
	if m.pageErr != nil {
		return "", m.pageErr
	}
	return "scraped content of " + pageURL, nil
}

type mockGenerator struct {
	gotContext string
	gotHistory []domain.ConversationTurn
}

func (m *mockGenerator) Generate(_ context.Context, _, assembledContext string, history []domain.ConversationTurn) string {
	m.gotContext = assembledContext
	m.gotHistory = history
	return "generated answer"
}

type mockHistory struct {
	newestFirst []domain.ConversationTurn
	appended    []domain.ConversationTurn
	recentErr   error
	cleared     bool
}

func (m *mockHistory) Append(_ context.Context, turn domain.ConversationTurn) error {
	m.appended = append(m.appended, turn)
	return nil
}

func (m *mockHistory) Recent(_ context.Context, n int) ([]domain.ConversationTurn, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if n > len(m.newestFirst) {
		n = len(m.newestFirst)
	}
	return m.newestFirst[:n], nil
}

func (m *mockHistory) Clear(_ context.Context) error {
	m.cleared = true
	return nil
}

type deps struct {
	retriever *mockRetriever
	docs      *mockDocs
	web       *mockWeb
	generator *mockGenerator
	history   *mockHistory
}

func newTestService(d *deps) *Service {
	if d.retriever == nil {
		d.retriever = &mockRetriever{}
	}
	if d.docs == nil {
		d.docs = &mockDocs{docs: map[string]domain.Document{}}
	}
	if d.web == nil {
		d.web = &mockWeb{}
	}
	if d.generator == nil {
		d.generator = &mockGenerator{}
	}
	if d.history == nil {
		d.history = &mockHistory{}
	}
	return New(
		d.retriever,
		d.docs,
		&mockProcessor{},
		&mockSelector{},
		d.web,
		assembler.New(12000, 6),
		d.generator,
		d.history,
		3,
		zap.NewNop(),
	)
}

func TestAsk_EmptyMessage(t *testing.T) {
	svc := newTestService(&deps{})

	_, err := svc.Ask(context.Background(), Request{})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestAsk_FullPipeline(t *testing.T) {
	d := &deps{
		retriever: &mockRetriever{results: []domain.RetrievalResult{
			{DocumentID: "doc-1", Score: 0.92, Rank: 1},
		}},
		docs: &mockDocs{docs: map[string]domain.Document{
			"doc-1": {ID: "doc-1", URL: "https://acme.com", Title: "Acme", Summary: "rockets"},
		}},
		web: &mockWeb{results: []domain.WebResult{
			{Title: "Acme in the news", URL: "https://news.io/acme", Snippet: "acme raised"},
		}},
	}
	svc := newTestService(d)

	resp, err := svc.Ask(context.Background(), Request{Message: "tell me about acme", UseWebSearch: true})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Message != "generated answer" {
		t.Errorf("Message = %q", resp.Message)
	}

	ctx := d.generator.gotContext
	if !strings.Contains(ctx, "Section: Overview") {
		t.Errorf("selected section missing from context:\n%s", ctx)
	}
	if !strings.Contains(ctx, "WEB SEARCH RESULTS:") {
		t.Errorf("web block missing from context:\n%s", ctx)
	}
	if !strings.Contains(ctx, "scraped content of https://news.io/acme") {
		t.Errorf("scraped block missing from context:\n%s", ctx)
	}

	// One internal plus one web citation.
	if len(resp.Sources) != 2 {
		t.Fatalf("sources = %+v", resp.Sources)
	}
	if resp.Sources[0].Type != domain.SourceInternal || resp.Sources[1].Type != domain.SourceWeb {
		t.Errorf("source types = %q, %q", resp.Sources[0].Type, resp.Sources[1].Type)
	}
}

func TestAsk_PersistsBothTurns(t *testing.T) {
	d := &deps{}
	svc := newTestService(d)

	_, err := svc.Ask(context.Background(), Request{Message: "hello"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(d.history.appended) != 2 {
		t.Fatalf("appended %d turns, want 2", len(d.history.appended))
	}
	if d.history.appended[0].Role != domain.RoleUser || d.history.appended[0].Content != "hello" {
		t.Errorf("first turn = %+v", d.history.appended[0])
	}
	if d.history.appended[1].Role != domain.RoleAssistant || d.history.appended[1].Content != "generated answer" {
		t.Errorf("second turn = %+v", d.history.appended[1])
	}
}

func TestAsk_HistoryReversedToChronological(t *testing.T) {
	base := time.Now().UTC()
	d := &deps{history: &mockHistory{newestFirst: []domain.ConversationTurn{
		{Role: domain.RoleAssistant, Content: "third", CreatedAt: base.Add(2 * time.Second)},
		{Role: domain.RoleUser, Content: "second", CreatedAt: base.Add(time.Second)},
		{Role: domain.RoleUser, Content: "first", CreatedAt: base},
	}}}
	svc := newTestService(d)

	if _, err := svc.Ask(context.Background(), Request{Message: "next"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}

	got := d.generator.gotHistory
	if len(got) != 3 {
		t.Fatalf("history length = %d", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" || got[2].Content != "third" {
		t.Errorf("history not chronological: %+v", got)
	}
}

func TestAsk_WebSearchDisabled(t *testing.T) {
	d := &deps{web: &mockWeb{results: []domain.WebResult{{Title: "W", URL: "https://w.com"}}}}
	svc := newTestService(d)

	resp, err := svc.Ask(context.Background(), Request{Message: "q", UseWebSearch: false})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if d.web.searchCalls != 0 {
		t.Errorf("search called %d times with web search disabled", d.web.searchCalls)
	}
	if strings.Contains(d.generator.gotContext, "WEB SEARCH RESULTS:") {
		t.Error("web block present with web search disabled")
	}
	if len(resp.Sources) != 0 {
		t.Errorf("sources = %+v", resp.Sources)
	}
}

func TestAsk_RetrievalFailureStillAnswers(t *testing.T) {
	d := &deps{retriever: &mockRetriever{err: errors.New("vector store down")}}
	svc := newTestService(d)

	resp, err := svc.Ask(context.Background(), Request{Message: "q"})
	if err != nil {
		t.Fatalf("Ask should not fail on retrieval errors: %v", err)
	}
	if resp.Message != "generated answer" {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestAsk_ScrapeFailureKeepsWebResults(t *testing.T) {
	d := &deps{web: &mockWeb{
		results: []domain.WebResult{{Title: "W", URL: "https://w.com", Snippet: "s"}},
		pageErr: errors.New("timeout"),
	}}
	svc := newTestService(d)

	_, err := svc.Ask(context.Background(), Request{Message: "q", UseWebSearch: true})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(d.generator.gotContext, "WEB SEARCH RESULTS:") {
		t.Error("web results should survive scrape failure")
	}
	if strings.Contains(d.generator.gotContext, "SCRAPED PAGE CONTENT:") {
		t.Error("no scraped block expected when scraping fails")
	}
}

func TestHistory_ChronologicalOrder(t *testing.T) {
	d := &deps{history: &mockHistory{newestFirst: []domain.ConversationTurn{
		{Content: "b"}, {Content: "a"},
	}}}
	svc := newTestService(d)

	turns, err := svc.History(context.Background(), 50)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "a" || turns[1].Content != "b" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestClearHistory(t *testing.T) {
	d := &deps{}
	svc := newTestService(d)

	if err := svc.ClearHistory(context.Background()); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	if !d.history.cleared {
		t.Error("history not cleared")
	}
}
