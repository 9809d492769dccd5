package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
)

type mockFetcher struct {
	content string
	err     error
}

func (m *mockFetcher) FetchPage(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

type mockCompleter struct {
	response string
	err      error
}

func (m *mockCompleter) Complete(_ context.Context, _ domain.CompletionRequest) (domain.CompletionResult, error) {
	if m.err != nil {
		return domain.CompletionResult{}, m.err
	}
	return domain.CompletionResult{Content: m.response}, nil
}

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

type mockWriter struct {
	saved     *domain.Document
	embedding []float32
	err       error
}

func (m *mockWriter) Save(_ context.Context, doc *domain.Document, embedding []float32) (bool, error) {
	m.saved = doc
	m.embedding = embedding
	return true, m.err
}

const validAnalysis = `{"title": "acme pricing", "summary": "usage based pricing for teams", "key_points": ["per-seat tier"], "entities": {"company_name": "Acme"}}`

func newTestService(f *mockFetcher, c *mockCompleter, e *mockEmbedder, w *mockWriter) *Service {
	return New(f, c, e, w, zap.NewNop())
}

func TestIngest_StoresAnalyzedDocument(t *testing.T) {
	writer := &mockWriter{}
	embedder := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	svc := newTestService(
		&mockFetcher{content: "Acme offers usage based pricing."},
		&mockCompleter{response: validAnalysis},
		embedder,
		writer,
	)

	doc, err := svc.Ingest(context.Background(), "acme.com/pricing")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if doc.ID == "" {
		t.Error("document should receive an ID")
	}
	if doc.URL != "https://acme.com/pricing" {
		t.Errorf("URL = %q", doc.URL)
	}
	if doc.Title != "acme pricing" {
		t.Errorf("Title = %q, want normalized title", doc.Title)
	}
	if doc.Summary != "Usage based pricing for teams." {
		t.Errorf("Summary = %q, want formatted summary", doc.Summary)
	}
	if doc.Entities["company_name"] != "Acme" {
		t.Errorf("Entities = %v", doc.Entities)
	}
	if writer.saved == nil {
		t.Fatal("document was not saved")
	}
	if len(writer.embedding) != 2 {
		t.Errorf("stored embedding = %v", writer.embedding)
	}
	if embedder.calls != 1 {
		t.Errorf("embedder calls = %d, want 1", embedder.calls)
	}
}

func TestIngest_EmptyURL(t *testing.T) {
	svc := newTestService(&mockFetcher{}, &mockCompleter{}, &mockEmbedder{}, &mockWriter{})

	_, err := svc.Ingest(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestIngest_FetchFailureSurfaces(t *testing.T) {
	fetchErr := fmt.Errorf("status 404: %w", domain.ErrPageFetchFailed)
	writer := &mockWriter{}
	svc := newTestService(&mockFetcher{err: fetchErr}, &mockCompleter{}, &mockEmbedder{}, writer)

	_, err := svc.Ingest(context.Background(), "https://acme.com/missing")
	if !errors.Is(err, domain.ErrPageFetchFailed) {
		t.Errorf("err = %v, want ErrPageFetchFailed", err)
	}
	if writer.saved != nil {
		t.Error("nothing should be saved on fetch failure")
	}
}

func TestIngest_MalformedAnalysisSurfaces(t *testing.T) {
	svc := newTestService(
		&mockFetcher{content: "page"},
		&mockCompleter{response: "not json"},
		&mockEmbedder{},
		&mockWriter{},
	)

	_, err := svc.Ingest(context.Background(), "https://acme.com")
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Errorf("err = %v, want ErrMalformedPayload", err)
	}
}

func TestIngest_EmbeddingFailureStillSaves(t *testing.T) {
	writer := &mockWriter{}
	svc := newTestService(
		&mockFetcher{content: "page"},
		&mockCompleter{response: validAnalysis},
		&mockEmbedder{err: errors.New("embeddings down")},
		writer,
	)

	doc, err := svc.Ingest(context.Background(), "https://acme.com")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if writer.saved == nil || writer.saved.ID != doc.ID {
		t.Fatal("document should be saved without an embedding")
	}
	if writer.embedding != nil {
		t.Errorf("embedding = %v, want nil", writer.embedding)
	}
}
