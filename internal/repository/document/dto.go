package document

import (
	"time"

	"github.com/bna-dev/prospector/internal/domain"
)

// storedDocument is the JSON persistence shape of a document. The embedding
// is stored alongside the document so retrieval needs a single read per key.
type storedDocument struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Title     string            `json:"title"`
	RawText   string            `json:"raw_text"`
	Summary   string            `json:"summary"`
	KeyPoints []string          `json:"key_points,omitempty"`
	Entities  map[string]string `json:"entities,omitempty"`
	Embedding []float32         `json:"embedding,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func toStored(doc *domain.Document, embedding []float32) storedDocument {
	return storedDocument{
		ID:        doc.ID,
		URL:       doc.URL,
		Title:     doc.Title,
		RawText:   doc.RawText,
		Summary:   doc.Summary,
		KeyPoints: doc.KeyPoints,
		Entities:  doc.Entities,
		Embedding: embedding,
		CreatedAt: doc.CreatedAt,
	}
}

func (s *storedDocument) toDomain() domain.Document {
	return domain.Document{
		ID:        s.ID,
		URL:       s.URL,
		Title:     s.Title,
		RawText:   s.RawText,
		Summary:   s.Summary,
		KeyPoints: s.KeyPoints,
		Entities:  s.Entities,
		CreatedAt: s.CreatedAt,
	}
}
