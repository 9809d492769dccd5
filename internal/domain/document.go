package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document is an analyzed company page. Immutable once created except for
// entity enrichment merges; never physically deleted by the pipeline.
type Document struct {
	ID        string
	URL       string
	Title     string
	RawText   string
	Summary   string
	KeyPoints []string
	Entities  map[string]string
	CreatedAt time.Time
}

// NewDocument validates and creates a Document.
func NewDocument(id, url, title, rawText, summary string, keyPoints []string, entities map[string]string) (Document, error) {
	if id == "" {
		return Document{}, fmt.Errorf("document ID is required: %w", ErrInvalidRequest)
	}
	if url == "" {
		return Document{}, fmt.Errorf("document URL is required: %w", ErrInvalidRequest)
	}

	return Document{
		ID:        id,
		URL:       url,
		Title:     title,
		RawText:   rawText,
		Summary:   summary,
		KeyPoints: append([]string(nil), keyPoints...),
		Entities:  cloneStringMap(entities),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// retrievalTextRawCap bounds how much raw text participates in the
// embedding so one long page does not dominate the vector.
const retrievalTextRawCap = 3000

// RetrievalText composes the text a document is embedded and ranked by:
// title, URL, summary, and a bounded prefix of the raw text.
func (d *Document) RetrievalText() string {
	raw := d.RawText
	if len(raw) > retrievalTextRawCap {
		raw = raw[:retrievalTextRawCap]
	}

	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(d.Title)
	b.WriteString("\nURL: ")
	b.WriteString(d.URL)
	b.WriteString("\nSummary: ")
	b.WriteString(d.Summary)
	b.WriteString("\nText: ")
	b.WriteString(raw)
	return b.String()
}

// MergeEntities adds entries from extra, keeping existing values on key collision.
func (d *Document) MergeEntities(extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	if d.Entities == nil {
		d.Entities = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, exists := d.Entities[k]; !exists {
			d.Entities[k] = v
		}
	}
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
