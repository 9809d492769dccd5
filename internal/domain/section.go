package domain

import (
	"strings"
	"unicode"
)

// Importance grades how central a section is to its parent document.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// ParseImportance normalizes a model-supplied importance label.
// Unknown labels degrade to medium rather than failing the split.
func ParseImportance(s string) Importance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "alta":
		return ImportanceHigh
	case "low", "baixa":
		return ImportanceLow
	default:
		return ImportanceMedium
	}
}

// Section is a topically coherent sub-part of a document, produced by
// LLM decomposition. Ephemeral per processing run.
type Section struct {
	ParentDocumentID string
	Title            string
	Content          string
	FocusArea        string
	Importance       Importance
}

// SectionMetadata holds deterministic, locally computed section signals.
type SectionMetadata struct {
	WordCount      int
	HasNumbers     bool
	HasProperNouns bool
}

// ExtractMetadata computes section metadata. Never fails.
func (s *Section) ExtractMetadata() SectionMetadata {
	words := strings.Fields(s.Content)

	meta := SectionMetadata{WordCount: len(words)}
	for _, r := range s.Content {
		if unicode.IsDigit(r) {
			meta.HasNumbers = true
			break
		}
	}
	for _, w := range words {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			meta.HasProperNouns = true
			break
		}
	}
	return meta
}

// SummarizedSection pairs a section with its executive summary and metadata.
type SummarizedSection struct {
	Section  Section
	Summary  string
	Metadata SectionMetadata
}

// ProcessedDocument is the output of hierarchical processing for one document.
type ProcessedDocument struct {
	DocumentID    string
	Title         string
	Sections      []SummarizedSection
	TotalSections int
}

// SelectedSection is one selector pick, validated against the candidate set.
type SelectedSection struct {
	DocumentID     string
	SectionTitle   string
	RelevanceScore float64
	Reason         string
}
