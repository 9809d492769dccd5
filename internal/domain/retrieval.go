package domain

// RetrievalResult is one ranked document hit. Score is cosine similarity
// against the query vector; Rank is 1-based position after the stable
// descending sort.
type RetrievalResult struct {
	DocumentID string
	Score      float64
	Rank       int
}

// RankedDocument pairs a document with its retrieval score for downstream
// context assembly.
type RankedDocument struct {
	Document Document
	Score    float64
}

// DocumentVector is a stored document embedding, the retrieval candidate unit.
type DocumentVector struct {
	DocumentID string
	Embedding  []float32
}
