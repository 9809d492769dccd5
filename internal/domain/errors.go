package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidRequest signals a request that fails validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPageFetchFailed signals that a page could not be fetched for ingestion.
	ErrPageFetchFailed = errors.New("page fetch failed")
	// ErrProviderUnavailable signals an LLM provider failure.
	// Pipeline components absorb it into documented fallbacks; it surfaces
	// only from operations that have no fallback path (ingestion).
	ErrProviderUnavailable = errors.New("llm provider unavailable")
	// ErrMalformedPayload signals a structured LLM payload that failed schema validation.
	ErrMalformedPayload = errors.New("malformed llm payload")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)
