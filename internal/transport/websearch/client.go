// Package websearch provides web search and page scraping via the DuckDuckGo
// Instant Answer API and plain HTTP fetches. Both operations degrade to empty
// results on failure so callers never depend on the open web being reachable.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/bna-dev/prospector/internal/domain"
	"github.com/bna-dev/prospector/internal/textutil"
)

const (
	duckduckgoAPI  = "https://api.duckduckgo.com/"
	userAgent      = "Mozilla/5.0 (compatible; prospector/1.0)"
	maxPageChars   = 5000
	maxSnippetLen  = 100
	defaultTimeout = 15 * time.Second
)

// Client performs web searches and page fetches.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxResults int
	logger     *zap.Logger
}

// Config holds web search settings.
type Config struct {
	BaseURL    string // override for tests; defaults to the DuckDuckGo API
	MaxResults int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// NewClient creates a web search client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = duckduckgoAPI
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		maxResults: maxResults,
		logger:     cfg.Logger,
	}
}

// ddgResponse mirrors the DuckDuckGo Instant Answer API payload.
type ddgResponse struct {
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	Heading       string     `json:"Heading"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

// Search queries the web and returns up to the configured number of results.
// A failed or empty search yields an empty slice, never an error to the caller.
func (c *Client) Search(ctx context.Context, query string) []domain.WebResult {
	reqURL := fmt.Sprintf("%s?q=%s&format=json&no_html=1", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		c.logger.Warn("web search request build failed", zap.Error(err))
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("web search bad status", zap.Int("status", resp.StatusCode))
		return nil
	}

	var parsed ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.logger.Warn("web search decode failed", zap.Error(err))
		return nil
	}

	var results []domain.WebResult
	if parsed.AbstractText != "" && parsed.AbstractURL != "" {
		results = append(results, domain.WebResult{
			Title:   parsed.Heading,
			URL:     parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(results) >= c.maxResults {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		title := topic.Text
		if len(title) > maxSnippetLen {
			title = title[:maxSnippetLen]
		}
		results = append(results, domain.WebResult{
			Title:   title,
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
	}
	return results
}

// FetchPage downloads a page and returns its visible text capped at 5000 chars.
// Returns domain.ErrPageFetchFailed when the page cannot be retrieved.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", pageURL, domain.ErrPageFetchFailed)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, domain.ErrPageFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d: %w", pageURL, resp.StatusCode, domain.ErrPageFetchFailed)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", pageURL, domain.ErrPageFetchFailed)
	}

	text := textutil.CleanHTML(string(raw))
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, nil
}
