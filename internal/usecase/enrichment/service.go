// Package enrichment builds a company profile from several external
// sources at once. Sources are independent: each lookup runs with its
// own timeout and a failing source never aborts its siblings, so the
// aggregate succeeds with whatever subset came back.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bna-dev/prospector/internal/domain"
)

const (
	sourceTimeout   = 15 * time.Second
	synthTemp       = 0.3
	synthMaxTokens  = 1000
	githubOrgAPIFmt = "https://api.github.com/orgs/%s"
)

type source struct {
	name  string
	fetch func(ctx context.Context, company, companyDomain string) (string, error)
}

// Service aggregates source lookups and synthesizes a unified profile.
type Service struct {
	completer Completer
	sources   []source
	logger    *zap.Logger
}

func New(completer Completer, web WebProvider, httpClient *http.Client, logger *zap.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: sourceTimeout}
	}
	s := &Service{completer: completer, logger: logger}
	s.sources = []source{
		{name: "funding", fetch: searchSource(web, "%s funding investment rounds")},
		{name: "news", fetch: searchSource(web, "%s company news")},
		{name: "reviews", fetch: searchSource(web, "%s product reviews")},
		{name: "github", fetch: githubSource(httpClient)},
		{name: "company_page", fetch: pageSource(web)},
	}
	return s
}

// Enrich fans out to every source concurrently and synthesizes the
// successful payloads. It reports how many sources succeeded and never
// fails because individual sources did.
func (s *Service) Enrich(ctx context.Context, company, companyDomain string) domain.EnrichmentResult {
	payloads := make([]string, len(s.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range s.sources {
		g.Go(func() error {
			srcCtx, cancel := context.WithTimeout(gctx, sourceTimeout)
			defer cancel()

			payload, err := src.fetch(srcCtx, company, companyDomain)
			if err != nil {
				s.logger.Warn("enrichment source failed",
					zap.String("source", src.name),
					zap.Error(err))
				return nil
			}
			payloads[i] = payload
			return nil
		})
	}
	_ = g.Wait()

	raw := make(map[string]string)
	for i, src := range s.sources {
		if payloads[i] != "" {
			raw[src.name] = payloads[i]
		}
	}

	result := domain.EnrichmentResult{
		RawData:      raw,
		SourcesCount: len(raw),
		EnrichedAt:   time.Now().UTC(),
	}
	result.Profile = s.synthesize(ctx, company, raw)

	s.logger.Info("enrichment complete",
		zap.String("company", company),
		zap.Int("sources_ok", result.SourcesCount),
		zap.Int("sources_total", len(s.sources)))
	return result
}

const synthSystem = "You are a market analyst who builds executive company profiles for B2B sales teams."

func (s *Service) synthesize(ctx context.Context, company string, raw map[string]string) domain.CompanyProfile {
	if len(raw) == 0 {
		return fallbackProfile(company, 0)
	}

	var sb strings.Builder
	for name, payload := range raw {
		fmt.Fprintf(&sb, "%s:\n%s\n\n", strings.ToUpper(name), payload)
	}

	prompt := fmt.Sprintf(`Synthesize the information about %s from multiple sources into a unified executive profile.

COLLECTED INFORMATION:
%s
Respond with JSON only:
{"company_overview": "consolidated executive overview (150-250 words)", "funding_status": "funding status or 'Not identified'", "tech_stack": ["tech1"], "market_position": "market and industry position", "recent_activity": "relevant recent activity", "growth_signals": ["signal"], "risk_factors": ["risk"], "sales_approach": "recommended sales approach", "key_insights": ["actionable insight"]}

Be specific and factual. Write "Not identified" for fields the data does not cover.`, company, sb.String())

	result, err := s.completer.Complete(ctx, domain.CompletionRequest{
		System:      synthSystem,
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: prompt}},
		Temperature: synthTemp,
		MaxTokens:   synthMaxTokens,
		JSONOutput:  true,
	})
	if err != nil {
		s.logger.Warn("profile synthesis failed, using fallback profile", zap.Error(err))
		return fallbackProfile(company, len(raw))
	}

	var profile domain.CompanyProfile
	if err := json.Unmarshal([]byte(result.Content), &profile); err != nil {
		s.logger.Warn("profile synthesis unparseable, using fallback profile", zap.Error(err))
		return fallbackProfile(company, len(raw))
	}
	return profile
}

func fallbackProfile(company string, sourcesOK int) domain.CompanyProfile {
	return domain.CompanyProfile{
		CompanyOverview: fmt.Sprintf("Profile of %s assembled from %d external sources.", company, sourcesOK),
		FundingStatus:   "Not identified",
		MarketPosition:  "Analysis in progress",
		RecentActivity:  "See individual sources",
		SalesApproach:   "Consultative approach recommended",
		KeyInsights:     []string{"Multiple sources analyzed", "Profile under construction"},
	}
}

func searchSource(web WebProvider, queryFmt string) func(context.Context, string, string) (string, error) {
	return func(ctx context.Context, company, _ string) (string, error) {
		results := web.Search(ctx, fmt.Sprintf(queryFmt, company))
		if len(results) == 0 {
			return "", fmt.Errorf("no results for %q", company)
		}
		var sb strings.Builder
		for _, r := range results {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
		}
		return sb.String(), nil
	}
}

func pageSource(web WebProvider) func(context.Context, string, string) (string, error) {
	return func(ctx context.Context, _, companyDomain string) (string, error) {
		if companyDomain == "" {
			return "", fmt.Errorf("no company domain")
		}
		return web.FetchPage(ctx, "https://"+companyDomain)
	}
}

func githubSource(client *http.Client) func(context.Context, string, string) (string, error) {
	return func(ctx context.Context, company, _ string) (string, error) {
		slug := strings.ToLower(strings.NewReplacer(" ", "", ".", "").Replace(company))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(githubOrgAPIFmt, slug), nil)
		if err != nil {
			return "", fmt.Errorf("build github request: %w", err)
		}
		req.Header.Set("Accept", "application/vnd.github+json")

		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch github org: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("github org lookup: status %d", resp.StatusCode)
		}

		var org struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Blog        string `json:"blog"`
			PublicRepos int    `json:"public_repos"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&org); err != nil {
			return "", fmt.Errorf("decode github org: %w", err)
		}
		return fmt.Sprintf("Org: %s\nDescription: %s\nBlog: %s\nPublic repos: %d",
			org.Name, org.Description, org.Blog, org.PublicRepos), nil
	}
}
