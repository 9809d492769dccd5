package domain

import "time"

// CompanyProfile is the synthesized executive profile produced by
// multi-source enrichment.
type CompanyProfile struct {
	CompanyOverview string   `json:"company_overview"`
	FundingStatus   string   `json:"funding_status"`
	TechStack       []string `json:"tech_stack"`
	MarketPosition  string   `json:"market_position"`
	RecentActivity  string   `json:"recent_activity"`
	GrowthSignals   []string `json:"growth_signals"`
	RiskFactors     []string `json:"risk_factors"`
	SalesApproach   string   `json:"sales_approach"`
	KeyInsights     []string `json:"key_insights"`
}

// EnrichmentResult aggregates whatever subset of sources succeeded.
// SourcesCount reports successes; the operation itself never fails
// solely because individual sources failed.
type EnrichmentResult struct {
	RawData      map[string]string `json:"raw_data"`
	Profile      CompanyProfile    `json:"profile"`
	SourcesCount int               `json:"sources_count"`
	EnrichedAt   time.Time         `json:"enriched_at"`
}
