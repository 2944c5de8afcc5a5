package serp

import (
	"fmt"
	"log"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

// Competitor categories, in matching priority order.
const (
	CategoryMajorChain       = "major_chain"
	CategoryComparisonPortal = "comparison_portal"
	CategoryRegional         = "regional"
	CategoryInformational    = "informational"
	CategoryOther            = "other"
)

// Search intents with their opportunity weight.
const (
	IntentPrice         = "価格情報"
	IntentUrgent        = "緊急対応"
	IntentService       = "サービス検索"
	IntentComparison    = "評価・比較"
	IntentInformational = "情報収集"
)

// Competition strength levels. Weak competition scores highest.
const (
	StrengthWeak   = "弱"
	StrengthMedium = "中"
	StrengthStrong = "強"
)

var intentScores = map[string]int{
	IntentPrice:         5,
	IntentUrgent:        4,
	IntentService:       3,
	IntentComparison:    2,
	IntentInformational: 1,
}

var strengthScores = map[string]int{
	StrengthWeak:   3,
	StrengthMedium: 2,
	StrengthStrong: 1,
}

// Analysis depth limits.
const (
	topSitesPerKeyword  = 20 // detailed per-keyword listing
	statsSitesPerKeyword = 10 // feed the cross-keyword frequency table
	topCompetitorCount  = 10
	topOpportunityCount = 10
	titleSampleLen      = 50
)

// Searcher is the slice of Client the analyzer needs.
type Searcher interface {
	Search(keyword, location string) (*SearchResult, error)
}

// SiteInfo is one ranked organic result.
type SiteInfo struct {
	Rank     int    `json:"rank"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Domain   string `json:"domain"`
	Snippet  string `json:"snippet"`
	Category string `json:"category"`
}

// Features records which SERP features appeared for a keyword.
type Features struct {
	LocalPack       bool     `json:"local_pack"`
	AdsCount        int      `json:"ads_count"`
	PAAQuestions    []string `json:"paa_questions,omitempty"`
	KnowledgeGraph  bool     `json:"knowledge_graph"`
	FeaturedSnippet bool     `json:"featured_snippet"`
}

// KeywordInsight is the per-keyword analysis. OwnRank 0 means the company
// did not appear in the organic results.
type KeywordInsight struct {
	Keyword     string         `json:"keyword"`
	ResultCount int            `json:"result_count"`
	OwnRank     int            `json:"own_rank"`
	TopSites    []SiteInfo     `json:"top_sites"`
	Related     []string       `json:"related,omitempty"`
	Features    Features       `json:"features"`
	Categories  map[string]int `json:"categories"`
}

// CompetitorStat aggregates one domain across all analyzed keywords.
type CompetitorStat struct {
	Domain   string  `json:"domain"`
	Count    int     `json:"count"`
	AvgRank  float64 `json:"avg_rank"`
	Category string  `json:"category"`
	Strategy string  `json:"strategy"`
}

// FeatureCounts tallies how many keywords showed each SERP feature.
type FeatureCounts struct {
	LocalPack      int `json:"local_pack"`
	Ads            int `json:"ads"`
	PAA            int `json:"paa"`
	KnowledgeGraph int `json:"knowledge_graph"`
}

// Opportunity is a related-search keyword not yet targeted, scored by search
// intent and estimated competition strength.
type Opportunity struct {
	Keyword  string `json:"keyword"`
	Intent   string `json:"intent"`
	Strength string `json:"strength"`
	Score    int    `json:"score"`
}

// ContentGaps lists keywords where the company is absent and the competition
// profile suggests an opening.
type ContentGaps struct {
	AdvantageAreas []string `json:"advantage_areas"`
	UrgentIntents  []string `json:"urgent_intents"`
}

// Analysis is the full result of one analyzer run.
type Analysis struct {
	ExecutedAt     time.Time        `json:"executed_at"`
	Location       string           `json:"location"`
	CompanyDomain  string           `json:"company_domain"`
	TotalKeywords  int              `json:"total_keywords"`
	SuccessCount   int              `json:"success_count"`
	Keywords       []KeywordInsight `json:"keywords"`
	TopCompetitors []CompetitorStat `json:"top_competitors"`
	FeatureCounts  FeatureCounts    `json:"feature_counts"`
	Opportunities  []Opportunity    `json:"opportunities"`
	Gaps           ContentGaps      `json:"gaps"`
}

// Analyzer drives keyword analysis for one configuration.
type Analyzer struct {
	cfg    *config.Config
	client Searcher
	now    func() time.Time
}

// NewAnalyzer creates an analyzer bound to a configuration and a search
// client.
func NewAnalyzer(cfg *config.Config, client Searcher) *Analyzer {
	return &Analyzer{cfg: cfg, client: client, now: time.Now}
}

type competitorAccum struct {
	count    int
	rankSum  int
	category string
	titles   []string
}

// Run analyzes every keyword in order. Per-keyword failures are logged and
// skipped; the run fails only when no keyword succeeds.
func (a *Analyzer) Run(keywords []string) (*Analysis, error) {
	location := a.cfg.SEO.TargetLocation
	if !config.Provided(location) {
		location = a.cfg.Company.Location
	}

	analysis := &Analysis{
		ExecutedAt:    a.now(),
		Location:      location,
		CompanyDomain: a.cfg.SEO.CompanyDomain,
		TotalKeywords: len(keywords),
	}

	accum := map[string]*competitorAccum{}
	related := map[string]bool{}

	for _, keyword := range keywords {
		log.Printf("Analyzing keyword: %s", keyword)
		result, err := a.client.Search(keyword, location)
		if err != nil {
			log.Printf("Search failed for %q: %v", keyword, err)
			continue
		}
		if result == nil {
			log.Printf("Empty response for %q", keyword)
			continue
		}

		insight := a.extractInsight(keyword, result)
		analysis.Keywords = append(analysis.Keywords, insight)
		analysis.SuccessCount++

		for _, kw := range insight.Related {
			related[kw] = true
		}
		a.accumulate(insight, accum)
		countFeatures(insight, &analysis.FeatureCounts)
	}

	if analysis.SuccessCount == 0 && len(keywords) > 0 {
		return nil, fmt.Errorf("all %d keyword searches failed", len(keywords))
	}

	analysis.TopCompetitors = rankCompetitors(accum)
	analysis.Opportunities = a.discoverOpportunities(related, analysis.Keywords)
	analysis.Gaps = analyzeGaps(analysis.Keywords)
	return analysis, nil
}

// extractInsight converts one raw SERP response into a keyword insight.
func (a *Analyzer) extractInsight(keyword string, result *SearchResult) KeywordInsight {
	insight := KeywordInsight{
		Keyword:     keyword,
		ResultCount: len(result.OrganicResults),
		Categories: map[string]int{
			CategoryMajorChain:       0,
			CategoryComparisonPortal: 0,
			CategoryRegional:         0,
			CategoryInformational:    0,
			CategoryOther:            0,
		},
	}

	for i, organic := range result.OrganicResults {
		if i >= topSitesPerKeyword {
			break
		}
		site := SiteInfo{
			Rank:     i + 1,
			Title:    organic.Title,
			URL:      organic.Link,
			Domain:   extractDomain(organic.Link),
			Snippet:  truncate(organic.Snippet, 100),
			Category: a.Classify(organic.Link),
		}
		insight.TopSites = append(insight.TopSites, site)
		insight.Categories[site.Category]++

		if config.Provided(a.cfg.SEO.CompanyDomain) &&
			strings.Contains(strings.ToLower(organic.Link), strings.ToLower(a.cfg.SEO.CompanyDomain)) &&
			insight.OwnRank == 0 {
			insight.OwnRank = i + 1
		}
	}

	for _, rs := range result.RelatedSearches {
		if rs.Query != "" {
			insight.Related = append(insight.Related, rs.Query)
		}
	}

	for _, paa := range result.PeopleAlsoAsk {
		if paa.Question != "" {
			insight.Features.PAAQuestions = append(insight.Features.PAAQuestions, paa.Question)
		}
	}
	insight.Features.AdsCount = len(result.Ads)
	insight.Features.LocalPack = present(result.LocalResults)
	insight.Features.KnowledgeGraph = present(result.KnowledgeGraph)
	insight.Features.FeaturedSnippet = present(result.FeaturedSnippet)

	return insight
}

// Classify assigns a competitor category to a result URL. Matching runs in
// fixed priority order and the first hit wins.
func (a *Analyzer) Classify(resultURL string) string {
	if resultURL == "" {
		return CategoryOther
	}
	lower := strings.ToLower(resultURL)

	patterns := a.cfg.SEO.CompetitorPatterns
	groups := []struct {
		category string
		patterns []string
	}{
		{CategoryMajorChain, patterns.MajorChain},
		{CategoryComparisonPortal, patterns.ComparisonPortal},
		{CategoryRegional, patterns.Regional},
		{CategoryInformational, patterns.Informational},
	}
	for _, group := range groups {
		for _, pattern := range group.patterns {
			if pattern != "" && strings.Contains(lower, strings.ToLower(pattern)) {
				return group.category
			}
		}
	}
	return CategoryOther
}

// accumulate feeds the cross-keyword competitor table from the top ranks of
// one keyword, excluding the company's own domain.
func (a *Analyzer) accumulate(insight KeywordInsight, accum map[string]*competitorAccum) {
	own := strings.ToLower(a.cfg.SEO.CompanyDomain)
	for _, site := range insight.TopSites {
		if site.Rank > statsSitesPerKeyword || site.Domain == "" {
			continue
		}
		if own != "" && strings.Contains(strings.ToLower(site.Domain), own) {
			continue
		}
		entry, ok := accum[site.Domain]
		if !ok {
			entry = &competitorAccum{category: site.Category}
			accum[site.Domain] = entry
		}
		entry.count++
		entry.rankSum += site.Rank
		entry.titles = append(entry.titles, truncate(site.Title, titleSampleLen))
	}
}

func countFeatures(insight KeywordInsight, counts *FeatureCounts) {
	if insight.Features.LocalPack {
		counts.LocalPack++
	}
	if insight.Features.AdsCount > 0 {
		counts.Ads++
	}
	if len(insight.Features.PAAQuestions) > 0 {
		counts.PAA++
	}
	if insight.Features.KnowledgeGraph {
		counts.KnowledgeGraph++
	}
}

// rankCompetitors orders the accumulated domains by appearance count and
// keeps the strongest ones.
func rankCompetitors(accum map[string]*competitorAccum) []CompetitorStat {
	stats := make([]CompetitorStat, 0, len(accum))
	for domain, entry := range accum {
		stats = append(stats, CompetitorStat{
			Domain:   domain,
			Count:    entry.count,
			AvgRank:  float64(entry.rankSum) / float64(entry.count),
			Category: entry.category,
			Strategy: titleStrategy(entry.titles),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Domain < stats[j].Domain
	})
	if len(stats) > topCompetitorCount {
		stats = stats[:topCompetitorCount]
	}
	return stats
}

var japaneseWordRe = regexp.MustCompile(`[一-龯ァ-ヶー]+`)

// titleStrategy guesses a domain's SEO strategy from the Japanese terms its
// result titles repeat most.
func titleStrategy(titles []string) string {
	counts := map[string]int{}
	var order []string
	for _, title := range titles {
		for _, word := range japaneseWordRe.FindAllString(title, -1) {
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}
	if len(order) == 0 {
		return "パターン不明"
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 3 {
		order = order[:3]
	}
	return "よく使用: " + strings.Join(order, ", ")
}

// InferIntent guesses the search intent behind a keyword.
func InferIntent(keyword string) string {
	switch {
	case containsAny(keyword, "費用", "料金", "安い"):
		return IntentPrice
	case containsAny(keyword, "口コミ", "評判"):
		return IntentComparison
	case containsAny(keyword, "流れ", "手続き"):
		return IntentInformational
	case containsAny(keyword, "24時間", "急"):
		return IntentUrgent
	default:
		return IntentService
	}
}

// EstimateStrength guesses competition strength: keywords built on the core
// domain terms face medium competition, purely local ones weak, anything
// else strong.
func (a *Analyzer) EstimateStrength(keyword string) string {
	if containsAny(keyword, a.cfg.SEO.DomainTerms...) {
		return StrengthMedium
	}
	if containsAny(keyword, a.cfg.LocationTerms()...) {
		return StrengthWeak
	}
	return StrengthStrong
}

// OpportunityScore combines intent value and competition strength. Higher is
// better.
func OpportunityScore(intent, strength string) int {
	is, ok := intentScores[intent]
	if !ok {
		is = 1
	}
	ss, ok := strengthScores[strength]
	if !ok {
		ss = 1
	}
	return is + ss
}

// discoverOpportunities scores related-search keywords that are not already
// analyzed, keeping the best.
func (a *Analyzer) discoverOpportunities(related map[string]bool, insights []KeywordInsight) []Opportunity {
	analyzed := map[string]bool{}
	for _, insight := range insights {
		analyzed[insight.Keyword] = true
	}

	var opportunities []Opportunity
	for keyword := range related {
		if keyword == "" || analyzed[keyword] {
			continue
		}
		intent := InferIntent(keyword)
		strength := a.EstimateStrength(keyword)
		opportunities = append(opportunities, Opportunity{
			Keyword:  keyword,
			Intent:   intent,
			Strength: strength,
			Score:    OpportunityScore(intent, strength),
		})
	}
	sort.Slice(opportunities, func(i, j int) bool {
		if opportunities[i].Score != opportunities[j].Score {
			return opportunities[i].Score > opportunities[j].Score
		}
		return opportunities[i].Keyword < opportunities[j].Keyword
	})
	if len(opportunities) > topOpportunityCount {
		opportunities = opportunities[:topOpportunityCount]
	}
	return opportunities
}

// analyzeGaps finds keywords where the company is off-page and the
// competition profile leaves an opening: few major chains means an advantage
// area, a crowd of regional players calls for local content.
func analyzeGaps(insights []KeywordInsight) ContentGaps {
	var gaps ContentGaps
	for _, insight := range insights {
		if insight.OwnRank != 0 {
			continue
		}
		if insight.Categories[CategoryMajorChain] <= 2 {
			gaps.AdvantageAreas = append(gaps.AdvantageAreas,
				fmt.Sprintf("%s: 大手チェーン少数", insight.Keyword))
		}
		if insight.Categories[CategoryRegional] >= 3 {
			gaps.UrgentIntents = append(gaps.UrgentIntents,
				fmt.Sprintf("%s: 地域特化コンテンツ強化", insight.Keyword))
		}
	}
	return gaps
}

func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if term != "" && strings.Contains(s, term) {
			return true
		}
	}
	return false
}
