// Package knowledge renders the project knowledge base and summary documents
// from the configuration. Absent fields fall back to canonical tokens
// (TARGET_COMPANY, TARGET_INDUSTRY, ...) so that marker substitution can
// replace them later once real values exist.
package knowledge

import (
	"fmt"
	"strings"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

// Canonical fallback tokens, one per field. Every renderer must use the same
// token for the same field.
const (
	TokenCompany       = "TARGET_COMPANY"
	TokenService       = "TARGET_SERVICE"
	TokenIndustry      = "TARGET_INDUSTRY"
	TokenLocation      = "TARGET_LOCATION"
	TokenPrefecture    = "TARGET_PREFECTURE"
	TokenCity          = "TARGET_CITY"
	TokenPrimarySvc    = "PRIMARY_SERVICE"
	TokenPriceRange    = "PRICE_RANGE"
	TokenSpecialOffers = "SPECIAL_OFFERS"
	TokenPhone         = "PHONE_NUMBER"
	TokenEmail         = "EMAIL_ADDRESS"
	TokenWebsite       = "WEBSITE_URL"
	TokenHours         = "BUSINESS_HOURS"
	TokenMarketSize    = "MARKET_SIZE"
	TokenGrowthRate    = "GROWTH_RATE"
	TokenCategory      = "CATEGORY"
	TokenPrimaryGoal   = "PRIMARY_GOAL"
	TokenTimeline      = "TIMELINE"
	TokenBudget        = "BUDGET"
)

func orToken(value, token string) string {
	if config.Provided(value) {
		return value
	}
	return token
}

// Base renders the knowledge/company-info.md document.
func Base(cfg *config.Config) string {
	company := cfg.Company
	industry := cfg.Industry

	var b strings.Builder

	name := orToken(company.Name, TokenCompany)
	fmt.Fprintf(&b, "# %s - 企業・業界情報\n\n", name)

	b.WriteString("## 企業概要\n\n### 基本情報\n")
	fmt.Fprintf(&b, "- **企業名**: %s\n", name)
	fmt.Fprintf(&b, "- **サービス名**: %s\n", orToken(company.BusinessName, TokenService))
	fmt.Fprintf(&b, "- **業界**: %s\n", orToken(company.Industry, TokenIndustry))
	fmt.Fprintf(&b, "- **主要営業地域**: %s\n", orToken(company.Location, TokenLocation))
	fmt.Fprintf(&b, "- **都道府県**: %s\n", orToken(company.Prefecture, TokenPrefecture))
	fmt.Fprintf(&b, "- **市区町村**: %s\n", orToken(company.City, TokenCity))

	b.WriteString("\n### 企業の特徴・強み\n")
	for _, feature := range company.KeyFeatures {
		fmt.Fprintf(&b, "- %s\n", feature)
	}

	b.WriteString("\n### サービス・料金\n")
	fmt.Fprintf(&b, "- **主要サービス**: %s\n", orToken(company.Services.PrimaryService, TokenPrimarySvc))
	fmt.Fprintf(&b, "- **価格帯**: %s\n", orToken(company.Services.PriceRange, TokenPriceRange))
	fmt.Fprintf(&b, "- **特別プラン**: %s\n", orToken(company.Services.SpecialOffers, TokenSpecialOffers))

	b.WriteString("\n### 連絡先・営業情報\n")
	fmt.Fprintf(&b, "- **電話**: %s\n", orToken(company.Contact.Phone, TokenPhone))
	fmt.Fprintf(&b, "- **メール**: %s\n", orToken(company.Contact.Email, TokenEmail))
	fmt.Fprintf(&b, "- **ウェブサイト**: %s\n", orToken(company.Contact.Website, TokenWebsite))
	fmt.Fprintf(&b, "- **営業時間**: %s\n", orToken(company.Contact.Hours, TokenHours))

	b.WriteString("\n## 業界情報\n\n### 業界概要\n")
	fmt.Fprintf(&b, "- **業界名**: %s\n", orToken(industry.Name, TokenIndustry))
	fmt.Fprintf(&b, "- **市場規模**: %s\n", orToken(industry.MarketSize, TokenMarketSize))
	fmt.Fprintf(&b, "- **成長率**: %s\n", orToken(industry.GrowthRate, TokenGrowthRate))

	b.WriteString("\n### 業界の特徴\n")
	for _, c := range industry.Characteristics {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n### 顧客特性\n")
	for _, c := range industry.CustomerBehavior {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n### 主要な課題\n")
	for _, c := range industry.Challenges {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\n## 競合分析対象\n\n")
	for i, comp := range cfg.Competitors.TargetCompanies {
		fmt.Fprintf(&b, "### 競合%d: %s\n", i+1, orToken(comp.Name, "COMPETITOR_NAME"))
		fmt.Fprintf(&b, "- **ウェブサイト**: %s\n", orToken(comp.Website, TokenWebsite))
		fmt.Fprintf(&b, "- **カテゴリ**: %s\n\n", orToken(comp.Category, TokenCategory))
	}

	b.WriteString("## SEO・マーケティング情報\n\n### ターゲットキーワード\n\n")
	b.WriteString("**メインキーワード**:\n")
	for _, kw := range cfg.SEO.PrimaryKeywords {
		fmt.Fprintf(&b, "- %s\n", kw)
	}
	b.WriteString("\n**サブキーワード**:\n")
	for _, kw := range cfg.SEO.SecondaryKeywords {
		fmt.Fprintf(&b, "- %s\n", kw)
	}
	b.WriteString("\n**地域特化キーワード**:\n")
	for _, kw := range cfg.SEO.LocalKeywords {
		fmt.Fprintf(&b, "- %s\n", kw)
	}

	return b.String()
}

// ProjectSummary renders the project-summary.md document.
func ProjectSummary(cfg *config.Config) string {
	company := cfg.Company
	goals := cfg.MarketingGoals

	var b strings.Builder
	b.WriteString("# プロジェクトサマリー\n\n## 対象企業\n")
	fmt.Fprintf(&b, "- **企業名**: %s\n", orToken(company.Name, TokenCompany))
	fmt.Fprintf(&b, "- **業界**: %s\n", orToken(company.Industry, TokenIndustry))
	fmt.Fprintf(&b, "- **地域**: %s\n", orToken(company.Location, TokenLocation))

	b.WriteString("\n## プロジェクト目標\n")
	fmt.Fprintf(&b, "- **主要目標**: %s\n", orToken(goals.PrimaryGoal, TokenPrimaryGoal))
	fmt.Fprintf(&b, "- **達成期間**: %s\n", orToken(goals.Timeline, TokenTimeline))
	fmt.Fprintf(&b, "- **予算**: %s\n", orToken(goals.Budget, TokenBudget))

	b.WriteString("\n## 期待される成果\n")
	for _, metric := range goals.TargetMetrics {
		fmt.Fprintf(&b, "- %s\n", metric)
	}

	return b.String()
}

// Summary renders the console config summary shown by the validate command.
func Summary(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("プロジェクト設定サマリー\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "企業名: %s\n", orToken(cfg.Company.Name, "未設定"))
	fmt.Fprintf(&b, "業界: %s\n", orToken(cfg.Company.Industry, "未設定"))
	fmt.Fprintf(&b, "地域: %s\n", orToken(cfg.Company.Location, "未設定"))
	fmt.Fprintf(&b, "競合企業数: %d社\n", len(cfg.Competitors.TargetCompanies))
	fmt.Fprintf(&b, "メインキーワード数: %d個\n", len(cfg.SEO.PrimaryKeywords))
	b.WriteString(strings.Repeat("=", 50))
	return b.String()
}
