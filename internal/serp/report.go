package serp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var categoryLabels = map[string]string{
	CategoryMajorChain:       "大手チェーン",
	CategoryComparisonPortal: "比較ポータル",
	CategoryRegional:         "地域密着",
	CategoryInformational:    "情報サイト",
	CategoryOther:            "その他",
}

// CategoryLabel returns the Japanese report label for a competitor category.
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}

// RankLabel formats an organic rank for reports; rank 0 means off-page.
func RankLabel(rank int) string {
	if rank == 0 {
		return "圏外"
	}
	return fmt.Sprintf("%d位", rank)
}

// SavedReport names the files one analysis run produced.
type SavedReport struct {
	JSONPath     string
	MarkdownPath string
}

// Save writes the analysis as JSON plus a Markdown summary into outDir.
// Filenames carry the execution timestamp so repeated runs never collide.
func Save(analysis *Analysis, companyName, outDir string) (*SavedReport, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	stamp := analysis.ExecutedAt.Format("20060102_150405")

	saved := &SavedReport{
		JSONPath:     filepath.Join(outDir, fmt.Sprintf("seo-analysis-dynamic_%s.json", stamp)),
		MarkdownPath: filepath.Join(outDir, fmt.Sprintf("seo-analysis-summary_%s.md", stamp)),
	}

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling analysis: %w", err)
	}
	if err := os.WriteFile(saved.JSONPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing JSON report: %w", err)
	}

	md := RenderMarkdown(analysis, companyName)
	if err := os.WriteFile(saved.MarkdownPath, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("writing Markdown report: %w", err)
	}
	return saved, nil
}

// RenderMarkdown builds the Japanese summary report.
func RenderMarkdown(analysis *Analysis, companyName string) string {
	var b strings.Builder
	executedAt := analysis.ExecutedAt.Format("2006年01月02日 15:04:05")

	fmt.Fprintf(&b, "# %s SEO分析・改善提案（SerpAPI動的分析結果）\n\n", companyName)
	b.WriteString("## 分析実行情報\n")
	fmt.Fprintf(&b, "- **分析日時**: %s\n", executedAt)
	fmt.Fprintf(&b, "- **対象地域**: %s\n", analysis.Location)
	fmt.Fprintf(&b, "- **分析キーワード数**: %dキーワード\n", analysis.TotalKeywords)
	fmt.Fprintf(&b, "- **データ取得成功率**: %d/%d (%s)\n", analysis.SuccessCount, analysis.TotalKeywords,
		percent(analysis.SuccessCount, analysis.TotalKeywords))

	b.WriteString("\n## リアルタイム順位・競合分析\n\n")
	fmt.Fprintf(&b, "### 現在の%s順位状況\n", companyName)
	b.WriteString("| キーワード | 現在順位 | 1位サイト | 2位サイト | 3位サイト |\n")
	b.WriteString("|------------|----------|-----------|-----------|-----------|\n")
	for _, insight := range analysis.Keywords {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			insight.Keyword, RankLabel(insight.OwnRank),
			topDomain(insight, 0), topDomain(insight, 1), topDomain(insight, 2))
	}

	b.WriteString("\n### 競合SERP分析結果\n\n#### 主要競合パターン\n")
	for i, stat := range analysis.TopCompetitors {
		fmt.Fprintf(&b, "\n%d. **%s**: %dキーワードで上位表示（平均%.1f位）\n",
			i+1, stat.Domain, stat.Count, stat.AvgRank)
		fmt.Fprintf(&b, "   - カテゴリ: %s\n", CategoryLabel(stat.Category))
		fmt.Fprintf(&b, "   - SEO戦略: %s\n", stat.Strategy)
	}

	counts := analysis.FeatureCounts
	b.WriteString("\n#### SERP機能分析\n")
	fmt.Fprintf(&b, "- **ローカルパック表示**: %dキーワード（%s）\n", counts.LocalPack, percent(counts.LocalPack, analysis.SuccessCount))
	fmt.Fprintf(&b, "- **広告表示**: %dキーワード（%s）\n", counts.Ads, percent(counts.Ads, analysis.SuccessCount))
	fmt.Fprintf(&b, "- **PAA表示**: %dキーワード（%s）\n", counts.PAA, percent(counts.PAA, analysis.SuccessCount))
	fmt.Fprintf(&b, "- **ナレッジグラフ**: %dキーワード（%s）\n", counts.KnowledgeGraph, percent(counts.KnowledgeGraph, analysis.SuccessCount))

	b.WriteString("\n## 動的発見キーワード機会\n\n### 新規ターゲットキーワード（関連検索から発見）\n")
	for i, opp := range analysis.Opportunities {
		fmt.Fprintf(&b, "%d. **%s** - 検索意図: %s - 競合強度: %s\n", i+1, opp.Keyword, opp.Intent, opp.Strength)
	}

	b.WriteString("\n### コンテンツギャップ分析結果\n\n")
	fmt.Fprintf(&b, "#### %sが優位に立てる領域\n", companyName)
	for _, gap := range analysis.Gaps.AdvantageAreas {
		fmt.Fprintf(&b, "- %s\n", gap)
	}
	b.WriteString("\n#### 即座に対応すべき検索意図\n")
	for _, intent := range analysis.Gaps.UrgentIntents {
		fmt.Fprintf(&b, "1. %s\n", intent)
	}

	fmt.Fprintf(&b, "\n---\n*このファイルはSerpAPIリアルタイムデータ（%s）に基づく分析結果です*\n", executedAt)
	return b.String()
}

func topDomain(insight KeywordInsight, index int) string {
	if index >= len(insight.TopSites) {
		return "-"
	}
	return insight.TopSites[index].Domain
}

func percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
