package knowledge

import (
	"strings"
	"testing"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

func sampleConfig() *config.Config {
	return &config.Config{
		Company: config.Company{
			Name:        "Acme Funeral Co.",
			Industry:    "funeral services",
			Location:    "Yokohama",
			KeyFeatures: []string{"追加料金なし", "24時間対応"},
		},
		Competitors: config.Competitors{TargetCompanies: []config.TargetCompany{
			{Name: "A社", Website: "https://a.example.com", Category: "大手チェーン"},
		}},
		SEO: config.SEO{PrimaryKeywords: []string{"葬儀 横浜"}},
	}
}

func TestBaseUsesConfigValues(t *testing.T) {
	text := Base(sampleConfig())

	for _, want := range []string{"Acme Funeral Co.", "funeral services", "Yokohama", "追加料金なし", "葬儀 横浜", "競合1: A社"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected knowledge base to contain %q", want)
		}
	}
	if strings.Contains(text, TokenCompany) {
		t.Error("company token should be substituted when name is set")
	}
}

func TestBaseFallbackTokens(t *testing.T) {
	text := Base(&config.Config{})

	for _, token := range []string{TokenCompany, TokenIndustry, TokenLocation, TokenPhone, TokenWebsite} {
		if !strings.Contains(text, token) {
			t.Errorf("expected fallback token %q in knowledge base", token)
		}
	}
}

func TestBasePlaceholderTreatedAsAbsent(t *testing.T) {
	cfg := &config.Config{Company: config.Company{Name: "企業名" + config.Placeholder}}
	text := Base(cfg)
	if !strings.Contains(text, TokenCompany) {
		t.Error("placeholder value should fall back to TARGET_COMPANY")
	}
}

func TestProjectSummary(t *testing.T) {
	cfg := sampleConfig()
	cfg.MarketingGoals = config.MarketingGoals{
		PrimaryGoal:   "問い合わせ数の増加",
		TargetMetrics: []string{"月間問い合わせ20件"},
	}
	text := ProjectSummary(cfg)

	if !strings.Contains(text, "問い合わせ数の増加") {
		t.Error("expected primary goal in summary")
	}
	if !strings.Contains(text, "月間問い合わせ20件") {
		t.Error("expected target metric in summary")
	}
	if !strings.Contains(text, TokenTimeline) {
		t.Error("expected timeline fallback token in summary")
	}
}

func TestConsoleSummary(t *testing.T) {
	text := Summary(sampleConfig())
	if !strings.Contains(text, "競合企業数: 1社") {
		t.Errorf("expected competitor count, got:\n%s", text)
	}
	if !strings.Contains(text, "メインキーワード数: 1個") {
		t.Errorf("expected keyword count, got:\n%s", text)
	}
}
