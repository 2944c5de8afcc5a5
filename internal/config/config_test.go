package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if Provided(cfg.Company.Name) {
		t.Errorf("expected placeholder company name, got %q", cfg.Company.Name)
	}
	if cfg.SEO.RequestDelaySec != 3 {
		t.Errorf("expected request delay 3, got %d", cfg.SEO.RequestDelaySec)
	}
	if cfg.Output.Dir != "output" {
		t.Errorf("expected output dir 'output', got %q", cfg.Output.Dir)
	}
	if len(cfg.SEO.CompetitorPatterns.MajorChain) == 0 {
		t.Error("expected default major chain patterns")
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
company:
  name: "和光商事"
  industry: "葬儀サービス業"
  location: "神奈川県横浜市"
seo:
  primary_keywords: ["葬儀 横浜", "家族葬 神奈川", "葬儀社 横浜"]
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Company.Name != "和光商事" {
		t.Errorf("unexpected company name %q", cfg.Company.Name)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Output.Dir != "output" {
		t.Errorf("expected default output dir, got %q", cfg.Output.Dir)
	}
	if len(cfg.SEO.CompetitorPatterns.ComparisonPortal) == 0 {
		t.Error("expected default comparison portal patterns")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project-config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.OutDir() != "output" {
		t.Errorf("expected output dir 'output', got %q", cfg.OutDir())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("company: [unterminated"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestValidateMissingName(t *testing.T) {
	cfg, _ := parse([]byte(`
company:
  industry: "葬儀サービス業"
  location: "横浜市"
`))
	errors, _ := cfg.Validate()
	if len(errors) == 0 {
		t.Fatal("expected validation errors")
	}
	found := false
	for _, e := range errors {
		if e == "company name is not set" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected company name error, got %v", errors)
	}
}

func TestValidatePlaceholderIsNotAValue(t *testing.T) {
	cfg, _ := parse(DefaultConfigYAML)
	errors, _ := cfg.Validate()
	if len(errors) != 3 {
		t.Errorf("expected 3 errors for untouched default config, got %v", errors)
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg, _ := parse([]byte(`
company:
  name: "和光商事"
  industry: "葬儀サービス業"
  location: "横浜市"
competitors:
  target_companies:
    - name: "A社"
      website: "https://a.example.com"
seo:
  primary_keywords: ["葬儀 横浜"]
`))
	errors, warnings := cfg.Validate()
	if len(errors) != 0 {
		t.Errorf("expected no errors, got %v", errors)
	}
	if len(warnings) != 2 {
		t.Errorf("expected 2 warnings (competitors, keywords), got %v", warnings)
	}
}

func TestAllKeywordsOrder(t *testing.T) {
	cfg := &Config{SEO: SEO{
		PrimaryKeywords:   []string{"a"},
		SecondaryKeywords: []string{"c"},
		LocalKeywords:     []string{"b"},
	}}
	got := cfg.AllKeywords()
	want := []string{"a", "b", "c"}
	if len(got) != 3 {
		t.Fatalf("expected 3 keywords, got %d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLocationTerms(t *testing.T) {
	cfg := &Config{Company: Company{
		Location:   "神奈川県横浜市",
		Prefecture: "神奈川県",
		City:       "市区町村を入力してください",
	}}
	terms := cfg.LocationTerms()
	if len(terms) != 2 {
		t.Errorf("expected 2 location terms, got %v", terms)
	}
}
