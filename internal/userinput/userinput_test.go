package userinput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

const sampleForm = `# ご依頼内容の入力フォーム

### 1-1. 企業名
- ここに入力: 株式会社テスト商事

### 1-2. 主な営業地域
- ここに入力: 神奈川県横浜市
- 都道府県: 神奈川県
- 市区町村: 横浜市

### 1-3. 公式サイトURL
- ここに入力: https://test-shouji.example.com

### 2-2. 強み・特徴
- ここに入力1: 追加料金なしの明朗会計
- ここに入力2: 24時間365日対応
- ここに入力3: （例：専門資格者が在籍）

### 2-3. 競合候補
- 競合1 名前: A葬祭
- URL: https://a-sousai.example.com
- カテゴリ: 地域密着
- 競合2 名前: Bセレモニー
- URL: https://b-ceremony.example.com
- カテゴリ: 大手チェーン

### 2-5. 連絡先
- 電話: 045-000-0000
- メール: ここに入力

### 2-6. LPの目的
- 目的: 問い合わせ獲得
- アクション: 電話相談
`

func TestParseFields(t *testing.T) {
	update := Parse(sampleForm)

	company, _ := update["company"].(map[string]any)
	if company == nil {
		t.Fatal("expected company section in update")
	}
	if company["name"] != "株式会社テスト商事" {
		t.Errorf("unexpected company name: %v", company["name"])
	}
	if company["prefecture"] != "神奈川県" {
		t.Errorf("unexpected prefecture: %v", company["prefecture"])
	}

	contact, _ := company["contact"].(map[string]any)
	if contact == nil || contact["phone"] != "045-000-0000" {
		t.Errorf("expected phone in contact, got %v", contact)
	}
	if _, ok := contact["email"]; ok {
		t.Error("placeholder email must be discarded")
	}

	features, _ := company["key_features"].([]any)
	if len(features) != 2 {
		t.Errorf("expected 2 features (example text dropped), got %v", features)
	}
}

func TestParseCompetitorBlocks(t *testing.T) {
	update := Parse(sampleForm)

	competitors, _ := update["competitors"].(map[string]any)
	if competitors == nil {
		t.Fatal("expected competitors section")
	}
	list, _ := competitors["target_companies"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 competitors, got %d", len(list))
	}
	first, _ := list[0].(map[string]any)
	if first["name"] != "A葬祭" || first["category"] != "地域密着" {
		t.Errorf("unexpected first competitor: %v", first)
	}
}

func TestBlankFormTemplateYieldsNothing(t *testing.T) {
	if update := Parse(string(FormTemplate)); len(update) != 0 {
		t.Errorf("untouched form template must produce no update, got %v", update)
	}
}

func TestParseEmptyFormYieldsNothing(t *testing.T) {
	form := "### 1-1. 企業名\n- ここに入力: \n\n### 1-3. 公式サイトURL\n- ここに入力: ここに入力\n"
	if update := Parse(form); len(update) != 0 {
		t.Errorf("expected empty update, got %v", update)
	}
}

func TestMergeRecordsDottedPaths(t *testing.T) {
	base := map[string]any{
		"company": map[string]any{"name": "旧社名", "industry": "葬儀サービス業"},
	}
	update := map[string]any{
		"company":      map[string]any{"name": "新社名"},
		"landing_page": map[string]any{"purpose": "問い合わせ獲得"},
	}

	changed := Merge(base, update, "")
	if len(changed) != 2 {
		t.Fatalf("expected 2 changed keys, got %v", changed)
	}
	if changed[0] != "company.name" || changed[1] != "landing_page.purpose" {
		t.Errorf("unexpected changed keys: %v", changed)
	}

	company := base["company"].(map[string]any)
	if company["industry"] != "葬儀サービス業" {
		t.Error("merge must preserve untouched base fields")
	}
	if company["name"] != "新社名" {
		t.Error("merge must overwrite leaf values")
	}
}

func TestApplyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	formPath := filepath.Join(dir, "user_input.md")
	configPath := filepath.Join(dir, "input", "project-config.yaml")

	if err := os.WriteFile(formPath, []byte(sampleForm), 0o644); err != nil {
		t.Fatal(err)
	}

	applied, changed, err := Apply(formPath, configPath)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !applied {
		t.Fatal("expected update to be applied")
	}
	if len(changed) == 0 {
		t.Fatal("expected changed keys")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("reloading merged config: %v", err)
	}
	if cfg.Company.Name != "株式会社テスト商事" {
		t.Errorf("round-trip company name mismatch: %q", cfg.Company.Name)
	}
	if len(cfg.Competitors.TargetCompanies) != 2 {
		t.Errorf("round-trip competitors mismatch: %v", cfg.Competitors.TargetCompanies)
	}
}

func TestApplyPreservesExistingConfig(t *testing.T) {
	dir := t.TempDir()
	formPath := filepath.Join(dir, "user_input.md")
	configPath := filepath.Join(dir, "project-config.yaml")

	existing := "company:\n  name: 旧社名\n  industry: 葬儀サービス業\nseo:\n  primary_keywords:\n    - 葬儀 横浜\n"
	os.WriteFile(configPath, []byte(existing), 0o644)
	os.WriteFile(formPath, []byte("### 1-1. 企業名\n- ここに入力: 新社名\n"), 0o644)

	if _, _, err := Apply(formPath, configPath); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Company.Name != "新社名" {
		t.Errorf("expected overwritten name, got %q", cfg.Company.Name)
	}
	if cfg.Company.Industry != "葬儀サービス業" {
		t.Error("industry should survive the merge")
	}
	if len(cfg.SEO.PrimaryKeywords) != 1 {
		t.Error("seo keywords should survive the merge")
	}
}
