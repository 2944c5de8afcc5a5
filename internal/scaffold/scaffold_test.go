package scaffold

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

const templateDoc = `# 競合分析
実行日時: <!-- TODO_EXECUTION_DATE -->
実行日時を記載
<!-- /TODO_EXECUTION_DATE -->
対象企業: TARGET_COMPANY
業界: TARGET_INDUSTRY
`

const requirementsDoc = `# LP要件
<!-- TODO_COMPETITOR_LP -->
競合LPの分析結果を記載
<!-- /TODO_COMPETITOR_LP -->
`

func testOptions(t *testing.T) Options {
	t.Helper()
	base := t.TempDir()

	templates := filepath.Join(base, "templates")
	if err := os.MkdirAll(templates, 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, templates, "01_competitor-analysis.md", templateDoc)
	write(t, templates, "04_lp-requirements.md", requirementsDoc)

	cfg := &config.Config{
		Company: config.Company{
			Name:     "株式会社テスト商事",
			Industry: "葬儀サービス業",
			Location: "横浜市",
		},
		Output: config.Output{
			Dir:         filepath.Join(base, "output"),
			TemplateDir: templates,
		},
	}

	return Options{
		Cfg:  cfg,
		Date: "20250615",
		Now:  func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.Local) },
	}
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunQuick(t *testing.T) {
	opts := testOptions(t)
	opts.Quick = true

	result, err := Run(opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Failed() {
		t.Fatalf("unexpected step failure: %+v", result.Steps)
	}
	if filepath.Base(result.ProjectDir) != "20250615" {
		t.Errorf("project dir should carry the date, got %s", result.ProjectDir)
	}

	analysis := read(t, result.ProjectDir, "01_competitor-analysis.md")
	if !strings.Contains(analysis, "株式会社テスト商事") {
		t.Error("company marker should be resolved")
	}
	if !strings.Contains(analysis, "2025年06月15日 10:00:00") {
		t.Error("execution date should be stamped")
	}

	if _, err := os.Stat(filepath.Join(result.ProjectDir, "knowledge", "company-info.md")); err != nil {
		t.Errorf("knowledge base missing: %v", err)
	}

	readme := read(t, result.ProjectDir, "README.md")
	if !strings.Contains(readme, "01_competitor-analysis.md") {
		t.Error("README should list project files")
	}

	for _, step := range result.Steps {
		if step.Name == "competitors" && step.Detail != "skipped" {
			t.Error("quick mode must skip the competitor fetch")
		}
	}
}

func TestRunAbortsOnExistingDir(t *testing.T) {
	opts := testOptions(t)
	opts.Quick = true
	if err := os.MkdirAll(filepath.Join(opts.Cfg.OutDir(), "20250615"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(opts); err != ErrAborted {
		t.Errorf("expected ErrAborted, got %v", err)
	}

	opts.Force = true
	if _, err := Run(opts); err != nil {
		t.Errorf("force should reuse the directory: %v", err)
	}
}

func TestRunConfirmReusesDir(t *testing.T) {
	opts := testOptions(t)
	opts.Quick = true
	if err := os.MkdirAll(filepath.Join(opts.Cfg.OutDir(), "20250615"), 0o755); err != nil {
		t.Fatal(err)
	}

	asked := false
	opts.Confirm = func(string) bool {
		asked = true
		return true
	}
	if _, err := Run(opts); err != nil {
		t.Fatalf("confirmed reuse should proceed: %v", err)
	}
	if !asked {
		t.Error("expected a confirmation prompt")
	}
}

func TestRunInjectsCompetitorReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html><head><title>A葬祭</title></head><body><h1>家族葬</h1></body></html>")
	}))
	defer srv.Close()

	opts := testOptions(t)
	opts.FetchTimeout = 5 * time.Second
	opts.Cfg.Competitors.TargetCompanies = []config.TargetCompany{
		{Name: "A葬祭", Website: srv.URL},
	}

	result, err := Run(opts)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Competitors == nil || len(result.Competitors.Saved) != 1 {
		t.Fatalf("expected 1 saved competitor, got %+v", result.Competitors)
	}

	requirements := read(t, result.ProjectDir, "04_lp-requirements.md")
	if !strings.Contains(requirements, "収集済み競合レポート") {
		t.Error("competitor report links should be injected")
	}
	if strings.Contains(requirements, "競合LPの分析結果を記載") {
		t.Error("placeholder content should be replaced")
	}
}

func TestRunReportsUnresolvedMarkers(t *testing.T) {
	opts := testOptions(t)
	opts.Quick = true
	opts.Cfg.Company = config.Company{} // nothing to substitute

	result, err := Run(opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Unresolved) == 0 {
		t.Error("unset config should leave unresolved markers")
	}
}

func read(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return string(data)
}
