// Package scaffold creates a dated marketing-project workspace: it copies the
// document templates, resolves their TODO markers from the configuration,
// writes the knowledge base, and optionally collects competitor pages.
package scaffold

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pra-ai-team/marketing-agent/internal/competitors"
	"github.com/pra-ai-team/marketing-agent/internal/config"
	"github.com/pra-ai-team/marketing-agent/internal/knowledge"
	"github.com/pra-ai-team/marketing-agent/internal/markers"
)

// ErrAborted is returned when the user declines to reuse an existing
// project directory.
var ErrAborted = errors.New("setup aborted")

// requirementsFile is the template that receives the competitor report link.
const requirementsFile = "04_lp-requirements.md"

// Options controls a scaffold run.
type Options struct {
	Cfg             *config.Config
	Date            string // YYYYMMDD, empty means today
	Force           bool   // reuse an existing directory without asking
	SkipCompetitors bool
	SkipInject      bool
	Quick           bool // skip every network step
	FetchTimeout    time.Duration
	MaxCompetitors  int

	// Confirm asks the user a yes/no question. nil declines everything,
	// which keeps non-interactive runs safe.
	Confirm func(prompt string) bool

	Now func() time.Time
}

// StepResult records one scaffold step. A step error is not fatal unless the
// project directory itself could not be prepared.
type StepResult struct {
	Name   string
	Detail string
	Err    error
}

// Result summarizes a scaffold run.
type Result struct {
	ProjectDir  string
	Date        string
	Steps       []StepResult
	Competitors *competitors.Result
	Unresolved  map[string][]string // file -> leftover markers
}

// Failed reports whether any step recorded an error.
func (r *Result) Failed() bool {
	for _, step := range r.Steps {
		if step.Err != nil {
			return true
		}
	}
	return false
}

// Run executes the scaffold steps in order and returns the per-step outcome.
func Run(opts Options) (*Result, error) {
	if opts.Cfg == nil {
		return nil, errors.New("scaffold: nil config")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	date := opts.Date
	if date == "" {
		date = now().Format("20060102")
	}
	executedAt := now().Format("2006年01月02日 15:04:05")

	result := &Result{
		ProjectDir: filepath.Join(opts.Cfg.OutDir(), date),
		Date:       date,
	}

	if err := prepareDir(result.ProjectDir, opts); err != nil {
		return nil, err
	}
	result.step("directory", result.ProjectDir, nil)

	copied, err := copyTemplates(opts.Cfg, result.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("copying templates: %w", err)
	}
	result.step("templates", fmt.Sprintf("%d files copied", len(copied)), nil)

	if opts.SkipCompetitors || opts.Quick {
		result.step("competitors", "skipped", nil)
	} else {
		fetcher := competitors.NewFetcher(opts.FetchTimeout, opts.MaxCompetitors)
		compResult, err := fetcher.FetchAll(result.ProjectDir, opts.Cfg.Competitors.TargetCompanies)
		result.Competitors = compResult
		detail := ""
		if compResult != nil {
			detail = fmt.Sprintf("%d saved, %d skipped, %d failed",
				len(compResult.Saved), compResult.Skipped, compResult.Failed)
		}
		result.step("competitors", detail, err)
	}

	table := markers.DefaultTable(opts.Cfg, executedAt)
	updated, err := markers.UpdateDir(result.ProjectDir, table)
	result.step("markers", fmt.Sprintf("%d files updated", len(updated)), err)

	result.step("knowledge", "knowledge/company-info.md", writeKnowledge(opts.Cfg, result.ProjectDir))
	result.step("summary", "project-summary.md", writeSummary(opts.Cfg, result.ProjectDir, executedAt))
	result.step("readme", "README.md", writeReadme(opts.Cfg, result.ProjectDir, date))

	if opts.SkipInject || opts.Quick || result.Competitors == nil || len(result.Competitors.Saved) == 0 {
		result.step("inject", "skipped", nil)
	} else {
		result.step("inject", requirementsFile, injectCompetitors(result.ProjectDir, result.Competitors))
	}

	result.Unresolved = scanUnresolved(result.ProjectDir)

	for _, step := range result.Steps {
		if step.Err != nil {
			log.Printf("Step %s failed: %v", step.Name, step.Err)
		}
	}
	return result, nil
}

func (r *Result) step(name, detail string, err error) {
	r.Steps = append(r.Steps, StepResult{Name: name, Detail: detail, Err: err})
}

// prepareDir creates the project directory, asking before reusing an existing
// one unless force is set.
func prepareDir(dir string, opts Options) error {
	if info, err := os.Stat(dir); err == nil && info.IsDir() && !opts.Force {
		prompt := fmt.Sprintf("Directory %s already exists. Continue and overwrite? [y/N]: ", dir)
		if opts.Confirm == nil || !opts.Confirm(prompt) {
			return ErrAborted
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}
	return nil
}

// templateDir picks the template source: the configured directory first, then
// the bundled candidates.
func templateDir(cfg *config.Config) (string, error) {
	candidates := []string{cfg.Output.TemplateDir, "templates/generic", "templates"}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	return "", errors.New("no template directory found (looked for templates/generic and templates)")
}

// copyTemplates copies every top-level .md template into the project
// directory and returns the copied names.
func copyTemplates(cfg *config.Config, projectDir string) ([]string, error) {
	src, err := templateDir(cfg)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("reading template directory %s: %w", src, err)
	}

	var copied []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return copied, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(projectDir, entry.Name()), data, 0o644); err != nil {
			return copied, fmt.Errorf("writing template %s: %w", entry.Name(), err)
		}
		copied = append(copied, entry.Name())
	}
	sort.Strings(copied)
	return copied, nil
}

func writeKnowledge(cfg *config.Config, projectDir string) error {
	dir := filepath.Join(projectDir, "knowledge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "company-info.md"), []byte(knowledge.Base(cfg)), 0o644)
}

func writeSummary(cfg *config.Config, projectDir, executedAt string) error {
	doc := knowledge.ProjectSummary(cfg) + "\n作成日時: " + executedAt + "\n"
	return os.WriteFile(filepath.Join(projectDir, "project-summary.md"), []byte(doc), 0o644)
}

// writeReadme writes the project index. It is excluded from the date-mismatch
// check, so it carries the folder date rather than an execution timestamp.
func writeReadme(cfg *config.Config, projectDir, date string) error {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return err
	}

	var b strings.Builder
	name := cfg.Company.Name
	if !config.Provided(name) {
		name = "(未設定)"
	}
	fmt.Fprintf(&b, "# %s マーケティングプロジェクト (%s)\n\n", name, date)
	b.WriteString("## ファイル一覧\n")
	for _, entry := range entries {
		if entry.Name() == "README.md" {
			continue
		}
		suffix := ""
		if entry.IsDir() {
			suffix = "/"
		}
		fmt.Fprintf(&b, "- %s%s\n", entry.Name(), suffix)
	}
	return os.WriteFile(filepath.Join(projectDir, "README.md"), []byte(b.String()), 0o644)
}

// injectCompetitors replaces the COMPETITOR_LP block in the requirements
// template with links to the collected competitor reports.
func injectCompetitors(projectDir string, compResult *competitors.Result) error {
	path := filepath.Join(projectDir, requirementsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", requirementsFile, err)
	}

	var b strings.Builder
	b.WriteString("収集済み競合レポート:\n")
	for _, saved := range compResult.Saved {
		fmt.Fprintf(&b, "- [%s](%s) - %s\n", saved.Name, saved.SummaryPath, saved.URL)
	}
	b.WriteString("- [集計レポート](competitors/summary.md)\n")

	table := markers.Table{markers.WholeBlockRule("COMPETITOR_LP", b.String())}
	updated, changed := markers.Apply(string(data), table)
	if !changed {
		return fmt.Errorf("no COMPETITOR_LP block found in %s", requirementsFile)
	}
	return os.WriteFile(path, []byte(updated), 0o644)
}

// scanUnresolved lists leftover markers per top-level document.
func scanUnresolved(projectDir string) map[string][]string {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil
	}

	leftover := map[string][]string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(projectDir, entry.Name()))
		if err != nil {
			continue
		}
		if remaining := markers.Unresolved(string(data)); len(remaining) > 0 {
			leftover[entry.Name()] = remaining
		}
	}
	if len(leftover) == 0 {
		return nil
	}
	return leftover
}
