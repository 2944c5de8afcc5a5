// Package markers implements the template marker substitution engine.
//
// Templates carry bounded marker blocks such as
//
//	<!-- TODO_COMPANY_NAME -->
//	企業名を記載
//	<!-- /TODO_COMPANY_NAME -->
//
// plus bare legacy tokens ("TODO: 実行日時を記載") and literal substrings left
// over from the funeral-industry templates. Substitution replaces the inner
// placeholder with a real value while keeping the delimiters, so a second
// pass over a resolved document changes nothing.
package markers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

// Rule is one (pattern, replacement) pair. Rules are applied in declaration
// order, document-wide, once per rule; ordering is significant because a
// later rule may re-match text produced by an earlier one.
type Rule struct {
	re          *regexp.Regexp
	replacement string
}

// Table is an ordered list of substitution rules.
type Table []Rule

// BlockRule replaces a bounded marker block whose inner text is still the
// template placeholder. The delimiters are preserved around the new value.
func BlockRule(name, placeholder, value string) Rule {
	pattern := fmt.Sprintf(`<!-- TODO_%s -->\s*%s\s*<!-- /TODO_%s -->`,
		name, regexp.QuoteMeta(placeholder), name)
	replacement := fmt.Sprintf("<!-- TODO_%s -->\n%s\n<!-- /TODO_%s -->", name, value, name)
	return Rule{re: regexp.MustCompile(pattern), replacement: replacement}
}

// WholeBlockRule replaces a bounded marker block wholesale, whatever its
// current inner content. Used for guidance injection.
func WholeBlockRule(name, inner string) Rule {
	pattern := fmt.Sprintf(`<!-- TODO_%s -->[\s\S]*?<!-- /TODO_%s -->`, name, name)
	replacement := fmt.Sprintf("<!-- TODO_%s -->\n%s\n<!-- /TODO_%s -->", name, inner, name)
	return Rule{re: regexp.MustCompile(pattern), replacement: replacement}
}

// TokenRule replaces a bare legacy token matched by pattern.
func TokenRule(pattern, value string) Rule {
	return Rule{re: regexp.MustCompile(pattern), replacement: value}
}

// LiteralRule replaces a fixed substring.
func LiteralRule(old, value string) Rule {
	return Rule{re: regexp.MustCompile(regexp.QuoteMeta(old)), replacement: value}
}

// Apply runs every rule against the document in table order and reports
// whether any rule changed the text.
func Apply(text string, table Table) (string, bool) {
	original := text
	for _, rule := range table {
		text = rule.re.ReplaceAllLiteralString(text, rule.replacement)
	}
	return text, text != original
}

// DefaultTable builds the substitution table for a project run. executedAt is
// the formatted execution datetime (YYYY年MM月DD日 HH:MM:SS). Rules for
// unset config fields are omitted so their markers survive for a later pass.
func DefaultTable(cfg *config.Config, executedAt string) Table {
	table := Table{
		BlockRule("EXECUTION_DATE", "実行日時を記載", executedAt),
		TokenRule(`TODO:\s*実行日時を記載`, executedAt),
	}

	name := cfg.Company.Name
	if config.Provided(name) {
		table = append(table,
			LiteralRule("TARGET_COMPANY", name),
			// Legacy funeral templates hard-coded the example company.
			// The long form must run before the bare brand name.
			LiteralRule("株式会社和光商事：和光葬儀社", name),
			LiteralRule("和光葬儀社", name),
			BlockRule("COMPANY_NAME", "企業名を記載", name),
		)
	}

	industry := cfg.Company.Industry
	if config.Provided(industry) {
		table = append(table,
			LiteralRule("TARGET_INDUSTRY", industry),
			LiteralRule("葬儀業界", industry),
			LiteralRule("葬儀サービス業", industry),
			BlockRule("INDUSTRY_NAME", "業界名を記載", industry),
		)
	}

	if config.Provided(cfg.Company.Location) {
		table = append(table, LiteralRule("TARGET_LOCATION", cfg.Company.Location))
	}

	// Bare fallback tokens for the remaining profile fields. Unset fields
	// keep their token visible so the gap is obvious in the document.
	tokens := []struct {
		token string
		value string
	}{
		{"TARGET_PHONE", cfg.Company.Contact.Phone},
		{"TARGET_EMAIL", cfg.Company.Contact.Email},
		{"TARGET_WEBSITE", cfg.Company.Contact.Website},
		{"TARGET_PRIMARY_SERVICE", cfg.Company.Services.PrimaryService},
		{"TARGET_PRICE_RANGE", cfg.Company.Services.PriceRange},
		{"TARGET_SPECIAL_OFFERS", cfg.Company.Services.SpecialOffers},
		{"TARGET_PRIMARY_GOAL", cfg.MarketingGoals.PrimaryGoal},
		{"TARGET_TIMELINE", cfg.MarketingGoals.Timeline},
		{"TARGET_BUDGET", cfg.MarketingGoals.Budget},
	}
	for _, t := range tokens {
		if config.Provided(t.value) {
			table = append(table, LiteralRule(t.token, t.value))
		}
	}

	return table
}

// UpdateDir applies the table to every top-level .md file in dir and returns
// the names of files it modified. Per-file I/O failures are logged and do not
// abort the pass.
func UpdateDir(dir string, table Table) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}

	var updated []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", entry.Name(), err)
			continue
		}

		text, changed := Apply(string(data), table)
		if !changed {
			continue
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			log.Printf("Failed to write %s: %v", entry.Name(), err)
			continue
		}
		updated = append(updated, entry.Name())
	}

	return updated, nil
}

var (
	blockMarkerRe = regexp.MustCompile(`<!-- TODO_(\w+) -->([\s\S]*?)<!-- /TODO_\w+ -->`)
	bareTokenRe   = regexp.MustCompile(`TODO:\s*\S[^\n]*`)
)

// placeholder instructions a template leaves inside an unresolved block
var placeholderHints = []string{"を記載", "ここに入力", config.Placeholder}

// Unresolved returns the names of markers still awaiting substitution: block
// markers whose inner text looks like a template instruction, and bare TODO
// tokens. A document is complete when this is empty.
func Unresolved(text string) []string {
	var remaining []string
	for _, m := range blockMarkerRe.FindAllStringSubmatch(text, -1) {
		inner := m[2]
		for _, hint := range placeholderHints {
			if strings.Contains(inner, hint) {
				remaining = append(remaining, m[1])
				break
			}
		}
	}
	// Strip resolved blocks before scanning for bare tokens so a block's
	// delimiters are not double counted.
	stripped := blockMarkerRe.ReplaceAllString(text, "")
	remaining = append(remaining, bareTokenRe.FindAllString(stripped, -1)...)
	return remaining
}
