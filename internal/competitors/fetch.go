// Package competitors downloads competitor pages listed in the configuration
// and distills them into per-competitor fact sheets plus an aggregate index.
// Every competitor is processed in isolation: a failed fetch still yields a
// stub summary and never aborts the batch.
package competitors

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/temoto/robotstxt"

	"github.com/pra-ai-team/marketing-agent/internal/config"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Extraction caps per page.
const (
	maxH1       = 5
	maxH2       = 8
	maxH3       = 10
	maxCTALinks = 10
)

// ctaMarkers identify call-to-action anchors by href or text.
var ctaMarkers = []string{
	"tel:", "mailto:", "contact", "inquiry", "form", "contact-us",
	"reserve", "booking", "資料", "問い合わせ", "予約",
}

// Link is an extracted anchor.
type Link struct {
	Text string
	Href string
}

// PageFacts holds the structured facts extracted from one competitor page.
type PageFacts struct {
	Title           string
	OGTitle         string
	MetaDescription string
	Canonical       string
	H1              []string
	H2              []string
	H3              []string
	CTALinks        []Link
	Excerpt         string
	FeedEntries     []string
}

// Saved describes one persisted competitor summary.
type Saved struct {
	Name        string
	URL         string
	SummaryPath string // relative to the project directory
}

// Result holds the outcome of a competitor fetch run.
type Result struct {
	Saved   []Saved
	Skipped int
	Failed  int
}

// Fetcher fetches competitor pages subject to robots-exclusion rules.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limit     int
}

// NewFetcher creates a fetcher. limit caps the number of competitors
// processed; zero means no cap.
func NewFetcher(timeout time.Duration, limit int) *Fetcher {
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		limit:     limit,
	}
}

// FetchAll processes every configured competitor with a URL, writing
// competitors/<slug>/{raw.html,summary.md} under projectDir plus the
// aggregate competitors/summary.md index.
func (f *Fetcher) FetchAll(projectDir string, companies []config.TargetCompany) (*Result, error) {
	baseDir := filepath.Join(projectDir, "competitors")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating competitors directory: %w", err)
	}

	targets := companies
	if f.limit > 0 && len(targets) > f.limit {
		targets = targets[:f.limit]
	}

	result := &Result{}
	var index []string

	for i, comp := range targets {
		name := comp.Name
		if name == "" {
			name = fmt.Sprintf("Competitor %d", i+1)
		}
		if comp.Website == "" {
			log.Printf("Competitor %q has no URL, skipping", name)
			result.Skipped++
			continue
		}

		if !f.allowed(comp.Website) {
			log.Printf("Blocked by robots.txt, skipping: %s", comp.Website)
			result.Skipped++
			continue
		}

		log.Printf("Fetching competitor: %s - %s", name, comp.Website)
		html, status := f.fetchPage(comp.Website)
		if html == nil {
			result.Failed++
		}

		compDir := filepath.Join(baseDir, Slug(comp.Website))
		if err := os.MkdirAll(compDir, 0o755); err != nil {
			log.Printf("Failed to create %s: %v", compDir, err)
			result.Failed++
			continue
		}

		var facts *PageFacts
		if html != nil {
			if err := os.WriteFile(filepath.Join(compDir, "raw.html"), html, 0o644); err != nil {
				log.Printf("Failed to save raw HTML for %s: %v", name, err)
			}
			var err error
			facts, err = f.extractFacts(html, comp.Website)
			if err != nil {
				log.Printf("Extraction failed for %s: %v", comp.Website, err)
			}
		}

		summaryPath := filepath.Join(compDir, "summary.md")
		summary := renderSummary(name, comp.Website, status, facts)
		if err := os.WriteFile(summaryPath, []byte(summary), 0o644); err != nil {
			log.Printf("Failed to write summary for %s: %v", name, err)
			continue
		}
		if html == nil {
			continue
		}

		rel, _ := filepath.Rel(projectDir, summaryPath)
		rel = filepath.ToSlash(rel)
		index = append(index,
			fmt.Sprintf("## %s", name),
			fmt.Sprintf("- URL: %s", comp.Website),
			fmt.Sprintf("- レポート: %s", rel),
			"",
		)
		result.Saved = append(result.Saved, Saved{Name: name, URL: comp.Website, SummaryPath: rel})
	}

	indexDoc := append([]string{"# 競合サイト収集レポート", ""}, index...)
	indexPath := filepath.Join(baseDir, "summary.md")
	if err := os.WriteFile(indexPath, []byte(strings.Join(indexDoc, "\n")), 0o644); err != nil {
		return result, fmt.Errorf("writing aggregate index: %w", err)
	}

	log.Printf("Competitor fetch complete: %d saved, %d skipped, %d failed",
		len(result.Saved), result.Skipped, result.Failed)
	return result, nil
}

// allowed checks the site's robots policy for our user agent. Failure to
// fetch or parse the policy grants permission (fail-open, matching a site
// that simply has no robots.txt).
func (f *Fetcher) allowed(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}

	robotsURL := parsed.Scheme + "://" + parsed.Host + "/robots.txt"
	req, err := http.NewRequest("GET", robotsURL, nil)
	if err != nil {
		return true
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return true
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return true
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true
	}
	robots, err := robotstxt.FromBytes(body)
	if err != nil {
		return true
	}
	return robots.TestAgent(parsed.RequestURI(), f.userAgent)
}

// fetchPage downloads the page body. A nil body with a status string means
// the fetch failed; the caller still writes a stub summary.
func (f *Fetcher) fetchPage(pageURL string) ([]byte, string) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Sprintf("取得失敗: %v", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Sprintf("取得失敗: %v", err)
	}
	defer resp.Body.Close()

	status := fmt.Sprintf("HTTP %d", resp.StatusCode)
	if resp.StatusCode >= 400 {
		return nil, status
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Sprintf("取得失敗: %v", err)
	}
	return body, status
}

// extractFacts pulls the structured facts out of a fetched page.
func (f *Fetcher) extractFacts(html []byte, pageURL string) (*PageFacts, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	facts := &PageFacts{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	facts.OGTitle, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	facts.OGTitle = strings.TrimSpace(facts.OGTitle)

	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		facts.MetaDescription = strings.TrimSpace(desc)
	} else if og, ok := doc.Find(`meta[property="og:description"]`).First().Attr("content"); ok {
		facts.MetaDescription = strings.TrimSpace(og)
	}

	if canonical, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		facts.Canonical = strings.TrimSpace(canonical)
	}

	facts.H1 = headings(doc, "h1", maxH1)
	facts.H2 = headings(doc, "h2", maxH2)
	facts.H3 = headings(doc, "h3", maxH3)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		text := strings.TrimSpace(sel.Text())
		if len([]rune(text)) > 60 {
			text = string([]rune(text)[:60])
		}
		if isCTA(href, text) {
			facts.CTALinks = append(facts.CTALinks, Link{Text: text, Href: href})
		}
		return len(facts.CTALinks) < maxCTALinks
	})

	if parsed, err := url.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(bytes.NewReader(html), parsed); err == nil {
			facts.Excerpt = excerpt(article.TextContent, 300)
		}
	}

	facts.FeedEntries = f.fetchFeedEntries(doc, pageURL)

	return facts, nil
}

func headings(doc *goquery.Document, tag string, max int) []string {
	var out []string
	doc.Find(tag).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
			out = append(out, text)
		}
		return len(out) < max
	})
	return out
}

func isCTA(href, text string) bool {
	h := strings.ToLower(href)
	t := strings.ToLower(text)
	for _, marker := range ctaMarkers {
		if strings.Contains(h, marker) || strings.Contains(t, marker) {
			return true
		}
	}
	return false
}

func excerpt(text string, maxRunes int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Slug derives a directory name from a competitor URL's host, folding every
// non-alphanumeric character to an underscore.
func Slug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "competitor"
	}
	host := parsed.Host
	if host == "" {
		host = parsed.Path
	}
	slug := slugRe.ReplaceAllString(host, "_")
	if strings.Trim(slug, "_") == "" {
		return "competitor"
	}
	return slug
}

// renderSummary builds the per-competitor summary.md. facts may be nil when
// the fetch failed.
func renderSummary(name, pageURL, status string, facts *PageFacts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# 競合: %s\n\n", name)
	fmt.Fprintf(&b, "- URL: %s\n", pageURL)
	fmt.Fprintf(&b, "- 取得結果: %s\n\n", status)

	if facts == nil {
		b.WriteString("取得に失敗したため内容はありません。\n")
		return b.String()
	}

	b.WriteString("## ページ概要\n")
	fmt.Fprintf(&b, "- タイトル: %s\n", orDash(facts.Title))
	fmt.Fprintf(&b, "- og:title: %s\n", orDash(facts.OGTitle))
	fmt.Fprintf(&b, "- メタディスクリプション: %s\n", orDash(facts.MetaDescription))
	fmt.Fprintf(&b, "- カノニカル: %s\n", orDash(facts.Canonical))

	b.WriteString("\n## 見出し\n### H1\n")
	writeList(&b, facts.H1)
	b.WriteString("\n### H2\n")
	writeList(&b, facts.H2)
	b.WriteString("\n### H3\n")
	writeList(&b, facts.H3)

	if len(facts.CTALinks) > 0 {
		b.WriteString("\n## 主要CTA（推定）\n")
		for _, link := range facts.CTALinks {
			fmt.Fprintf(&b, "- [%s](%s)\n", link.Text, link.Href)
		}
	}

	if facts.Excerpt != "" {
		b.WriteString("\n## 本文抜粋\n")
		b.WriteString(facts.Excerpt + "\n")
	}

	if len(facts.FeedEntries) > 0 {
		b.WriteString("\n## 最近の更新（フィード）\n")
		for _, entry := range facts.FeedEntries {
			fmt.Fprintf(&b, "- %s\n", entry)
		}
	}

	return b.String()
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- -\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
