package competitors

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const maxFeedEntries = 5

// fetchFeedEntries looks for an advertised RSS/Atom feed in the page head and
// returns a few recent entry lines. An unreachable or malformed feed yields
// nothing; competitor summaries never fail over feed problems.
func (f *Fetcher) fetchFeedEntries(doc *goquery.Document, pageURL string) []string {
	feedURL := discoverFeedURL(doc, pageURL)
	if feedURL == "" {
		return nil
	}

	parser := gofeed.NewParser()
	parser.Client = f.client
	parser.UserAgent = f.userAgent

	feed, err := parser.ParseURL(feedURL)
	if err != nil || feed == nil {
		return nil
	}

	var entries []string
	for _, item := range feed.Items {
		if len(entries) >= maxFeedEntries {
			break
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		if item.PublishedParsed != nil {
			entries = append(entries, fmt.Sprintf("%s (%s)", title, item.PublishedParsed.Format("2006-01-02")))
		} else {
			entries = append(entries, title)
		}
	}
	return entries
}

// discoverFeedURL returns the first alternate RSS/Atom link, resolved against
// the page URL.
func discoverFeedURL(doc *goquery.Document, pageURL string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	var feedURL string
	doc.Find(`link[rel="alternate"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		linkType, _ := sel.Attr("type")
		if linkType != "application/rss+xml" && linkType != "application/atom+xml" {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		feedURL = base.ResolveReference(ref).String()
		return false
	})
	return feedURL
}
