// Package serp runs keyword analysis against live Google search results via
// the SerpAPI service: per-keyword rank and feature extraction, competitor
// aggregation, and opportunity discovery.
package serp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://serpapi.com/search"

// requestDelay paces requests to stay inside the free-plan rate limit.
const requestDelay = 3 * time.Second

// SearchResult is the subset of a SerpAPI response the analyzer consumes.
// Feature sections are kept raw; only their presence matters.
type SearchResult struct {
	OrganicResults  []OrganicResult   `json:"organic_results"`
	RelatedSearches []RelatedSearch   `json:"related_searches"`
	PeopleAlsoAsk   []PAAQuestion     `json:"people_also_ask"`
	Ads             []json.RawMessage `json:"ads"`
	LocalResults    json.RawMessage   `json:"local_results"`
	KnowledgeGraph  json.RawMessage   `json:"knowledge_graph"`
	FeaturedSnippet json.RawMessage   `json:"featured_snippet"`
}

type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

type RelatedSearch struct {
	Query string `json:"query"`
}

type PAAQuestion struct {
	Question string `json:"question"`
}

// present reports whether a raw feature section exists in the response.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// Client is a SerpAPI HTTP client with built-in request pacing.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client

	delay time.Duration
	sleep func(time.Duration)
	calls int
}

// NewClient creates a SerpAPI client. baseURL overrides the production
// endpoint when non-empty.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		delay:   requestDelay,
		sleep:   time.Sleep,
	}
}

// SetDelay overrides the inter-request pacing delay.
func (c *Client) SetDelay(d time.Duration) {
	c.delay = d
}

// Search fetches Google results for one keyword. Every call after the first
// waits the pacing delay before issuing the request.
func (c *Client) Search(keyword, location string) (*SearchResult, error) {
	if c.calls > 0 && c.delay > 0 {
		c.sleep(c.delay)
	}
	c.calls++

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", keyword)
	params.Set("location", location)
	params.Set("hl", "ja")
	params.Set("gl", "jp")
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(100))

	resp, err := c.client.Get(c.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("serpapi request for %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi returned %d for %q: %s", resp.StatusCode, keyword, body)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding serpapi response for %q: %w", keyword, err)
	}
	return &result, nil
}
