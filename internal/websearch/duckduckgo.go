package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DuckDuckGo queries the DuckDuckGo Instant Answer API. It needs no API
// key, which keeps the search tool usable out of the box.
type DuckDuckGo struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo creates a DuckDuckGo provider. Zero values select sane
// defaults for every argument.
func NewDuckDuckGo(baseURL string, timeout time.Duration) *DuckDuckGo {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGo{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "metals-chat/1.0",
		client:    &http.Client{Timeout: timeout},
	}
}

func (p *DuckDuckGo) Name() string { return "duckduckgo" }

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"`
}

type ddgPayload struct {
	Heading      string `json:"Heading"`
	AbstractText string `json:"AbstractText"`
	AbstractURL  string `json:"AbstractURL"`
	Results      []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"Results"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

// Search runs one Instant Answer query and flattens the abstract, direct
// results and related topics into at most limit entries.
func (p *DuckDuckGo) Search(ctx context.Context, query string, limit int) (Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Response{}, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	var payload ddgPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Response{}, fmt.Errorf("failed to decode search response: %w", err)
	}

	collector := resultCollector{limit: limit, seen: make(map[string]bool), source: p.Name()}
	if payload.AbstractText != "" {
		title := payload.Heading
		if title == "" {
			title = payload.AbstractText
		}
		collector.add(title, payload.AbstractURL, payload.AbstractText)
	}
	for _, r := range payload.Results {
		collector.add(r.Text, r.FirstURL, r.Text)
	}
	collector.walk(payload.RelatedTopics)

	return Response{Query: query, Provider: p.Name(), Results: collector.results}, nil
}

type resultCollector struct {
	limit   int
	seen    map[string]bool
	source  string
	results []Result
}

func (c *resultCollector) add(title, link, snippet string) {
	if len(c.results) >= c.limit {
		return
	}
	link = strings.TrimSpace(link)
	if link == "" || c.seen[link] {
		return
	}
	c.seen[link] = true
	c.results = append(c.results, Result{
		Title:   strings.TrimSpace(title),
		URL:     link,
		Snippet: strings.TrimSpace(snippet),
		Source:  c.source,
	})
}

func (c *resultCollector) walk(topics []ddgTopic) {
	for _, topic := range topics {
		if len(c.results) >= c.limit {
			return
		}
		if len(topic.Topics) > 0 {
			c.walk(topic.Topics)
			continue
		}
		c.add(topic.Text, topic.FirstURL, topic.Text)
	}
}
