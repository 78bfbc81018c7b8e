// Package tools gives the LLM workflow its web research capability: a
// DuckDuckGo search client and a registry of travel-shaped search tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const duckDuckGoBase = "https://api.duckduckgo.com/"

// SearchResult is one hit returned by a search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// DuckDuckGo queries the keyless instant answer API.
type DuckDuckGo struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDuckDuckGo creates a search client.
func NewDuckDuckGo(logger *zap.Logger) *DuckDuckGo {
	return &DuckDuckGo{
		baseURL:    duckDuckGoBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type ddgResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search runs a query and returns at most limit results.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("no_redirect", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		d.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error %d", resp.StatusCode)
	}

	var parsed ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var results []SearchResult
	if parsed.AbstractText != "" {
		title := parsed.Heading
		if title == "" {
			title = query
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:   truncate(topic.Text, 60),
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
		if len(results) >= limit {
			break
		}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	d.logger.Debug("search complete",
		zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
