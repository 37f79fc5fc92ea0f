// Package search provides the web search collaborator: a Tavily-style HTTP
// client plus a caching decorator that serves repeated queries from the
// shared TTL store.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

const (
	defaultBaseURL    = "https://api.tavily.com"
	defaultDepth      = "basic"
	defaultMaxResults = 5

	// 429 handling: doubling backoff capped per wait, bounded attempts.
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	maxAttempts    = 5
)

// Client calls a Tavily-compatible search API.
type Client struct {
	apiKey     string
	baseURL    string
	depth      string
	maxResults int
	backoff    time.Duration
	httpClient *http.Client
}

// Options tune the client. Zero values fall back to production defaults.
type Options struct {
	BaseURL      string
	Depth        string // basic or advanced
	MaxResults   int
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// NewClient constructs a search client. The API key is required; everything
// else defaults.
func NewClient(apiKey string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Depth == "" {
		opts.Depth = defaultDepth
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = initialBackoff
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		depth:      opts.Depth,
		maxResults: opts.MaxResults,
		backoff:    opts.RetryBackoff,
		httpClient: opts.HTTPClient,
	}
}

type searchRequest struct {
	Query      string `json:"query"`
	APIKey     string `json:"api_key"`
	Depth      string `json:"depth"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search posts a query and returns up to maxResults documents tagged with
// category. On 429 it backs off and retries with doubling delay; after
// maxAttempts it gives up with ErrRateLimited. The hit flag is always false
// here: a plain client never serves from cache.
func (c *Client) Search(ctx context.Context, query string, category contracts.CacheCategory) ([]contracts.SourceDocument, bool, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return nil, false, eris.New("search: api key missing")
	}
	if strings.TrimSpace(query) == "" {
		return nil, false, fmt.Errorf("search: empty query: %w", contracts.ErrInvalidInput)
	}

	payload, err := json.Marshal(searchRequest{
		Query:      query,
		APIKey:     c.apiKey,
		Depth:      c.depth,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return nil, false, eris.Wrap(err, "search: encode request")
	}

	url := strings.TrimRight(c.baseURL, "/") + "/search"

	var resp *http.Response
	delay := c.backoff
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, false, eris.Wrap(err, "search: build request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			return nil, false, eris.Wrap(err, "search: request failed")
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		if attempt >= maxAttempts {
			return nil, false, fmt.Errorf("search: gave up after %d attempts: %w", attempt, contracts.ErrRateLimited)
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(delay):
		}
		if delay < maxBackoff {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, eris.Errorf("search: http %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, eris.Wrap(err, "search: decode response")
	}

	now := time.Now().UTC()
	if category == "" {
		category = contracts.CacheSearch
	}
	docs := make([]contracts.SourceDocument, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		docs = append(docs, contracts.SourceDocument{
			Query:     query,
			URL:       r.URL,
			Title:     r.Title,
			Snippet:   r.Content,
			Category:  category,
			FetchedAt: now,
		})
		if len(docs) >= c.maxResults {
			break
		}
	}
	return docs, false, nil
}
