// Package websearch retrieves live web results through the Tavily search
// API and exposes them as a rag.Retriever.
//
// Web search is best effort: any transport, auth, or decoding failure is
// logged and yields an empty result list so the calling strategy can still
// answer from the model alone.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/brewchat/brewchat/internal/rag"
)

// DefaultBaseURL is the Tavily API endpoint used when none is configured.
const DefaultBaseURL = "https://api.tavily.com"

// maxResults caps how many results one search requests from Tavily.
const maxResults = 5

// searchDepth selects Tavily's deeper (slower, higher quality) crawl.
const searchDepth = "advanced"

// requestTimeout bounds one search round trip.
const requestTimeout = 15 * time.Second

// Client calls the Tavily search API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a Tavily client. baseURL falls back to DefaultBaseURL
// when empty.
func NewClient(apiKey, baseURL string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}, nil
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Result is one raw Tavily search hit.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// Search runs one Tavily search. It returns the raw results; a failing or
// non-2xx response is an error here, degradation happens in the Retriever.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(searchRequest{
		Query:       query,
		SearchDepth: searchDepth,
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, snippet)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return decoded.Results, nil
}

// Retriever adapts the Tavily client to the rag.Retriever interface.
type Retriever struct {
	client *Client
	logger *slog.Logger
}

// NewRetriever creates a web retriever over the given Tavily client.
func NewRetriever(client *Client, logger *slog.Logger) (*Retriever, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{client: client, logger: logger}, nil
}

// Retrieve searches the web for q.Text. Each document carries the result
// snippet as text with "title" and "url" metadata and the engine's relevance
// score. A failing search degrades to an empty list; only context
// cancellation surfaces as an error.
func (r *Retriever) Retrieve(ctx context.Context, q rag.Query) ([]rag.Document, error) {
	results, err := r.client.Search(ctx, q.Text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("web search failed, continuing without results", "error", err)
		return []rag.Document{}, nil
	}

	docs := make([]rag.Document, 0, len(results))
	for _, res := range results {
		r.logger.Debug("web search result", "title", res.Title, "url", res.URL)
		docs = append(docs, rag.Document{
			Text: res.Content,
			Metadata: map[string]string{
				"title": res.Title,
				"url":   res.URL,
			},
			Score: res.Score,
		})
	}
	return docs, nil
}
