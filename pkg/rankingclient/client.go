// Package rankingclient provides a thin HTTP client for the ranking API.
package rankingclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tastemap/ranking-engine/internal/ranking"
)

// Re-export result types for public API consumers.
type (
	Result    = ranking.Result
	Meta      = ranking.Meta
	Candidate = ranking.Candidate
	Position  = ranking.Position
)

// Client talks to a ranking API server.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Config holds client options.
type Config struct {
	BaseURL string // e.g. "http://localhost:8090"
	Timeout time.Duration
}

// New creates a ranking API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// SearchRequest is a ranking query.
type SearchRequest struct {
	Sentence string    `json:"sentence,omitempty"`
	Keywords []string  `json:"keywords,omitempty"`
	Position *Position `json:"position,omitempty"`
	RadiusKm *float64  `json:"radiusKm,omitempty"`
}

// Search runs a ranking query via POST /v1/search/places/keyword.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/search/places/keyword", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var result Result
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchByKeywords runs the fast keyword path via GET /v1/search/places.
// Position and radius are optional; pass nil to omit them.
func (c *Client) SearchByKeywords(ctx context.Context, keywords []string, position *Position, radiusKm *float64) (*Result, error) {
	q := url.Values{}
	q.Set("keywords", strings.Join(keywords, ","))
	if position != nil {
		q.Set("lat", strconv.FormatFloat(position.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(position.Lon, 'f', -1, 64))
	}
	if radiusKm != nil {
		q.Set("range", strconv.FormatFloat(*radiusKm, 'f', -1, 64))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/search/places?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var result Result
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// KeywordsResponse is the autocomplete payload.
type KeywordsResponse struct {
	Query    string   `json:"query,omitempty"`
	Keywords []string `json:"keywords"`
	Total    int      `json:"total"`
}

// Keywords fetches keyword suggestions via GET /v1/keywords.
func (c *Client) Keywords(ctx context.Context, query string) (*KeywordsResponse, error) {
	u := c.baseURL + "/v1/keywords"
	if query != "" {
		u += "?q=" + url.QueryEscape(query)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var resp KeywordsResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RebuildIndex triggers an index rebuild via POST /v1/admin/index/rebuild
// and returns the resulting keyword count.
func (c *Client) RebuildIndex(ctx context.Context) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/admin/index/rebuild", nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	var resp struct {
		Keywords int `json:"keywords"`
	}
	if err := c.do(httpReq, &resp); err != nil {
		return 0, err
	}
	return resp.Keywords, nil
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	var resp struct {
		Status string `json:"status"`
	}
	return c.do(httpReq, &resp)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			if apiErr.Detail != "" {
				return fmt.Errorf("API error: %s (%s)", apiErr.Error, apiErr.Detail)
			}
			return fmt.Errorf("API error: %s", apiErr.Error)
		}
		return fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
