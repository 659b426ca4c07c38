// Package llm provides the chat-completion client used for keyword expansion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Completer defines the completion interface. The expander treats every
// failure as recoverable, so implementations only need to report errors
// faithfully, not retry.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Client provides chat completions against an OpenAI-compatible API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
}

// Config holds completion client configuration.
type Config struct {
	APIKey      string
	Model       string // e.g. "gpt-3.5-turbo"
	BaseURL     string // Default: https://api.openai.com/v1
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewClient creates a new completion client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete sends a chat completion request and returns the raw assistant text.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
			return "", fmt.Errorf("API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return "", fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Model returns the model being used.
func (c *Client) Model() string {
	return c.model
}

// MockClient provides a scripted completion client for tests.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

// NewMockClient creates a mock client returning the given responses in order.
// The last response repeats once the script is exhausted.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// Fail makes every subsequent Complete call return err.
func (m *MockClient) Fail(err error) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Complete returns the next scripted response or the configured error.
func (m *MockClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	if m.calls <= len(m.responses) {
		return m.responses[m.calls-1], nil
	}
	return m.responses[len(m.responses)-1], nil
}

// Calls returns the number of Complete invocations.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ErrDisabled is returned by the disabled client; callers fall back to their
// deterministic local paths.
var ErrDisabled = errors.New("llm provider not configured")

// DisabledClient is used when no API key is configured. Every call fails
// with ErrDisabled so expansion degrades to the local fallback.
type DisabledClient struct{}

// Complete always returns ErrDisabled.
func (DisabledClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	return "", ErrDisabled
}

// Ensure implementations satisfy the interface.
var (
	_ Completer = (*Client)(nil)
	_ Completer = (*MockClient)(nil)
	_ Completer = DisabledClient{}
)
