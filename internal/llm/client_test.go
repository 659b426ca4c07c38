package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	c, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo", c.Model())
}

func TestCompleteSuccess(t *testing.T) {
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": `["삼겹살"]`}},
			},
		})
	}))
	defer server.Close()

	c, err := NewClient(Config{
		APIKey:    "sk-test",
		BaseURL:   server.URL,
		Model:     "gpt-3.5-turbo",
		MaxTokens: 150,
	})
	require.NoError(t, err)

	got, err := c.Complete(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, `["삼겹살"]`, got)

	assert.Equal(t, "gpt-3.5-turbo", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "system prompt", gotReq.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, 150, gotReq.MaxTokens)
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestCompleteNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "s", "p")
	require.Error(t, err)
}

func TestCompleteContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Complete(ctx, "s", "p")
	require.Error(t, err)
}

func TestMockClientScript(t *testing.T) {
	m := NewMockClient("first", "second")

	got, err := m.Complete(context.Background(), "s", "p")
	require.NoError(t, err)
	assert.Equal(t, "first", got)

	got, _ = m.Complete(context.Background(), "s", "p")
	assert.Equal(t, "second", got)

	// Last response repeats once the script runs out.
	got, _ = m.Complete(context.Background(), "s", "p")
	assert.Equal(t, "second", got)

	assert.Equal(t, 3, m.Calls())
}

func TestMockClientFail(t *testing.T) {
	sentinel := errors.New("boom")
	m := NewMockClient("ignored").Fail(sentinel)

	_, err := m.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, m.Calls())
}

func TestDisabledClient(t *testing.T) {
	_, err := DisabledClient{}.Complete(context.Background(), "s", "p")
	assert.ErrorIs(t, err, ErrDisabled)
}
