package anthropic_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodnorm/internal/completion"
	anthropic "prodnorm/internal/completion/anthropic"
	"prodnorm/internal/config"
	"prodnorm/internal/domain"
	"prodnorm/internal/prompt"
)

func newAnthropicTestClient(serverURL string) *anthropic.Client {
	cfg := &config.CompletionConfig{
		Provider:    "anthropic",
		APIKey:      "test-anthropic-key",
		Model:       "claude-sonnet-4-20250514",
		BaseURL:     serverURL,
		TimeoutSecs: 30,
	}
	return anthropic.NewClient(cfg)
}

func anthropicSuccessResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":    "msg_01",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"stop_reason": "end_turn",
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	responseBody := anthropicSuccessResponse(`{"name": "Moringa Oil"}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-anthropic-key", r.Header.Get("X-Api-Key"))
		assert.NotEmpty(t, r.Header.Get("Anthropic-Version"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(4096), reqBody["max_tokens"])

		system := reqBody["system"].([]interface{})
		require.Len(t, system, 1)
		sysBlock := system[0].(map[string]interface{})
		assert.Equal(t, prompt.SystemMessage, sysBlock["text"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	c := newAnthropicTestClient(server.URL)

	text, err := c.Complete(context.Background(), "normalize this product")
	require.NoError(t, err)
	assert.Equal(t, `{"name": "Moringa Oil"}`, text)
}

func TestClient_Complete_RateLimitWithRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))
	defer server.Close()

	c := newAnthropicTestClient(server.URL)

	text, err := c.Complete(context.Background(), "hi")
	assert.Empty(t, text)
	require.Error(t, err)

	var rlErr *completion.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "anthropic", rlErr.Provider)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
}

func TestClient_Complete_RateLimitWithoutRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"rate limited"}}`))
	}))
	defer server.Close()

	c := newAnthropicTestClient(server.URL)

	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)

	var rlErr *completion.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 60*time.Second, rlErr.RetryAfter)
}

func TestClient_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	c := newAnthropicTestClient(server.URL)

	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calling anthropic API")

	var rlErr *completion.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}

func TestClient_Complete_NoTextBlocks(t *testing.T) {
	responseBody := map[string]interface{}{
		"id":    "msg_02",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-20250514",
		"content": []map[string]interface{}{
			{"type": "tool_use", "id": "tu_01", "name": "noop", "input": map[string]interface{}{}},
		},
		"stop_reason": "tool_use",
		"usage": map[string]interface{}{
			"input_tokens":  10,
			"output_tokens": 5,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	c := newAnthropicTestClient(server.URL)

	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}
