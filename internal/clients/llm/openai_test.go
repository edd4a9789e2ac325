package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(context.Background(), Config{
		Provider:  ProviderOpenAI,
		Model:     "gpt-4o",
		BaseURL:   baseURL,
		APIKey:    "sk-test",
		MaxTokens: 2048,
		Timeout:   5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestOpenAI_RoundTrip(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"rating\":\"HOLD\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 900, "completion_tokens": 120, "total_tokens": 1020}
		}`))
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	msg, err := client.Generate(context.Background(), chartMessages(), model.WithMaxTokens(1024))
	require.NoError(t, err)
	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"rating":"HOLD"}`, msg.Content)

	var modelName string
	require.NoError(t, json.Unmarshal(raw["model"], &modelName))
	assert.Equal(t, "gpt-4o", modelName)

	var maxTokens int
	require.NoError(t, json.Unmarshal(raw["max_tokens"], &maxTokens))
	assert.Equal(t, 1024, maxTokens)

	var messages []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	require.NoError(t, json.Unmarshal(raw["messages"], &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	require.NoError(t, json.Unmarshal(messages[1].Content, &parts))
	require.Len(t, parts, 2)
	assert.Equal(t, "image_url", parts[0].Type)
	require.NotNil(t, parts[0].ImageURL)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", parts[0].ImageURL.URL)
	assert.Equal(t, "text", parts[1].Type)
	assert.Equal(t, "analyze this chart", parts[1].Text)
}

func TestOpenAI_UnauthorizedMapsToAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided: sk-test","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	client := newOpenAITestClient(t, server.URL)
	_, err := client.Generate(context.Background(), chartMessages())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.True(t, IsAuthError(err))
}
