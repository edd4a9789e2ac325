package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL, apiKey string) *Client {
	t.Helper()
	client, err := New(context.Background(), Config{
		Provider:  ProviderAnthropic,
		Model:     "claude-test",
		BaseURL:   baseURL,
		APIKey:    apiKey,
		MaxTokens: 2048,
		Timeout:   5 * time.Second,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func chartMessages() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage("you are a chart analyst"),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      "data:image/png;base64,iVBORw0KGgo=",
						MIMEType: "image/png",
					},
				},
				{Type: schema.ChatMessagePartTypeText, Text: "analyze this chart"},
			},
		},
	}
}

func TestAnthropic_RequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-test", req.Model)
		assert.Equal(t, 2048, req.MaxTokens)
		assert.Equal(t, "you are a chart analyst", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		require.Len(t, req.Messages[0].Content, 2)

		img := req.Messages[0].Content[0]
		assert.Equal(t, "image", img.Type)
		require.NotNil(t, img.Source)
		assert.Equal(t, "base64", img.Source.Type)
		assert.Equal(t, "image/png", img.Source.MediaType)
		assert.Equal(t, "iVBORw0KGgo=", img.Source.Data)

		assert.Equal(t, "text", req.Messages[0].Content[1].Type)
		assert.Equal(t, "analyze this chart", req.Messages[0].Content[1].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"{\"rating\":\"BUY\"}"}],"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret-key")
	msg, err := client.Generate(context.Background(), chartMessages())
	require.NoError(t, err)

	assert.Equal(t, schema.Assistant, msg.Role)
	assert.Equal(t, `{"rating":"BUY"}`, msg.Content)
	require.NotNil(t, msg.ResponseMeta)
	assert.Equal(t, "end_turn", msg.ResponseMeta.FinishReason)
	assert.Equal(t, 15, msg.ResponseMeta.Usage.TotalTokens)
}

func TestAnthropic_MaxTokensOption(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 512, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret-key")
	_, err := client.Generate(context.Background(), chartMessages(), model.WithMaxTokens(512))
	require.NoError(t, err)
}

func TestAnthropic_ReturnsFirstTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"thinking"},{"type":"text","text":"first"},{"type":"text","text":"second"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret-key")
	msg, err := client.Generate(context.Background(), chartMessages())
	require.NoError(t, err)
	assert.Equal(t, "first", msg.Content)
}

func TestAnthropic_NoTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_2","content":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret-key")
	_, err := client.Generate(context.Background(), chartMessages())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text block")
}

func TestAnthropic_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "bad-key")
	_, err := client.Generate(context.Background(), chartMessages())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "authentication_error", apiErr.Type)
	assert.Equal(t, "invalid x-api-key", apiErr.Message)
	assert.True(t, IsAuthError(err))
}

func TestAnthropic_ServerErrorWithoutJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "secret-key")
	_, err := client.Generate(context.Background(), chartMessages())
	require.Error(t, err)

	assert.Equal(t, http.StatusBadGateway, StatusCode(err))
	assert.False(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClient_MissingKeyNeverCallsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")
	_, err := client.Generate(context.Background(), chartMessages())
	require.Error(t, err)

	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestImageSource(t *testing.T) {
	src := imageSource(&schema.ChatMessageImageURL{URL: "data:image/jpeg;base64,/9j/4AAQ"})
	assert.Equal(t, "base64", src.Type)
	assert.Equal(t, "image/jpeg", src.MediaType)
	assert.Equal(t, "/9j/4AAQ", src.Data)

	src = imageSource(&schema.ChatMessageImageURL{URL: "https://example.com/chart.png"})
	assert.Equal(t, "url", src.Type)
	assert.Equal(t, "https://example.com/chart.png", src.URL)
}

func TestBuildAnthropicRequest_RequiresUserMessage(t *testing.T) {
	_, err := buildAnthropicRequest([]*schema.Message{schema.SystemMessage("only system")}, "m", 10)
	assert.Error(t, err)
}
