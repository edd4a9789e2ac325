// Package llm provides the process-wide handle to the multimodal model
// provider that produces chart analyses.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Supported providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
)

// Config describes which provider and model to talk to.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// ChatModel is the subset of the eino model contract the analysis flow needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client is immutable after New and safe for concurrent use.
type Client struct {
	provider string
	model    string
	apiKey   string
	chat     ChatModel
	log      zerolog.Logger
}

// New builds the provider-specific chat model. A missing API key is not an
// error here; it surfaces as a 401 on the first Generate call.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderAnthropic
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("llm model is required")
	}

	c := &Client{
		provider: provider,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		log:      log.With().Str("component", "llm").Str("provider", provider).Logger(),
	}

	switch provider {
	case ProviderAnthropic:
		c.chat = newAnthropicModel(cfg)
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			break
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		maxTokens := cfg.MaxTokens
		chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:   baseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
			Timeout:   cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create openai chat model: %w", err)
		}
		c.chat = chat
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}

	c.log.Info().Str("model", cfg.Model).Bool("credential", cfg.APIKey != "").Msg("LLM client ready")
	return c, nil
}

// Provider returns the configured provider name
func (c *Client) Provider() string {
	return c.provider
}

// Model returns the configured model id
func (c *Client) Model() string {
	return c.model
}

// Generate sends one chat turn to the provider and returns its reply.
func (c *Client) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if c.apiKey == "" || c.chat == nil {
		return nil, &APIError{
			StatusCode: http.StatusUnauthorized,
			Type:       "authentication_error",
			Message:    "no API key configured",
		}
	}

	start := time.Now()
	msg, err := c.chat.Generate(ctx, input, opts...)
	if err != nil {
		c.log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("Model call failed")
		return nil, err
	}

	ev := c.log.Debug().Dur("elapsed", time.Since(start))
	if msg.ResponseMeta != nil {
		ev = ev.Str("finish_reason", msg.ResponseMeta.FinishReason)
		if msg.ResponseMeta.Usage != nil {
			ev = ev.Int("prompt_tokens", msg.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", msg.ResponseMeta.Usage.CompletionTokens)
		}
	}
	ev.Msg("Model call completed")
	return msg, nil
}
