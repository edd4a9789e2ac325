package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-resty/resty/v2"
)

const anthropicVersion = "2023-06-01"

// anthropicModel speaks the native Messages API. It implements ChatModel.
type anthropicModel struct {
	http      *resty.Client
	model     string
	maxTokens int
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

type anthropicResponse struct {
	ID         string           `json:"id"`
	Model      string           `json:"model"`
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAnthropicModel(cfg Config) *anthropicModel {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("x-api-key", cfg.APIKey)
	client.SetHeader("anthropic-version", anthropicVersion)
	client.SetHeader("Content-Type", "application/json")

	return &anthropicModel{
		http:      client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}
}

// Generate returns the first text block of the reply as the message content.
func (m *anthropicModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:     &m.model,
		MaxTokens: &m.maxTokens,
	}, opts...)

	req, err := buildAnthropicRequest(input, *options.Model, *options.MaxTokens)
	if err != nil {
		return nil, err
	}

	var out anthropicResponse
	var apiErr anthropicErrorResponse
	resp, err := m.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiErr).
		Post("/v1/messages")
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Type:       apiErr.Error.Type,
			Message:    msg,
		}
	}

	text, ok := firstText(out.Content)
	if !ok {
		return nil, fmt.Errorf("anthropic response %s contained no text block", out.ID)
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: text,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: out.StopReason,
			Usage: &schema.TokenUsage{
				PromptTokens:     out.Usage.InputTokens,
				CompletionTokens: out.Usage.OutputTokens,
				TotalTokens:      out.Usage.InputTokens + out.Usage.OutputTokens,
			},
		},
	}, nil
}

func buildAnthropicRequest(input []*schema.Message, modelName string, maxTokens int) (*anthropicRequest, error) {
	req := &anthropicRequest{
		Model:     modelName,
		MaxTokens: maxTokens,
	}

	var system []string
	for _, msg := range input {
		if msg == nil {
			continue
		}
		if msg.Role == schema.System {
			system = append(system, msg.Content)
			continue
		}

		blocks, err := toAnthropicBlocks(msg)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, anthropicMessage{
			Role:    string(msg.Role),
			Content: blocks,
		})
	}
	req.System = strings.Join(system, "\n\n")

	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("anthropic request needs at least one user message")
	}
	return req, nil
}

func toAnthropicBlocks(msg *schema.Message) ([]anthropicBlock, error) {
	if len(msg.MultiContent) == 0 {
		return []anthropicBlock{{Type: "text", Text: msg.Content}}, nil
	}

	blocks := make([]anthropicBlock, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			blocks = append(blocks, anthropicBlock{Type: "text", Text: part.Text})
		case schema.ChatMessagePartTypeImageURL:
			if part.ImageURL == nil {
				return nil, fmt.Errorf("image part without url")
			}
			blocks = append(blocks, anthropicBlock{Type: "image", Source: imageSource(part.ImageURL)})
		default:
			return nil, fmt.Errorf("unsupported message part type %q", part.Type)
		}
	}
	return blocks, nil
}

// imageSource turns a data URI into an inline base64 source and anything else into a url source.
func imageSource(img *schema.ChatMessageImageURL) *anthropicSource {
	if rest, ok := strings.CutPrefix(img.URL, "data:"); ok {
		if header, data, found := strings.Cut(rest, ","); found && strings.HasSuffix(header, ";base64") {
			mediaType := strings.TrimSuffix(header, ";base64")
			if mediaType == "" {
				mediaType = img.MIMEType
			}
			return &anthropicSource{Type: "base64", MediaType: mediaType, Data: data}
		}
	}
	return &anthropicSource{Type: "url", URL: img.URL}
}

func firstText(blocks []anthropicBlock) (string, bool) {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text, true
		}
	}
	return "", false
}
