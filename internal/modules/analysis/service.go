// Package analysis turns a chart image and trading style into a validated
// trading analysis produced by an external multimodal model.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/chartlens/internal/clients/llm"
	"github.com/aristath/chartlens/internal/domain"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// ChatModel is satisfied by *llm.Client and by test fakes.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// ServiceConfig bounds a single model call
type ServiceConfig struct {
	MaxTokens int
	Timeout   time.Duration
}

// Service runs one model call per request. It holds no per-request state.
type Service struct {
	model      ChatModel
	normalizer *Normalizer
	maxTokens  int
	timeout    time.Duration
	log        zerolog.Logger
}

// NewService creates a new analysis service
func NewService(chat ChatModel, cfg ServiceConfig, log zerolog.Logger) *Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Service{
		model:      chat,
		normalizer: NewNormalizer(),
		maxTokens:  cfg.MaxTokens,
		timeout:    cfg.Timeout,
		log:        log.With().Str("service", "analysis").Logger(),
	}
}

// Analyze sends the chart to the model once and normalizes the reply.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoFile
	}
	if !domain.IsSupportedImageType(req.MIMEType) {
		return nil, ErrUnsupportedType
	}

	log := s.log.With().Str("analysis_id", req.ID).Str("style", string(req.Style)).Logger()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	reply, err := s.model.Generate(ctx, BuildMessages(req), model.WithMaxTokens(s.maxTokens))
	if err != nil {
		if llm.IsAuthError(err) {
			log.Warn().Err(err).Msg("Model provider rejected credentials")
			return nil, fmt.Errorf("%w: %v", ErrInvalidAPIKey, err)
		}
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("Model call failed")
		return nil, &UpstreamError{Err: err}
	}
	if reply == nil {
		return nil, &UpstreamError{Err: errors.New("model returned no message")}
	}

	result, err := s.normalizer.Normalize(reply.Content)
	if err != nil {
		var parseErr *ParseError
		var schemaErr *SchemaError
		switch {
		case errors.As(err, &parseErr):
			log.Error().Err(parseErr.Err).Str("raw", parseErr.Raw).Msg("Model reply is not valid JSON")
		case errors.As(err, &schemaErr):
			log.Error().Strs("fields", schemaErr.Fields).Str("raw", schemaErr.Raw).Msg("Model reply failed schema validation")
		}
		return nil, err
	}

	log.Info().
		Str("rating", string(result.Rating)).
		Float64("confidence", result.Confidence.Float64()).
		Dur("elapsed", time.Since(start)).
		Msg("Chart analysis completed")

	return result, nil
}

// BuildMessages assembles the system prompt and the multimodal user turn.
func BuildMessages(req domain.AnalysisRequest) []*schema.Message {
	dataURL := fmt.Sprintf("data:%s;base64,%s", req.MIMEType, base64.StdEncoding.EncodeToString(req.Image))

	return []*schema.Message{
		schema.SystemMessage(BuildSystemPrompt(req.Style)),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{
					Type: schema.ChatMessagePartTypeImageURL,
					ImageURL: &schema.ChatMessageImageURL{
						URL:      dataURL,
						MIMEType: req.MIMEType,
						Detail:   schema.ImageURLDetailHigh,
					},
				},
				{
					Type: schema.ChatMessagePartTypeText,
					Text: userInstruction(req.Style),
				},
			},
		},
	}
}
