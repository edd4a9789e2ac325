// Package handlers provides HTTP handlers for chart analysis.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/chartlens/internal/domain"
	"github.com/aristath/chartlens/internal/modules/analysis"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Client-facing error messages
const (
	msgNoFile          = "No image file provided"
	msgUnsupportedType = "Only PNG and JPEG images are allowed"
	msgMalformed       = "Malformed upload"
	msgParseFailed     = "Failed to parse analysis response"
	msgSchemaFailed    = "Analysis response did not match the expected format"
)

// Config carries the limits and wording the handlers need
type Config struct {
	MaxUploadBytes int64
	// CredentialEnv names the variable operators should set when the provider rejects the key
	CredentialEnv string
}

// Handler handles chart analysis HTTP requests
type Handler struct {
	service *analysis.Service
	cfg     Config
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, cfg Config, log zerolog.Logger) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = analysis.DefaultMaxUploadBytes
	}
	if cfg.CredentialEnv == "" {
		cfg.CredentialEnv = "ANTHROPIC_API_KEY"
	}
	return &Handler{
		service: service,
		cfg:     cfg,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// AnalyzeResponse is the success body of POST /api/analyze
type AnalyzeResponse struct {
	Success  bool                   `json:"success"`
	Analysis *domain.AnalysisResult `json:"analysis"`
}

// HandleAnalyze handles POST /api/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	upload, err := analysis.ReadUpload(w, r, h.cfg.MaxUploadBytes)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	style, known := domain.ParseTradingStyle(upload.TradingStyle)
	if !known && upload.TradingStyle != "" {
		h.log.Debug().Str("requested", upload.TradingStyle).Str("style", string(style)).Msg("Unknown trading style, using default")
	}

	id := uuid.New().String()
	w.Header().Set("X-Analysis-ID", id)

	h.log.Info().
		Str("analysis_id", id).
		Str("style", string(style)).
		Str("mime_type", upload.MIMEType).
		Int("bytes", len(upload.Data)).
		Msg("Analyzing chart")

	result, err := h.service.Analyze(r.Context(), domain.AnalysisRequest{
		ID:       id,
		Image:    upload.Data,
		MIMEType: upload.MIMEType,
		Style:    style,
	})
	if err != nil {
		h.writeAnalysisError(w, id, err)
		return
	}

	h.writeJSON(w, http.StatusOK, AnalyzeResponse{Success: true, Analysis: result})
}

func (h *Handler) writeUploadError(w http.ResponseWriter, err error) {
	h.log.Debug().Err(err).Msg("Upload rejected")

	switch {
	case errors.Is(err, analysis.ErrNoFile):
		h.writeError(w, http.StatusBadRequest, msgNoFile)
	case errors.Is(err, analysis.ErrUnsupportedType):
		h.writeError(w, http.StatusBadRequest, msgUnsupportedType)
	case errors.Is(err, analysis.ErrFileTooLarge):
		h.writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Image exceeds the %s size limit", sizeLabel(h.cfg.MaxUploadBytes)))
	default:
		h.writeError(w, http.StatusBadRequest, msgMalformed)
	}
}

// sizeLabel renders a byte limit as MB, KB or bytes with at most one decimal
func sizeLabel(n int64) string {
	unit := func(v float64, suffix string) string {
		s := strconv.FormatFloat(v, 'f', 1, 64)
		return strings.TrimSuffix(s, ".0") + suffix
	}
	switch {
	case n >= 1<<20:
		return unit(float64(n)/(1<<20), "MB")
	case n >= 1<<10:
		return unit(float64(n)/(1<<10), "KB")
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

func (h *Handler) writeAnalysisError(w http.ResponseWriter, id string, err error) {
	var parseErr *analysis.ParseError
	var schemaErr *analysis.SchemaError
	var upstreamErr *analysis.UpstreamError

	switch {
	case errors.Is(err, analysis.ErrInvalidAPIKey):
		h.writeError(w, http.StatusUnauthorized,
			fmt.Sprintf("Invalid API key. Please set %s in your environment.", h.cfg.CredentialEnv))
	case errors.As(err, &parseErr):
		h.writeError(w, http.StatusInternalServerError, msgParseFailed)
	case errors.As(err, &schemaErr):
		h.writeError(w, http.StatusInternalServerError, msgSchemaFailed)
	case errors.As(err, &upstreamErr):
		h.log.Error().Err(upstreamErr.Err).Str("analysis_id", id).Msg("Analysis failed")
		h.writeError(w, http.StatusInternalServerError, upstreamErr.Err.Error())
	case errors.Is(err, analysis.ErrNoFile), errors.Is(err, analysis.ErrUnsupportedType):
		h.writeUploadError(w, err)
	default:
		h.log.Error().Err(err).Str("analysis_id", id).Msg("Analysis failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON encodes before writing the status so an encoding failure still yields a 500
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}` + "\n"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
