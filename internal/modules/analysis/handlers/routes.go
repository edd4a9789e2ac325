package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers the analysis routes. timeout bounds the whole
// request including the upload and the model call.
func (h *Handler) RegisterRoutes(r chi.Router, timeout time.Duration) {
	r.Route("/api/analyze", func(r chi.Router) {
		if timeout > 0 {
			r.Use(middleware.Timeout(timeout))
		}
		r.Post("/", h.HandleAnalyze)
	})
}
