// Package server provides the HTTP server and routing for chartlens.
package server

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/chartlens/internal/modules/analysis"
	analysishandlers "github.com/aristath/chartlens/internal/modules/analysis/handlers"
	"github.com/aristath/chartlens/pkg/embedded"
)

// Config holds server configuration
type Config struct {
	Log                zerolog.Logger
	Port               int
	DevMode            bool
	CORSAllowedOrigins []string
	// StaticDir serves the frontend from disk instead of the embedded copy
	StaticDir string

	Analysis       *analysis.Service
	MaxUploadBytes int64
	CredentialEnv  string
	LLMTimeout     time.Duration
	Model          ModelInfo
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	model          ModelInfo
	frontend       fs.FS
	analysis       *analysishandlers.Handler
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	// Register common MIME types to ensure correct Content-Type headers
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".mjs", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	_ = mime.AddExtensionType(".woff2", "font/woff2")
	_ = mime.AddExtensionType(".woff", "font/woff")

	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 60 * time.Second
	}

	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		port:   cfg.Port,
		model:  cfg.Model,
		analysis: analysishandlers.NewHandler(cfg.Analysis, analysishandlers.Config{
			MaxUploadBytes: cfg.MaxUploadBytes,
			CredentialEnv:  cfg.CredentialEnv,
		}, cfg.Log),
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Model),
	}
	s.frontend = s.resolveFrontend(cfg.StaticDir)

	s.setupMiddleware(cfg.DevMode, cfg.CORSAllowedOrigins)
	s.setupRoutes(cfg.LLMTimeout)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
		// Uploads of up to 10MB plus the model round trip
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the configured handler, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, allowedOrigins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Analysis-ID", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(llmTimeout time.Duration) {
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/api/health", s.handleHealth)
		r.Get("/api/system/status", s.systemHandlers.HandleSystemStatus)
	})

	// The analyze route gets its own deadline covering the upload and the model call
	s.analysis.RegisterRoutes(s.router, llmTimeout+15*time.Second)

	if s.frontend == nil {
		s.router.NotFound(s.handleNotFound)
		s.router.MethodNotAllowed(s.handleMethodNotAllowed)
		return
	}

	// Vite outputs to /assets/
	assetsFS, err := fs.Sub(s.frontend, "assets")
	if err != nil {
		s.log.Warn().Err(err).Msg("Frontend assets directory not found")
	} else {
		fileServer := http.FileServer(http.FS(assetsFS))
		s.router.Handle("/assets/*", http.StripPrefix("/assets/", s.assetsHandler(fileServer)))
	}

	// Serve index.html for root and every other unmatched GET (SPA routing)
	s.router.Get("/", s.handleIndex)
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			s.handleNotFound(w, r)
			return
		}
		s.handleIndex(w, r)
	})
	// GET on a POST-only path such as /api/analyze is a page load, not an API call
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			s.handleMethodNotAllowed(w, r)
			return
		}
		s.handleIndex(w, r)
	})
}

// resolveFrontend picks the on-disk frontend when configured, else the embedded build.
func (s *Server) resolveFrontend(staticDir string) fs.FS {
	if staticDir != "" {
		if info, err := os.Stat(staticDir); err == nil && info.IsDir() {
			s.log.Info().Str("dir", staticDir).Msg("Serving frontend from disk")
			return os.DirFS(staticDir)
		}
		s.log.Warn().Str("dir", staticDir).Msg("Static directory not found, using embedded frontend")
	}

	frontendFS, err := fs.Sub(embedded.Files, "frontend/dist")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to create frontend filesystem from embedded files")
		return nil
	}
	return frontendFS
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Str("model", s.model.Model).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// assetsHandler wraps the file server to set correct MIME types
func (s *Server) assetsHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ext := filepath.Ext(r.URL.Path)

		contentType := mime.TypeByExtension(ext)
		if contentType == "" {
			switch ext {
			case ".js", ".mjs":
				contentType = "application/javascript"
			case ".css":
				contentType = "text/css"
			case ".json":
				contentType = "application/json"
			case ".woff", ".woff2":
				contentType = "font/woff2"
			case ".ttf":
				contentType = "font/ttf"
			case ".svg":
				contentType = "image/svg+xml"
			default:
				contentType = "application/octet-stream"
			}
		}
		w.Header().Set("Content-Type", contentType)

		next.ServeHTTP(w, r)
	})
}

// handleIndex serves the SPA entry point
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.frontend == nil {
		s.handleNotFound(w, r)
		return
	}

	indexFile, err := s.frontend.Open("index.html")
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to open index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}
	defer indexFile.Close()

	data, err := io.ReadAll(indexFile)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read index.html")
		http.Error(w, "Frontend not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		ev := s.log.Info()
		if strings.HasPrefix(r.URL.Path, "/assets/") {
			ev = s.log.Debug()
		}
		ev.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
