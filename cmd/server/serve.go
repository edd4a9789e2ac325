package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/chartlens/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// runServe starts the HTTP server and blocks until SIGINT or SIGTERM.
func runServe() error {
	cfg, log, err := loadConfig(os.Stdout)
	if err != nil {
		return err
	}

	log.Info().Msg("Starting chartlens")

	client, service, err := newAnalysisService(context.Background(), cfg, log)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Log:                log,
		Port:               cfg.Port,
		DevMode:            cfg.DevMode,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:          cfg.StaticDir,
		Analysis:           service,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CredentialEnv:      cfg.LLM.CredentialEnv(),
		LLMTimeout:         cfg.LLM.Timeout,
		Model: server.ModelInfo{
			Provider:      client.Provider(),
			Model:         client.Model(),
			HasCredential: cfg.LLM.APIKey() != "",
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
