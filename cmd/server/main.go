// Package main is the entry point for chartlens, a chart-image trading
// analysis relay. It serves the HTTP API and SPA, and can also analyze a
// single local chart from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/chartlens/internal/clients/llm"
	"github.com/aristath/chartlens/internal/config"
	"github.com/aristath/chartlens/internal/modules/analysis"
	"github.com/aristath/chartlens/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command. Without a subcommand it serves HTTP.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chartlens",
		Short: "chartlens - chart image trading analysis",
		Long: `chartlens sends a price chart image and a trading style to a multimodal
language model and returns a structured trading analysis.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	return rootCmd
}

// loadConfig loads configuration and builds the logger it describes, writing to logOut
func loadConfig(logOut io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true, Output: logOut})
		fallbackLog.Error().Err(err).Msg("Failed to load configuration")
		return nil, fallbackLog, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: logOut,
	})
	logger.SetGlobalLogger(log)

	return cfg, log, nil
}

// newAnalysisService wires the process-wide model client into the analysis service.
func newAnalysisService(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*llm.Client, *analysis.Service, error) {
	client, err := llm.New(ctx, llm.Config{
		Provider:  cfg.LLM.Provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey(),
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if cfg.LLM.APIKey() == "" {
		log.Warn().Str("env", cfg.LLM.CredentialEnv()).Msg("No API key configured, analysis requests will fail with 401")
	}

	service := analysis.NewService(client, analysis.ServiceConfig{
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, log)

	return client, service, nil
}
