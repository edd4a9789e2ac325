package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aristath/chartlens/internal/cli"
	"github.com/aristath/chartlens/internal/domain"
	"github.com/aristath/chartlens/internal/modules/analysis"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [FILE]",
		Short: "Analyze a local chart image",
		Long: `Analyze a PNG or JPEG chart from disk with the same rules as the HTTP API.
Example: chartlens analyze btc-4h.png --style swingtrading`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			styleFlag, _ := cmd.Flags().GetString("style")
			interactive, _ := cmd.Flags().GetBool("interactive")
			asJSON, _ := cmd.Flags().GetBool("json")

			return runAnalyzeCommand(cmd.Context(), args[0], styleFlag, interactive, asJSON, os.Stdout)
		},
	}

	cmd.Flags().StringP("style", "s", string(domain.DefaultTradingStyle), "Trading style: scalping, daytrading or swingtrading")
	cmd.Flags().BoolP("interactive", "i", false, "Pick the trading style interactively")
	cmd.Flags().Bool("json", false, "Print the raw analysis JSON")

	return cmd
}

// runAnalyzeCommand prints the analysis to stdout. Logs go to stderr so the
// --json output can be piped.
func runAnalyzeCommand(ctx context.Context, path, styleFlag string, interactive, asJSON bool, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}

	style, known := domain.ParseTradingStyle(styleFlag)
	if !known {
		log.Warn().Str("style", styleFlag).Msg("Unknown trading style, using daytrading")
	}
	if interactive {
		if style, err = cli.PromptForStyle(); err != nil {
			return err
		}
	}

	_, service, err := newAnalysisService(ctx, cfg, log)
	if err != nil {
		return err
	}

	err = cli.RunAnalyze(ctx, service, cli.AnalyzeOptions{
		Path:           path,
		Style:          style,
		JSON:           asJSON,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, stdout)
	if errors.Is(err, analysis.ErrInvalidAPIKey) {
		return fmt.Errorf("invalid API key, please set %s in your environment", cfg.LLM.CredentialEnv())
	}
	return err
}
