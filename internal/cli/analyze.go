package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/aristath/chartlens/internal/domain"
)

// Analyzer runs one chart analysis. *analysis.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error)
}

// AnalyzeOptions controls a single analyze invocation
type AnalyzeOptions struct {
	Path           string
	Style          domain.TradingStyle
	JSON           bool
	MaxUploadBytes int64
}

// RunAnalyze loads the chart, runs the analysis and prints the result to out.
func RunAnalyze(ctx context.Context, analyzer Analyzer, opts AnalyzeOptions, out io.Writer) error {
	chart, err := LoadImage(opts.Path, opts.MaxUploadBytes)
	if err != nil {
		return err
	}

	style := opts.Style
	if style == "" {
		style = domain.DefaultTradingStyle
	}

	result, err := analyzer.Analyze(ctx, domain.AnalysisRequest{
		ID:       uuid.New().String(),
		Image:    chart.Data,
		MIMEType: chart.MIMEType,
		Style:    style,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode analysis: %w", err)
		}
		return nil
	}
	return Render(out, result)
}
