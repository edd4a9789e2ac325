package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/aristath/chartlens/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 2).
			Width(80)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Width(16)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	ratingColors = map[domain.Rating]lipgloss.Color{
		domain.RatingStrongBuy:  lipgloss.Color("#059669"),
		domain.RatingBuy:        lipgloss.Color("#10B981"),
		domain.RatingHold:       lipgloss.Color("#F59E0B"),
		domain.RatingSell:       lipgloss.Color("#EF4444"),
		domain.RatingStrongSell: lipgloss.Color("#B91C1C"),
	}
)

// FormatPrice prints prices with two decimals, or four below 1 so small
// quotes such as FX pairs keep their precision.
func FormatPrice(n domain.Number) string {
	d := decimal.NewFromFloat(n.Float64())
	if d.Abs().LessThan(decimal.NewFromInt(1)) && !d.IsZero() {
		return d.StringFixed(4)
	}
	return d.StringFixed(2)
}

// FormatPercent prints a percentage with two decimals
func FormatPercent(n domain.Number) string {
	return decimal.NewFromFloat(n.Float64()).StringFixed(2) + "%"
}

func formatLevels(levels []domain.Number) string {
	if len(levels) == 0 {
		return "none"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = FormatPrice(l)
	}
	return strings.Join(parts, ", ")
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// Render writes a styled summary of result to w.
func Render(w io.Writer, result *domain.AnalysisResult) error {
	ratingStyle := lipgloss.NewStyle().Bold(true).Foreground(ratingColors[result.Rating])

	title := "Chart analysis"
	if result.Ticker != "" {
		title += " · " + result.Ticker
	}
	if result.Timeframe != "" {
		title += " (" + result.Timeframe + ")"
	}

	rows := []string{
		row("Rating", ratingStyle.Render(string(result.Rating))+fmt.Sprintf("  %s confidence", FormatPercent(result.Confidence))),
		row("Trend", string(result.TrendDirection)),
		row("Entry", FormatPrice(result.EntryPrice)),
		row("Take profit", fmt.Sprintf("%s (+%s)", FormatPrice(result.TakeProfit), FormatPercent(result.PercentageGain))),
		row("Stop loss", fmt.Sprintf("%s (-%s)", FormatPrice(result.StopLoss), FormatPercent(result.PercentageRisk))),
		row("Risk/reward", result.RiskRewardRatio),
		row("Support", formatLevels(result.KeyLevels.Support)),
		row("Resistance", formatLevels(result.KeyLevels.Resistance)),
	}
	if len(result.Patterns) > 0 {
		rows = append(rows, row("Patterns", strings.Join(result.Patterns, ", ")))
	}
	if result.Indicators.RSI != "" {
		rows = append(rows, row("RSI", result.Indicators.RSI))
	}
	if result.Indicators.MACD != "" {
		rows = append(rows, row("MACD", result.Indicators.MACD))
	}
	if result.Indicators.MovingAverages != "" {
		rows = append(rows, row("Moving avg", result.Indicators.MovingAverages))
	}

	narrative := []string{result.Analysis.Summary}
	if result.Analysis.TechnicalAnalysis != "" {
		narrative = append(narrative, result.Analysis.TechnicalAnalysis)
	}
	if result.Analysis.RiskAssessment != "" {
		narrative = append(narrative, result.Analysis.RiskAssessment)
	}

	out := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		panelStyle.Render(strings.Join(rows, "\n")),
		panelStyle.Render(strings.Join(narrative, "\n\n")),
		warningStyle.Render("⚠ "+result.Analysis.RiskWarning),
	)

	_, err := fmt.Fprintln(w, out)
	return err
}
