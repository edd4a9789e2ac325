package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/chartlens/internal/domain"
	"github.com/aristath/chartlens/internal/modules/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00")
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sampleResult() *domain.AnalysisResult {
	r := &domain.AnalysisResult{
		Rating:          domain.RatingSell,
		Confidence:      55,
		EntryPrice:      1.08345,
		TakeProfit:      1.0726,
		StopLoss:        1.0889,
		RiskRewardRatio: "1:2",
		PercentageGain:  1,
		PercentageRisk:  0.5,
		TrendDirection:  domain.TrendBearish,
		KeyLevels: domain.KeyLevels{
			Support:    []domain.Number{1.0726},
			Resistance: []domain.Number{1.0889},
		},
		Patterns: []string{"rising wedge"},
		Indicators: domain.Indicators{
			RSI: "RSI 64 turning down",
		},
		Analysis: domain.Narrative{
			Summary:     "Momentum fading under resistance.",
			RiskWarning: "Not financial advice.",
		},
		Ticker:    "EURUSD",
		Timeframe: "4H",
	}
	return r
}

type stubAnalyzer struct {
	req    domain.AnalysisRequest
	result *domain.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req domain.AnalysisRequest) (*domain.AnalysisResult, error) {
	s.req = req
	return s.result, s.err
}

func TestLoadImage(t *testing.T) {
	chart, err := LoadImage(writeFile(t, "chart.png", pngBytes), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", chart.MIMEType)
	assert.Equal(t, pngBytes, chart.Data)

	// The extension is ignored; content decides.
	chart, err = LoadImage(writeFile(t, "chart.png", jpegBytes), 0)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", chart.MIMEType)
}

func TestLoadImage_Rejections(t *testing.T) {
	_, err := LoadImage(writeFile(t, "chart.gif", gifBytes), 0)
	assert.ErrorIs(t, err, analysis.ErrUnsupportedType)

	_, err = LoadImage(writeFile(t, "empty.png", nil), 0)
	assert.ErrorIs(t, err, analysis.ErrNoFile)

	_, err = LoadImage(writeFile(t, "big.png", append(pngBytes, make([]byte, 64)...)), 32)
	assert.ErrorIs(t, err, analysis.ErrFileTooLarge)

	_, err = LoadImage(filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "182.40", FormatPrice(182.4))
	assert.Equal(t, "1.08", FormatPrice(1.08345))
	assert.Equal(t, "0.6512", FormatPrice(0.65123))
	assert.Equal(t, "0.00", FormatPrice(0))
	assert.Equal(t, "2.50%", FormatPercent(2.5))
}

func TestRender(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Render(&out, sampleResult()))

	text := out.String()
	for _, want := range []string{"EURUSD", "4H", "SELL", "BEARISH", "1.08", "1:2", "rising wedge", "RSI 64 turning down", "Momentum fading", "Not financial advice."} {
		assert.Contains(t, text, want)
	}
}

func TestStyleOptions(t *testing.T) {
	options := styleOptions()
	require.Len(t, options, 3)
	assert.True(t, strings.HasPrefix(options[0], "scalping - "))
	assert.Contains(t, options[2], "TP 5-15%")

	for i, style := range domain.TradingStyles {
		assert.Equal(t, style, optionStyle(options[i]))
	}
}

func TestRunAnalyze_JSON(t *testing.T) {
	stub := &stubAnalyzer{result: sampleResult()}
	var out bytes.Buffer

	err := RunAnalyze(context.Background(), stub, AnalyzeOptions{
		Path:  writeFile(t, "chart.png", pngBytes),
		Style: domain.StyleSwingTrading,
		JSON:  true,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, domain.StyleSwingTrading, stub.req.Style)
	assert.Equal(t, "image/png", stub.req.MIMEType)
	assert.NotEmpty(t, stub.req.ID)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "SELL", decoded["rating"])
}

func TestRunAnalyze_DefaultStyleAndErrors(t *testing.T) {
	stub := &stubAnalyzer{err: analysis.ErrInvalidAPIKey}

	err := RunAnalyze(context.Background(), stub, AnalyzeOptions{Path: writeFile(t, "chart.jpg", jpegBytes)}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, analysis.ErrInvalidAPIKey))
	assert.Equal(t, domain.StyleDayTrading, stub.req.Style)
}

func TestRunAnalyze_GIFNeverReachesAnalyzer(t *testing.T) {
	stub := &stubAnalyzer{result: sampleResult()}

	err := RunAnalyze(context.Background(), stub, AnalyzeOptions{Path: writeFile(t, "chart.gif", gifBytes)}, &bytes.Buffer{})
	assert.ErrorIs(t, err, analysis.ErrUnsupportedType)
	assert.Empty(t, stub.req.ID)
}
