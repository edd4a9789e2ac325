// Package domain provides the core chart-analysis types shared by the HTTP
// surface, the CLI and the model adapter.
package domain

// TradingStyle is the holding horizon that parameterizes take-profit and
// stop-loss guidance in the prompt.
type TradingStyle string

const (
	// StyleScalping targets moves lasting seconds to minutes
	StyleScalping TradingStyle = "scalping"
	// StyleDayTrading targets intraday moves closed before the session ends
	StyleDayTrading TradingStyle = "daytrading"
	// StyleSwingTrading targets multi-day to multi-week moves
	StyleSwingTrading TradingStyle = "swingtrading"

	// DefaultTradingStyle is used when the caller omits the style or sends an unknown one
	DefaultTradingStyle = StyleDayTrading
)

// TradingStyles lists the known styles in display order.
var TradingStyles = []TradingStyle{StyleScalping, StyleDayTrading, StyleSwingTrading}

// ParseTradingStyle resolves a raw form value to a known style.
// Matching is exact, so "Scalping" is unknown. The boolean reports whether
// the value was recognized; unknown and empty values resolve to DefaultTradingStyle.
func ParseTradingStyle(raw string) (TradingStyle, bool) {
	switch TradingStyle(raw) {
	case StyleScalping:
		return StyleScalping, true
	case StyleDayTrading:
		return StyleDayTrading, true
	case StyleSwingTrading:
		return StyleSwingTrading, true
	default:
		return DefaultTradingStyle, false
	}
}

// Accepted chart image MIME types
const (
	MIMETypePNG  = "image/png"
	MIMETypeJPEG = "image/jpeg"
)

// IsSupportedImageType reports whether mimeType is exactly one of the accepted chart types.
func IsSupportedImageType(mimeType string) bool {
	return mimeType == MIMETypePNG || mimeType == MIMETypeJPEG
}

// AnalysisRequest is a single validated chart submission. It lives for one request only.
type AnalysisRequest struct {
	ID       string
	Image    []byte
	MIMEType string
	Style    TradingStyle
}

// Rating is the model's overall verdict
type Rating string

const (
	RatingStrongBuy  Rating = "STRONG_BUY"
	RatingBuy        Rating = "BUY"
	RatingHold       Rating = "HOLD"
	RatingSell       Rating = "SELL"
	RatingStrongSell Rating = "STRONG_SELL"
)

// TrendDirection is the prevailing trend read from the chart
type TrendDirection string

const (
	TrendBullish  TrendDirection = "BULLISH"
	TrendBearish  TrendDirection = "BEARISH"
	TrendSideways TrendDirection = "SIDEWAYS"
)

// AnalysisResult is the structured verdict returned by the external model.
// Validation tags describe shape only; values are never recomputed locally.
type AnalysisResult struct {
	Rating          Rating         `json:"rating" validate:"required,oneof=STRONG_BUY BUY HOLD SELL STRONG_SELL"`
	Confidence      Number         `json:"confidence" validate:"gte=0,lte=100"`
	EntryPrice      Number         `json:"entryPrice" validate:"gt=0"`
	TakeProfit      Number         `json:"takeProfit" validate:"gt=0"`
	StopLoss        Number         `json:"stopLoss" validate:"gt=0"`
	RiskRewardRatio string         `json:"riskRewardRatio" validate:"required"`
	PercentageGain  Number         `json:"percentageGain" validate:"gte=0"`
	PercentageRisk  Number         `json:"percentageRisk" validate:"gte=0"`
	TrendDirection  TrendDirection `json:"trendDirection" validate:"required,oneof=BULLISH BEARISH SIDEWAYS"`
	KeyLevels       KeyLevels      `json:"keyLevels"`
	Patterns        []string       `json:"patterns"`
	Indicators      Indicators     `json:"indicators"`
	Analysis        Narrative      `json:"analysis"`
	Ticker          string         `json:"ticker,omitempty"`
	Timeframe       string         `json:"timeframe" validate:"required"`
}

// KeyLevels holds the support and resistance prices read from the chart
type KeyLevels struct {
	Support    []Number `json:"support" validate:"dive,gt=0"`
	Resistance []Number `json:"resistance" validate:"dive,gt=0"`
}

// Indicators holds optional observations for indicators visible on the chart
type Indicators struct {
	RSI            string `json:"rsi,omitempty"`
	MACD           string `json:"macd,omitempty"`
	MovingAverages string `json:"movingAverages,omitempty"`
}

// Narrative holds the explanatory text of an analysis
type Narrative struct {
	Summary           string `json:"summary" validate:"required"`
	TechnicalAnalysis string `json:"technicalAnalysis,omitempty"`
	RiskAssessment    string `json:"riskAssessment,omitempty"`
	RiskWarning       string `json:"riskWarning" validate:"required"`
}

// RequiredFields are the top-level keys every model response must carry.
var RequiredFields = []string{
	"rating",
	"confidence",
	"entryPrice",
	"takeProfit",
	"stopLoss",
	"riskRewardRatio",
	"percentageGain",
	"percentageRisk",
	"trendDirection",
	"keyLevels",
	"patterns",
	"analysis",
	"timeframe",
}

// Normalize replaces nil collections with empty ones so the result always
// serializes with arrays rather than nulls.
func (r *AnalysisResult) Normalize() {
	if r.KeyLevels.Support == nil {
		r.KeyLevels.Support = []Number{}
	}
	if r.KeyLevels.Resistance == nil {
		r.KeyLevels.Resistance = []Number{}
	}
	if r.Patterns == nil {
		r.Patterns = []string{}
	}
}
