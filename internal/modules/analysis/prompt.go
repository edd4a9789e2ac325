package analysis

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/aristath/chartlens/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed styles.yaml prompts
var promptFiles embed.FS

// StyleProfile is the risk guidance injected into the prompt for one trading style
type StyleProfile struct {
	Label      string `yaml:"label"`
	Horizon    string `yaml:"horizon"`
	TakeProfit string `yaml:"take_profit"`
	StopLoss   string `yaml:"stop_loss"`
}

var (
	styleProfiles  map[domain.TradingStyle]StyleProfile
	systemTemplate *template.Template
)

func init() {
	profiles, err := loadStyleProfiles()
	if err != nil {
		panic(err)
	}
	styleProfiles = profiles

	content, err := promptFiles.ReadFile("prompts/system.md")
	if err != nil {
		panic(fmt.Errorf("failed to load system prompt: %w", err))
	}
	systemTemplate = template.Must(template.New("system").Option("missingkey=error").Parse(string(content)))
}

func loadStyleProfiles() (map[domain.TradingStyle]StyleProfile, error) {
	data, err := promptFiles.ReadFile("styles.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to load style profiles: %w", err)
	}

	var profiles map[domain.TradingStyle]StyleProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse style profiles: %w", err)
	}

	for _, style := range domain.TradingStyles {
		if _, ok := profiles[style]; !ok {
			return nil, fmt.Errorf("style profile %q missing", style)
		}
	}
	return profiles, nil
}

// Profile returns the risk guidance for style, falling back to day trading for unknown styles.
func Profile(style domain.TradingStyle) StyleProfile {
	if p, ok := styleProfiles[style]; ok {
		return p
	}
	return styleProfiles[domain.DefaultTradingStyle]
}

// BuildSystemPrompt renders the system prompt for style.
func BuildSystemPrompt(style domain.TradingStyle) string {
	var buf bytes.Buffer
	// The template and every profile are checked at init.
	if err := systemTemplate.Execute(&buf, Profile(style)); err != nil {
		panic(err)
	}
	return buf.String()
}

// userInstruction accompanies the image in the user turn.
func userInstruction(style domain.TradingStyle) string {
	return fmt.Sprintf(
		"Analyze this chart for %s. Return only the JSON object described in the system prompt, with take profit around %s and stop loss around %s from entry.",
		Profile(style).Label, Profile(style).TakeProfit, Profile(style).StopLoss,
	)
}
