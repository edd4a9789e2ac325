package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/aristath/chartlens/internal/domain"
	"github.com/aristath/chartlens/internal/modules/analysis"
)

// styleOptions renders each style with its risk guidance, e.g. "swingtrading - Swing Trading (TP 5-15%, SL 2-5%)".
func styleOptions() []string {
	options := make([]string, len(domain.TradingStyles))
	for i, style := range domain.TradingStyles {
		p := analysis.Profile(style)
		options[i] = fmt.Sprintf("%s - %s (TP %s, SL %s)", style, p.Label, p.TakeProfit, p.StopLoss)
	}
	return options
}

// optionStyle maps a selected option back to its style
func optionStyle(selected string) domain.TradingStyle {
	style, _ := domain.ParseTradingStyle(strings.SplitN(selected, " -", 2)[0])
	return style
}

// PromptForStyle asks the user to pick a trading style
func PromptForStyle() (domain.TradingStyle, error) {
	options := styleOptions()

	var selected string
	prompt := &survey.Select{
		Message: "Select trading style:",
		Options: options,
		Help:    "The style sets the take-profit and stop-loss ranges the model is asked to respect.",
		Default: options[1],
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return optionStyle(selected), nil
}
