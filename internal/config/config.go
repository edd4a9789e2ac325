// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Supported model providers
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Config holds application configuration
type Config struct {
	Port               int      `env:"PORT" envDefault:"3001"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty          bool     `env:"LOG_PRETTY" envDefault:"true"`
	DevMode            bool     `env:"DEV_MODE" envDefault:"false"`
	StaticDir          string   `env:"STATIC_DIR"` // Empty = serve the frontend embedded in the binary
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	MaxUploadBytes     int64    `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	LLM                LLMConfig
}

// LLMConfig holds the external model settings
type LLMConfig struct {
	Provider        string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	Model           string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	BaseURL         string        `env:"LLM_BASE_URL"` // Empty = provider default
	MaxTokens       int           `env:"LLM_MAX_TOKENS" envDefault:"2048"`
	Timeout         time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
}

// APIKey returns the credential of the configured provider.
// An empty key is not a startup error; the first model call reports it.
func (c LLMConfig) APIKey() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.AnthropicAPIKey
}

// CredentialEnv names the environment variable operators must set for the configured provider.
func (c LLMConfig) CredentialEnv() string {
	if c.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}

	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (expected %q or %q)", c.LLM.Provider, ProviderAnthropic, ProviderOpenAI)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return fmt.Errorf("LLM_MODEL must not be empty")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive, got %s", c.LLM.Timeout)
	}

	// The API key is optional here, see LLMConfig.APIKey

	return nil
}
