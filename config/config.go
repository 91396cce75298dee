// Package config loads orchestrator and provider settings with multi-source
// priority: environment variables (RAGLINE_*) override the optional yaml
// config file, which overrides built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates a provider that needs an API key has none.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates an unsupported language model provider.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidStepBudget indicates a non-positive step budget.
	ErrInvalidStepBudget = errors.New("invalid step budget")

	// ErrInvalidTopK indicates a non-positive retrieval count.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidScoreThreshold indicates a threshold outside (0,1].
	ErrInvalidScoreThreshold = errors.New("invalid score threshold")

	// ErrInvalidMemoryCapacity indicates a non-positive memory capacity.
	ErrInvalidMemoryCapacity = errors.New("invalid memory capacity")

	// ErrInvalidMaxTokens indicates a non-positive completion budget.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")
)

// Provider identifiers used in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	// ProviderEcho is a deterministic offline model for development and
	// tests; it needs no credentials.
	ProviderEcho = "echo"
)

// Config stores the settings of the chat engine.
type Config struct {
	// Language model provider and settings.
	Provider    string  `mapstructure:"provider"`
	ModelName   string  `mapstructure:"model_name"`
	APIKey      string  `mapstructure:"api_key"` // SENSITIVE: never log
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`

	// Orchestration settings.
	StepBudget     int     `mapstructure:"step_budget"`
	TopK           int     `mapstructure:"top_k"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	RewriteEnabled bool    `mapstructure:"rewrite_enabled"`

	// Conversation memory.
	MemoryCapacity int `mapstructure:"memory_capacity"`

	// Knowledge base ingestion.
	ChunkSize int `mapstructure:"chunk_size"`

	// Logging: "debug", "info", "warn", "error".
	LogLevel string `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("model_name", "claude-sonnet-4-5")
	v.SetDefault("max_tokens", 1024)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("step_budget", 5)
	v.SetDefault("top_k", 4)
	v.SetDefault("score_threshold", 0.6)
	v.SetDefault("rewrite_enabled", false)
	v.SetDefault("memory_capacity", 50)
	v.SetDefault("chunk_size", 500)
	v.SetDefault("log_level", "info")
}

// Load reads configuration from defaults, the optional yaml file at path
// (skipped when path is empty or the file is absent), and RAGLINE_*
// environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RAGLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and provider requirements.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%w: provider %q requires api_key (RAGLINE_API_KEY)", ErrMissingAPIKey, c.Provider)
		}
	case ProviderEcho:
		// no credentials needed
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProvider, c.Provider)
	}
	if c.StepBudget <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidStepBudget, c.StepBudget)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidTopK, c.TopK)
	}
	if c.ScoreThreshold <= 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidScoreThreshold, c.ScoreThreshold)
	}
	if c.MemoryCapacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMemoryCapacity, c.MemoryCapacity)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxTokens)
	}
	return nil
}
