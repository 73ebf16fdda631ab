// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.serendib/config.yaml)
//  3. Default values
//
// Categories:
//   - LLM: Groq model selection, temperature, max tokens, request timeout
//   - Memory: conversation window size
//   - Knowledge: collection name, data directory, retrieval top-k
//   - Scraper: fetch timeout and content truncation limit
//
// The API key is only ever read from the environment (GROQ_API_KEY),
// never from the config file, and is masked whenever the configuration
// is logged.
//
// Validation is fail-fast: Load returns an error for any out-of-range
// value so a bad configuration can never reach a conversation turn.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates GROQ_API_KEY is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidBaseURL indicates the API base URL is malformed.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrInvalidTemperature indicates the temperature is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxTurns indicates the conversation window size is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidTopK indicates the retrieval top-k is out of range.
	ErrInvalidTopK = errors.New("invalid top k")

	// ErrInvalidCollection indicates the knowledge collection name is empty.
	ErrInvalidCollection = errors.New("invalid collection name")
)

const (
	// DefaultModelName is the default Groq model.
	DefaultModelName = "llama-3.3-70b-versatile"

	// DefaultBaseURL is the Groq OpenAI-compatible API endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"

	// DefaultMaxTurns is the default conversation window size
	// (user+assistant pairs kept in memory).
	DefaultMaxTurns = 10

	// MaxAllowedTurns bounds the window to prevent unbounded prompts.
	MaxAllowedTurns = 100

	// DefaultCollection is the default knowledge collection name.
	DefaultCollection = "market_knowledge"
)

// Config stores the application configuration.
// SECURITY: APIKey is masked in LogValue; never log the struct directly.
type Config struct {
	// LLM configuration
	APIKey      string  `mapstructure:"-"` // env only, never from file
	BaseURL     string  `mapstructure:"base_url"`
	ModelName   string  `mapstructure:"model_name"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	LLMTimeout  int     `mapstructure:"llm_timeout_seconds"`

	// Conversation memory configuration
	MaxTurns int `mapstructure:"max_turns"`

	// Knowledge base configuration
	Collection string `mapstructure:"collection"`
	DataDir    string `mapstructure:"data_dir"`
	TopK       int    `mapstructure:"top_k"`

	// Web scraper configuration
	ScraperTimeout  int `mapstructure:"scraper_timeout_seconds"`
	ScraperMaxChars int `mapstructure:"scraper_max_chars"`
}

// Load loads configuration.
// Priority: environment variables > config file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".serendib")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// The API key stays out of viper so it can never be written back
	// to a config file by tooling.
	cfg.APIKey = os.Getenv("GROQ_API_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 2048)
	v.SetDefault("llm_timeout_seconds", 120)

	v.SetDefault("max_turns", DefaultMaxTurns)

	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("data_dir", filepath.Join(configDir, "data"))
	v.SetDefault("top_k", 2)

	v.SetDefault("scraper_timeout_seconds", 10)
	v.SetDefault("scraper_max_chars", 3000)
}

// bindEnvVariables binds environment overrides explicitly.
// GROQ_API_KEY is read directly in Load, not via viper.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("base_url", "SERENDIB_BASE_URL")
	mustBind("model_name", "SERENDIB_MODEL_NAME")
	mustBind("max_turns", "SERENDIB_MAX_TURNS")
	mustBind("data_dir", "SERENDIB_DATA_DIR")
}

// maskedValue is the placeholder for masked secrets in log output.
const maskedValue = "********"

// LogValue implements slog.LogValuer so the configuration can be logged
// without leaking the API key.
func (c *Config) LogValue() slog.Value {
	key := ""
	if c.APIKey != "" {
		key = maskedValue
	}
	return slog.GroupValue(
		slog.String("base_url", c.BaseURL),
		slog.String("model_name", c.ModelName),
		slog.String("api_key", key),
		slog.Float64("temperature", c.Temperature),
		slog.Int("max_tokens", c.MaxTokens),
		slog.Int("max_turns", c.MaxTurns),
		slog.String("collection", c.Collection),
		slog.String("data_dir", c.DataDir),
		slog.Int("top_k", c.TopK),
	)
}
