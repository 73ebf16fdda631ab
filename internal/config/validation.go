package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks all configuration values and returns the first problem
// found. It is called by Load; callers constructing a Config by hand
// (tests, tools) should call it themselves.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.APIKey == "" {
		return fmt.Errorf("%w: GROQ_API_KEY environment variable not set", ErrMissingAPIKey)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: %v (must be between 0 and 2)", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 32768 {
		return fmt.Errorf("%w: %d (must be between 1 and 32768)", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.MaxTurns < 1 || c.MaxTurns > MaxAllowedTurns {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidMaxTurns, c.MaxTurns, MaxAllowedTurns)
	}

	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: %d (must be between 1 and 20)", ErrInvalidTopK, c.TopK)
	}

	if strings.TrimSpace(c.Collection) == "" {
		return fmt.Errorf("%w: collection name must not be empty", ErrInvalidCollection)
	}

	return nil
}

// validateBaseURL requires an absolute http or https URL.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidBaseURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q (scheme must be http or https)", ErrInvalidBaseURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q (missing host)", ErrInvalidBaseURL, raw)
	}
	return nil
}
