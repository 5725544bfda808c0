package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate checks configuration values and fails fast with a sentinel error
// when something is out of range or missing.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for the gemini provider", ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if err := validateHostURL(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOllamaHost, err)
		}
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}
	if c.MaxTurns < 1 || c.MaxTurns > 25 {
		return fmt.Errorf("%w: %d (must be 1-25)", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}

	return nil
}

// ValidateWebSearch checks the configuration needed by the WEB_SEARCH and
// TOOLS strategies. Separated from Validate so that vector-store-only
// deployments do not need a Tavily key.
func (c *Config) ValidateWebSearch() error {
	if c == nil {
		return ErrConfigNil
	}
	if strings.TrimSpace(c.Tavily.APIKey) == "" {
		return fmt.Errorf("%w: TAVILY_API_KEY is required for web search", ErrMissingAPIKey)
	}
	return nil
}

// validateHostURL checks that s parses as an absolute http(s) URL.
func validateHostURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("empty host")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parsing host: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", s)
	}
	return nil
}
