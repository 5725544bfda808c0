package config

import (
	"errors"
	"strings"
	"testing"
)

// valid returns a configuration that passes Validate with the gemini
// provider, assuming GEMINI_API_KEY is set by the test.
func valid() *Config {
	return &Config{
		Provider:       ProviderGemini,
		ModelName:      DefaultModelName,
		EmbedderModel:  DefaultEmbedderModel,
		MaxTurns:       DefaultMaxTurns,
		OllamaHost:     "http://localhost:11434",
		PostgresHost:   "localhost",
		PostgresPort:   5432,
		PostgresUser:   "brewchat",
		PostgresDBName: "brewchat",
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Provider = "watson" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "  " },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "max turns zero",
			mutate:  func(c *Config) { c.MaxTurns = 0 },
			wantErr: ErrInvalidMaxTurns,
		},
		{
			name:    "max turns too large",
			mutate:  func(c *Config) { c.MaxTurns = 100 },
			wantErr: ErrInvalidMaxTurns,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty postgres db name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "ollama provider with bad host",
			mutate:  func(c *Config) { c.Provider = ProviderOllama; c.OllamaHost = "not a url" },
			wantErr: ErrInvalidOllamaHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Fatalf("Validate() on nil = %v, want ErrConfigNil", err)
	}
}

func TestValidateMissingGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg := valid()
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Validate() = %v, want ErrMissingAPIKey", err)
	}
}

func TestValidateWebSearch(t *testing.T) {
	cfg := valid()
	if err := cfg.ValidateWebSearch(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("ValidateWebSearch() without key = %v, want ErrMissingAPIKey", err)
	}

	cfg.Tavily.APIKey = "tvly-test"
	if err := cfg.ValidateWebSearch(); err != nil {
		t.Fatalf("ValidateWebSearch() with key = %v, want nil", err)
	}
}

func TestPostgresURL(t *testing.T) {
	cfg := valid()
	cfg.PostgresPassword = "secret"
	cfg.PostgresSSLMode = "disable"

	got := cfg.PostgresURL()
	for _, want := range []string{"postgres://", "brewchat:secret@localhost:5432", "sslmode=disable"} {
		if !strings.Contains(got, want) {
			t.Errorf("PostgresURL() = %q, missing %q", got, want)
		}
	}
}
