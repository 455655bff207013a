// Package file loads Docster configuration from a TOML file with
// environment variable overrides. Secrets (API keys, tokens) are
// normally supplied through the environment rather than the file.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config location relative to the user home
// directory.
const DefaultPath = ".docster/config.toml"

// Config is the application configuration.
type Config struct {
	GitHub    GitHubConfig    `toml:"github"`
	LLM       LLMConfig       `toml:"llm"`
	Storage   StorageConfig   `toml:"storage"`
	Generator GeneratorConfig `toml:"generator"`
}

// GitHubConfig configures repository access.
type GitHubConfig struct {
	// Token is a personal access token. Optional; unauthenticated
	// access works with low rate limits.
	Token string `toml:"token"`

	// BaseURL overrides the API endpoint for GitHub Enterprise.
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
}

// LLMConfig selects and configures the generation backend.
type LLMConfig struct {
	// Provider is the backend name.
	Provider string `toml:"provider" validate:"oneof=gemini ollama"`

	// Model overrides the provider's default model.
	Model string `toml:"model"`

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string `toml:"gemini_api_key"`

	// OllamaURL is the local Ollama server address.
	OllamaURL string `toml:"ollama_url" validate:"omitempty,url"`
}

// StorageConfig configures the documentation store.
type StorageConfig struct {
	// DatabasePath is the SQLite file location. Empty selects the
	// default under the user home directory.
	DatabasePath string `toml:"database_path"`
}

// GeneratorConfig tunes the generation pipeline.
type GeneratorConfig struct {
	// Concurrency bounds parallel file summarisation.
	Concurrency int `toml:"concurrency" validate:"omitempty,min=1,max=32"`

	// MaxFileKB is the per-file size cap in kilobytes.
	MaxFileKB int `toml:"max_file_kb" validate:"omitempty,min=1"`

	// ChunkTokens is the per-chunk token budget.
	ChunkTokens int `toml:"chunk_tokens" validate:"omitempty,min=100"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LLM: LLMConfig{Provider: "gemini"},
	}
}

// Load reads the config file at path (or the default location when
// path is empty), applies environment overrides and validates the
// result. A missing file is not an error; defaults plus environment
// apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultPath)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Fall through to environment and defaults.
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the config file, creating its directory.
func Save(path string, cfg Config) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto the loaded config.
// Environment wins over the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("DOCSTER_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DOCSTER_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DOCSTER_OLLAMA_URL"); v != "" {
		cfg.LLM.OllamaURL = v
	}
	if v := os.Getenv("DOCSTER_DB_PATH"); v != "" {
		cfg.Storage.DatabasePath = v
	}
}

// DatabasePath resolves the SQLite file location, defaulting to
// ~/.docster/docster.db.
func (c Config) DatabasePath() (string, error) {
	if c.Storage.DatabasePath != "" {
		return c.Storage.DatabasePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".docster", "docster.db"), nil
}
