package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/metalsbot/metals-chat/internal/llm"
)

// AppConfig holds all configuration for the service. Secrets come from the
// environment; everything else from config.yaml.
type AppConfig struct {
	ListenAddr        string   `yaml:"listen_addr"`
	Provider          string   `yaml:"provider"`
	Model             string   `yaml:"model"`
	MaxTokens         int      `yaml:"max_tokens"`
	Temperature       *float32 `yaml:"temperature"`
	SearchResultLimit int      `yaml:"search_result_limit"`

	// Resolved from the environment, never from the YAML file.
	GoldAPIKey  string       `yaml:"-"`
	LLMAPIKey   string       `yaml:"-"`
	LLMProvider llm.Provider `yaml:"-"`
}

// LoadConfig loads configuration from a .env file (local development only),
// environment variables and config.yaml. A missing required API key is a
// startup error, not something discovered on the first chat request.
func LoadConfig(path string) (*AppConfig, error) {
	// In release mode configuration is provided directly as environment
	// variables by the deployment; only local runs read a .env file.
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg := &AppConfig{
		ListenAddr:        ":8080",
		MaxTokens:         1024,
		SearchResultLimit: 5,
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	provider, err := llm.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	cfg.LLMProvider = provider
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is not set in %s", path)
	}

	cfg.GoldAPIKey = os.Getenv("GOLD_API_KEY")
	if cfg.GoldAPIKey == "" {
		return nil, fmt.Errorf("GOLD_API_KEY environment variable is not set")
	}
	cfg.LLMAPIKey = os.Getenv(provider.EnvKey())
	if cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("%s environment variable is not set for provider %q", provider.EnvKey(), provider)
	}
	return cfg, nil
}
