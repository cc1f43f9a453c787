package llm

import (
	"fmt"
	"strings"
)

// Provider identifies which hosted LLM service backs the orchestrator.
type Provider string

const (
	ProviderAnthropic  Provider = "anthropic"
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGemini     Provider = "gemini"
)

// ParseProvider validates a provider name from configuration.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderAnthropic, ProviderOpenAI, ProviderOpenRouter, ProviderGemini:
		return p, nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q (supported: anthropic, openai, openrouter, gemini)", s)
	}
}

// EnvKey names the environment variable holding the provider's API key.
func (p Provider) EnvKey() string {
	switch p {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	}
	return ""
}

// NewClient constructs the concrete client for a provider. Exactly one
// provider is active per process; the selection is explicit configuration,
// not runtime duck-typing.
func NewClient(provider Provider, apiKey, modelID string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderOpenRouter:
		return NewOpenRouterClient(apiKey)
	case ProviderGemini:
		return NewGeminiClient(apiKey, modelID)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
