package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/icebreak/config"
	ollama_provider "github.com/mohammad-safakhou/icebreak/provider/ollama"
	openai_provider "github.com/mohammad-safakhou/icebreak/provider/openai"
)

// Backend represents the supported LLM backends
type Backend string

const (
	OpenAI Backend = "openai"
	Ollama Backend = "ollama"
)

// Provider is the interface that all LLM backends must satisfy
type Provider interface {
	// Generate sends one prompt and returns the raw model completion.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs.
	Name() string
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Backend(cfg.Backend) {
	case OpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, errors.New("openai api key not set")
		}
		return openai_provider.NewOpenAIClient(
			cfg.OpenAI.APIKey,
			cfg.OpenAI.BaseURL,
			cfg.OpenAI.Model,
			cfg.OpenAI.Temperature,
			cfg.OpenAI.MaxTokens,
			cfg.OpenAI.Timeout,
		), nil
	case Ollama:
		return ollama_provider.NewOllamaClient(
			cfg.Ollama.Host,
			cfg.Ollama.Model,
			cfg.Ollama.Temperature,
			cfg.Ollama.Timeout,
		), nil
	default:
		return nil, fmt.Errorf("unsupported LLM backend: %s", cfg.Backend)
	}
}
