// Package llm adapts generative-text providers to domain.TextGenerator.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
)

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

var errEmptyResponse = errors.New("model returned no text")

// Config holds provider configuration.
type Config struct {
	Provider string // "gemini" or "openai"
	Model    string // empty selects the provider default
	APIKey   string
	BaseURL  string // optional endpoint override
}

// NewGenerator creates a TextGenerator for cfg.Provider.
func NewGenerator(ctx context.Context, cfg Config) (domain.TextGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s provider requires an API key", cfg.Provider)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "google":
		return newGemini(ctx, cfg)
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: gemini, openai)", cfg.Provider)
	}
}
