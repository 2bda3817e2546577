// Package ai provides the text generation client used by the recommendation
// workflow on top of a chat completion provider
package ai

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriguide/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutriguide/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Completer is a chat completion provider
type Completer interface {
	Name() string
	Chat(ctx context.Context, system, prompt string, maxTokens int, temperature float64, jsonMode bool) (string, error)
	HealthCheck(ctx context.Context) error
}

var (
	_ Completer = (*ollama.Client)(nil)
	_ Completer = (*openai.Client)(nil)
)

// NewCompleter creates the provider selected in the configuration
func NewCompleter(cfg config.AIConfig, logger *zap.Logger) (Completer, error) {
	switch cfg.Provider {
	case "ollama", "":
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.Timeout,
		}, logger), nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return openai.NewClient(openai.Config{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
