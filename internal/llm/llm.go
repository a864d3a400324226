// Package llm abstracts the external text-generation service.
package llm

import (
	"context"
	"fmt"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
)

// Generator produces text from a chat-style prompt.
type Generator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// NewGenerator selects a provider from configuration.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiGenerator(ctx, cfg)
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
