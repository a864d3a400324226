package llm

import (
	"context"
	"fmt"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
	"google.golang.org/genai"
)

type geminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator constructs a Google Gemini backed generator.
func NewGeminiGenerator(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-3-flash"
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	var contents []*genai.Content
	for _, msg := range messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	})
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return resp.Text(), nil
}
