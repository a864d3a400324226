package llm

import (
	"context"
	"fmt"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

type openAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator constructs a generator against any OpenAI-compatible
// completion endpoint.
func NewOpenAIGenerator(cfg config.LLMConfig) Generator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIGenerator{
		client: openai.NewClientWithConfig(oc),
		model:  model,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.1,
	}
	req.Messages = make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
