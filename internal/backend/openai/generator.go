package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tjfontaine/edge-content-gateway/internal/core/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// DefaultPrompt asks for a short product review intro. The placeholders are
// the region and the normalized identity.
const DefaultPrompt = "اكتب مقدمة قصيرة ومفيدة لمراجعة المنتج التالي للمستخدمين في %s: \"%s\"."

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Model     string
	Prompt    string
	MaxTokens int
}

// Generator implements ports.ContentGenerator with a chat completion.
type Generator struct {
	client *Client
	cfg    GeneratorConfig
}

var _ ports.ContentGenerator = (*Generator)(nil)

// NewGenerator creates a generator backed by client.
func NewGenerator(client *Client, cfg GeneratorConfig) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &Generator{client: client, cfg: cfg}
}

// Generate asks the model for text about identity in region.
func (g *Generator) Generate(ctx context.Context, identity, region string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []Message{
			{Role: "user", Content: fmt.Sprintf(g.cfg.Prompt, region, identity)},
		},
		MaxTokens: g.cfg.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion %s returned no choices", resp.ID)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("completion %s returned empty content", resp.ID)
	}
	return text, nil
}
