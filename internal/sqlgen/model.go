package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// SQLModel produces a single SQL statement for a user prompt. Implementations
// must honor ctx cancellation.
type SQLModel interface {
	GenerateSQL(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// AnthropicModel backs the model generation path with Anthropic Claude or a
// compatible provider.
type AnthropicModel struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicModel builds a client. baseURL is optional and overrides the
// provider endpoint.
func NewAnthropicModel(apiKey, model, baseURL string) *AnthropicModel {
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicModel{
		client:    client,
		model:     model,
		maxTokens: 1024,
	}
}

func (m *AnthropicModel) GenerateSQL(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(m.model)),
		MaxTokens: anthropic.F(int64(m.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		}),
	}
	if systemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(systemPrompt),
		})
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text += b.Text
		}
	}

	sql := stripMarkdownSQL(text)
	if sql == "" {
		return "", fmt.Errorf("model returned no SQL")
	}
	return sql, nil
}

// stripMarkdownSQL pulls the statement out of a ```sql fence if the model
// wrapped its reply in one, otherwise trims the raw text.
func stripMarkdownSQL(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```sql"); idx >= 0 {
		rest := text[idx+len("```sql"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}
	return text
}
