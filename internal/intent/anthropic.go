package intent

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/operation"
)

const anthropicMaxTokens = 1024

// Anthropic resolves intents with Claude tool use.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic resolver.
func NewAnthropic(apiKey, model, baseURL string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing ANTHROPIC_API_KEY", ErrNotConfigured)
	}
	opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, anthropicopt.WithBaseURL(baseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}, nil
}

func anthropicTools(catalog []operation.Descriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(catalog))
	for _, d := range catalog {
		schema := jsonSchema(d)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema["properties"],
					Required:   d.Required(),
				},
			},
		})
	}
	return out
}

// Resolve returns the first tool_use block of the reply.
func (a *Anthropic) Resolve(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(0),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: anthropicTools(catalog),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type != "tool_use" {
			continue
		}
		tu := block.AsToolUse()
		args, err := decodeArgs(string(tu.Input))
		if err != nil {
			return nil, err
		}
		return &domain.Intent{Operation: tu.Name, Args: args}, nil
	}
	return nil, nil
}
