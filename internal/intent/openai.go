package intent

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/operation"
)

// OpenAI resolves intents with OpenAI-compatible tool calling.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI resolver. baseURL may point at any
// OpenAI-compatible endpoint.
func NewOpenAI(apiKey, model, baseURL string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing OPENAI_API_KEY", ErrNotConfigured)
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func openaiTools(catalog []operation.Descriptor) []openai.Tool {
	tools := make([]openai.Tool, 0, len(catalog))
	for _, d := range catalog {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  jsonSchema(d),
			},
		})
	}
	return tools
}

// Resolve returns the first tool call of the first choice.
func (o *OpenAI) Resolve(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		// A zero temperature is dropped by omitempty.
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools:      openaiTools(catalog),
		ToolChoice: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, nil
	}
	args, err := decodeArgs(calls[0].Function.Arguments)
	if err != nil {
		return nil, err
	}
	return &domain.Intent{Operation: calls[0].Function.Name, Args: args}, nil
}
