package intent

import (
	"context"
	"fmt"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/operation"
)

// Gemini resolves intents with Google Gemini function calling.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini resolver.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing GEMINI_API_KEY", ErrNotConfigured)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Resolve sends prompt with the catalog as function declarations and returns
// the first function call of the first candidate.
func (g *Gemini) Resolve(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)
	model.Tools = []*genai.Tool{geminiTool(catalog)}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			return &domain.Intent{Operation: fc.Name, Args: fc.Args}, nil
		}
	}
	return nil, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
