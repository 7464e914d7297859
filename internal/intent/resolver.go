// Package intent resolves free-form prompts to a single catalog operation
// using an LLM's function-calling support.
package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/operation"
)

// ErrNotConfigured is returned when the selected provider has no API key.
var ErrNotConfigured = errors.New("intent resolver not configured")

const systemPrompt = "You translate requests about GitHub into exactly one function call. " +
	"If no function matches the request, answer in plain text without calling a function."

// Resolver maps a prompt to an intent. A nil intent with a nil error means
// the model did not pick an operation.
type Resolver interface {
	Resolve(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, prompt string, catalog []operation.Descriptor) (*domain.Intent, error) {
	return f(ctx, prompt, catalog)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // gemini, openai or anthropic
	APIKey   string
	Model    string
	BaseURL  string // OpenAI-compatible or Anthropic endpoint override
}

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

var defaultModels = map[string]string{
	ProviderGemini:    "gemini-1.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
}

// New builds the resolver named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Resolver, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}

	switch provider {
	case ProviderGemini:
		g, err := NewGemini(ctx, cfg.APIKey, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case ProviderOpenAI:
		o, err := NewOpenAI(cfg.APIKey, model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return o, nil
	case ProviderAnthropic:
		a, err := NewAnthropic(cfg.APIKey, model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// decodeArgs parses a JSON-encoded argument object as returned by
// OpenAI-style tool calls.
func decodeArgs(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return args, nil
}
