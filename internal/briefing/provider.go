package briefing

import (
	"context"
	"fmt"
)

// Provider names accepted by NewModel.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// NewModel returns the TextModel for provider.
func NewModel(ctx context.Context, provider, apiKey string) (TextModel, error) {
	switch provider {
	case ProviderGemini:
		return NewGemini(ctx, apiKey)
	case ProviderAnthropic:
		return NewAnthropic(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// ProviderConfig returns DefaultConfig with the provider's own model names.
func ProviderConfig(provider string) Config {
	cfg := DefaultConfig()
	if provider == ProviderAnthropic {
		cfg.PrimaryModel = "claude-3-5-sonnet-latest"
		cfg.FallbackModel = "claude-3-5-haiku-latest"
	}
	return cfg
}
