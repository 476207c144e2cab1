package briefing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const systemPrompt = "You write concise, objective daily news briefings in Markdown."

// anthropicRateLimit is the error type the Messages API reports with a 429.
const anthropicRateLimit = "rate_limit_error"

// Anthropic generates text with the Anthropic Messages API. It cannot list models.
type Anthropic struct {
	apiKey    string
	maxTokens int
	prompt    func(user, apiKey string, settings types.RequestSettings) (string, error)
}

// NewAnthropic creates an Anthropic provider for apiKey.
func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{apiKey: apiKey, maxTokens: 4096, prompt: messages}
}

// messages calls the Messages API and returns the first content block.
func messages(user, apiKey string, settings types.RequestSettings) (string, error) {
	response, err := anthropic.PromptWithSettings(systemPrompt, user, "", apiKey, settings)
	if err != nil {
		return "", err
	}
	if len(response.Content) == 0 {
		return "", errors.New("no content in response")
	}
	return response.Content[0].Text, nil
}

type promptResult struct {
	text string
	err  error
}

// Generate sends prompt to model and returns the first content block.
// llmkit takes no context, so a cancelled ctx abandons the request rather
// than aborting it; the call finishes in the background.
func (a *Anthropic) Generate(ctx context.Context, model, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	settings := types.RequestSettings{
		Model:     model,
		MaxTokens: a.maxTokens,
	}

	done := make(chan promptResult, 1)
	go func() {
		text, err := a.call(model, prompt, settings)
		done <- promptResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

func (a *Anthropic) call(model, prompt string, settings types.RequestSettings) (string, error) {
	text, err := a.prompt(prompt, a.apiKey, settings)
	if err != nil {
		return "", anthropicError(model, err)
	}
	return text, nil
}

// anthropicError wraps err and tags rate limits with the 429 code so the
// generator's cooldown retry applies to them.
func anthropicError(model string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, anthropicRateLimit) && !strings.Contains(msg, rateLimitCode) {
		return fmt.Errorf("prompt %s: status %s: %w", model, rateLimitCode, err)
	}
	return fmt.Errorf("prompt %s: %w", model, err)
}
