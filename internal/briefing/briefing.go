// Package briefing turns collected articles into a Markdown news briefing
// with a generative text model.
package briefing

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"newsroom/internal/model"
)

// ErrNoArticles is returned when there is nothing to summarize. No model is called.
var ErrNoArticles = errors.New("no articles to summarize")

// ErrListingUnsupported is returned by ListModels for providers without a model listing.
var ErrListingUnsupported = errors.New("model listing is not supported by this provider")

// rateLimitCode marks a provider failure as a rate limit.
const rateLimitCode = "429"

//go:embed prompt.tmpl
var promptText string

var promptTmpl = template.Must(template.New("prompt").Funcs(template.FuncMap{
	"ordinal": func(i int) int { return i + 1 },
}).Parse(promptText))

// TextModel generates text for a prompt with the named model.
type TextModel interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Config tunes the generator.
type Config struct {
	PrimaryModel  string
	FallbackModel string
	// MaxArticles bounds how many articles are put into the prompt.
	MaxArticles int
	// Cooldown is the wait before retrying the primary model after a rate limit.
	Cooldown time.Duration
}

// DefaultConfig returns the Gemini defaults.
func DefaultConfig() Config {
	return Config{
		PrimaryModel:  "gemini-2.0-flash-001",
		FallbackModel: "gemini-2.0-flash-lite-001",
		MaxArticles:   20,
		Cooldown:      30 * time.Second,
	}
}

// GenerationError reports that the primary model, its rate-limit retry and
// the fallback model all failed.
type GenerationError struct {
	PrimaryModel  string
	FallbackModel string
	Primary       error
	// Retry is nil when the primary failure was not a rate limit.
	Retry error
	// Fallback is nil when the run was cancelled before the fallback call.
	Fallback error
	// Models lists the provider's models; empty when listing failed or is unsupported.
	Models []string
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ERROR: Error generating content (%s): %v", e.PrimaryModel, e.Primary)
	if e.Retry != nil {
		fmt.Fprintf(&b, "\nRetry error (%s): %v", e.PrimaryModel, e.Retry)
	}
	if e.Fallback != nil {
		fmt.Fprintf(&b, "\nFallback error (%s): %v", e.FallbackModel, e.Fallback)
	}
	if len(e.Models) > 0 {
		fmt.Fprintf(&b, "\n\n[Debug] Available Models: %s", strings.Join(e.Models, ", "))
	}
	return b.String()
}

func (e *GenerationError) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Primary, e.Retry, e.Fallback} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Generator summarizes articles through a TextModel with retry and fallback.
type Generator struct {
	model TextModel
	cfg   Config
	log   *slog.Logger
	wait  func(ctx context.Context, d time.Duration) error
}

// New creates a Generator. Zero fields in cfg take their defaults.
func New(m TextModel, cfg Config, log *slog.Logger) *Generator {
	def := DefaultConfig()
	if cfg.PrimaryModel == "" {
		cfg.PrimaryModel = def.PrimaryModel
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = def.FallbackModel
	}
	if cfg.MaxArticles <= 0 {
		cfg.MaxArticles = def.MaxArticles
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	return &Generator{model: m, cfg: cfg, log: log, wait: sleep}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config { return g.cfg }

// Prompt renders the prompt for articles, keeping only the first MaxArticles.
func (g *Generator) Prompt(articles []model.Article) (string, error) {
	if len(articles) > g.cfg.MaxArticles {
		articles = articles[:g.cfg.MaxArticles]
	}
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, articles); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// Summarize returns the Markdown briefing for articles. It returns
// ErrNoArticles for empty input and *GenerationError once every attempt
// has failed. The primary model is always tried first; a rate-limited
// primary is retried once after the cooldown before the fallback model
// gets its single attempt.
func (g *Generator) Summarize(ctx context.Context, articles []model.Article) (string, error) {
	if len(articles) == 0 {
		return "", ErrNoArticles
	}
	if len(articles) > g.cfg.MaxArticles {
		g.log.Info("limiting articles for analysis", "collected", len(articles), "max", g.cfg.MaxArticles)
	}
	prompt, err := g.Prompt(articles)
	if err != nil {
		return "", err
	}

	text, err := g.model.Generate(ctx, g.cfg.PrimaryModel, prompt)
	if err == nil {
		return text, nil
	}
	genErr := &GenerationError{
		PrimaryModel:  g.cfg.PrimaryModel,
		FallbackModel: g.cfg.FallbackModel,
		Primary:       err,
	}
	g.log.Warn("primary model failed", "model", g.cfg.PrimaryModel, "error", err)

	if strings.Contains(err.Error(), rateLimitCode) {
		g.log.Info("rate limited, waiting before retry", "cooldown", g.cfg.Cooldown)
		if err := g.wait(ctx, g.cfg.Cooldown); err != nil {
			genErr.Retry = fmt.Errorf("cooldown interrupted: %w", err)
			return "", genErr
		}
		text, err := g.model.Generate(ctx, g.cfg.PrimaryModel, prompt)
		if err == nil {
			return text, nil
		}
		genErr.Retry = err
		g.log.Warn("primary model retry failed", "model", g.cfg.PrimaryModel, "error", err)
	}

	g.log.Info("falling back", "model", g.cfg.FallbackModel)
	text, err = g.model.Generate(ctx, g.cfg.FallbackModel, prompt)
	if err == nil {
		return text, nil
	}
	genErr.Fallback = err
	g.log.Error("fallback model failed", "model", g.cfg.FallbackModel, "error", err)

	genErr.Models = g.listModels(ctx)
	return "", genErr
}

// listModels is best effort: failures are logged and yield nil.
func (g *Generator) listModels(ctx context.Context) []string {
	lister, ok := g.model.(ModelLister)
	if !ok {
		return nil
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		g.log.Warn("failed to list models", "error", err)
		return nil
	}
	return models
}

// ListModels returns the provider's models, or an error if it cannot list them.
func (g *Generator) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := g.model.(ModelLister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	return lister.ListModels(ctx)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
