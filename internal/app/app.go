// Package app assembles the newsroom service from configuration.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"newsroom/internal/archive"
	"newsroom/internal/briefing"
	"newsroom/internal/config"
	"newsroom/internal/fetcher"
	"newsroom/internal/newsroom"
	"newsroom/internal/storage"
)

// App owns the service and the resources behind it.
type App struct {
	Service *newsroom.Service
	store   storage.Store
}

// Close releases the document store.
func (a *App) Close() error {
	return a.store.Close()
}

// Open builds the store, collector and generator described by cfg.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	m, err := briefing.NewModel(ctx, cfg.LLM.Provider, cfg.LLM.APIKey)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	collector := fetcher.NewCollector(fetcher.New(httpClient), log.With("component", "collector"))
	gen := briefing.New(m, GeneratorConfig(cfg.LLM.Provider, cfg.Settings), log.With("component", "generator"))
	docs := archive.New(store, archive.DefaultPaths(cfg.DataPrefix), log.With("component", "archive"))

	log.Info("newsroom ready",
		"store", cfg.Store.Backend,
		"provider", cfg.LLM.Provider,
		"primary_model", gen.Config().PrimaryModel,
	)
	return &App{
		Service: newsroom.New(docs, collector, gen, cfg.AdminPassword, log),
		store:   store,
	}, nil
}

// OpenStore opens the configured document store backend.
func OpenStore(ctx context.Context, sc config.StoreConfig) (storage.Store, error) {
	switch sc.Backend {
	case config.BackendGitHub:
		client := github.NewClient(nil).WithAuthToken(sc.GitHubToken)
		store, err := storage.NewGitHub(client, sc.RepoName, sc.GitHubBranch)
		if err != nil {
			return nil, fmt.Errorf("open github store: %w", err)
		}
		return store, nil
	case config.BackendSQLite:
		if dir := filepath.Dir(sc.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		store, err := storage.NewSQLite(sc.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.BackendS3:
		store, err := storage.NewS3(ctx, storage.S3Config{Bucket: sc.S3Bucket, Region: sc.S3Region})
		if err != nil {
			return nil, fmt.Errorf("open s3 store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// GeneratorConfig returns the provider defaults overridden by settings.
func GeneratorConfig(provider string, s config.Settings) briefing.Config {
	cfg := briefing.ProviderConfig(provider)
	if s.PrimaryModel != "" {
		cfg.PrimaryModel = s.PrimaryModel
	}
	if s.FallbackModel != "" {
		cfg.FallbackModel = s.FallbackModel
	}
	if s.MaxArticles > 0 {
		cfg.MaxArticles = s.MaxArticles
	}
	if s.Cooldown > 0 {
		cfg.Cooldown = s.Cooldown
	}
	return cfg
}

// NewLogger returns a text logger on stderr at the named level.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
