// Package config handles application configuration from environment variables
// and the optional generator settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendGitHub = "github"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// LLM providers.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	AdminPassword    string
	LogLevel         string
	AllowedUsers     []int64
	// HTTPAddr enables the public viewer when set.
	HTTPAddr string
	// DataPrefix is prepended to the document names, e.g. "data/".
	DataPrefix string

	Store    StoreConfig
	LLM      LLMConfig
	Settings Settings
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend      string
	GitHubToken  string
	RepoName     string
	GitHubBranch string
	DatabasePath string
	S3Bucket     string
	S3Region     string
}

// LLMConfig selects the text generation provider.
type LLMConfig struct {
	Provider string
	APIKey   string
}

// Settings tunes briefing generation. Zero values mean "use the default".
type Settings struct {
	PrimaryModel  string        `yaml:"primary_model"`
	FallbackModel string        `yaml:"fallback_model"`
	MaxArticles   int           `yaml:"max_articles"`
	Cooldown      time.Duration `yaml:"-"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return nil, errors.New("ADMIN_PASSWORD is required")
	}

	allowedUsers, err := parseUserIDs(os.Getenv("ALLOWED_USERS"))
	if err != nil {
		return nil, err
	}

	store, err := loadStore()
	if err != nil {
		return nil, err
	}

	llm, err := loadLLM()
	if err != nil {
		return nil, err
	}

	var settings Settings
	if path := os.Getenv("SETTINGS_PATH"); path != "" {
		settings, err = LoadSettings(path)
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminPassword:    password,
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		AllowedUsers:     allowedUsers,
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		DataPrefix:       envOrDefault("DATA_PREFIX", "data/"),
		Store:            store,
		LLM:              llm,
		Settings:         settings,
	}, nil
}

// RequireTelegram reports an error when the bot token is missing.
func (c *Config) RequireTelegram() error {
	if c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

func loadStore() (StoreConfig, error) {
	sc := StoreConfig{
		Backend:      strings.ToLower(envOrDefault("STORE_BACKEND", BackendGitHub)),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		RepoName:     os.Getenv("REPO_NAME"),
		GitHubBranch: os.Getenv("GITHUB_BRANCH"),
		DatabasePath: envOrDefault("DATABASE_PATH", "./data/newsroom.db"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		S3Region:     os.Getenv("S3_REGION"),
	}
	switch sc.Backend {
	case BackendGitHub:
		if sc.GitHubToken == "" || sc.RepoName == "" {
			return sc, errors.New("GITHUB_TOKEN and REPO_NAME are required for the github store")
		}
	case BackendS3:
		if sc.S3Bucket == "" {
			return sc, errors.New("S3_BUCKET is required for the s3 store")
		}
	case BackendSQLite:
	default:
		return sc, fmt.Errorf("unknown STORE_BACKEND %q, use: github, sqlite, s3", sc.Backend)
	}
	return sc, nil
}

func loadLLM() (LLMConfig, error) {
	lc := LLMConfig{Provider: strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini))}
	var keyVar string
	switch lc.Provider {
	case ProviderGemini:
		keyVar = "GEMINI_API_KEY"
	case ProviderAnthropic:
		keyVar = "ANTHROPIC_API_KEY"
	default:
		return lc, fmt.Errorf("unknown LLM_PROVIDER %q, use: gemini, anthropic", lc.Provider)
	}
	lc.APIKey = os.Getenv(keyVar)
	if lc.APIKey == "" {
		return lc, fmt.Errorf("%s is required", keyVar)
	}
	return lc, nil
}

// settingsFile is the on-disk shape of Settings.
type settingsFile struct {
	Settings `yaml:",inline"`
	Cooldown string `yaml:"cooldown"`
}

// LoadSettings reads generator settings from a YAML file.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	var f settingsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if f.MaxArticles < 0 {
		return Settings{}, fmt.Errorf("max_articles must not be negative, got %d", f.MaxArticles)
	}

	s := f.Settings
	if f.Cooldown != "" {
		d, err := time.ParseDuration(f.Cooldown)
		if err != nil || d < 0 {
			return Settings{}, fmt.Errorf("invalid cooldown %q", f.Cooldown)
		}
		s.Cooldown = d
	}
	return s, nil
}

func parseUserIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		uid, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
		}
		ids = append(ids, uid)
	}
	return ids, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
