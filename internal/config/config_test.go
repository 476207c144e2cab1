package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "ADMIN_PASSWORD", "LOG_LEVEL", "ALLOWED_USERS", "HTTP_ADDR", "DATA_PREFIX",
	"STORE_BACKEND", "GITHUB_TOKEN", "REPO_NAME", "GITHUB_BRANCH", "DATABASE_PATH", "S3_BUCKET", "S3_REGION",
	"LLM_PROVIDER", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "SETTINGS_PATH",
}

// minimalEnv is the smallest environment Load accepts.
func minimalEnv() map[string]string {
	return map[string]string{
		"ADMIN_PASSWORD": "pw",
		"GITHUB_TOKEN":   "ghp_x",
		"REPO_NAME":      "me/news",
		"GEMINI_API_KEY": "gk",
	}
}

func with(env map[string]string, kv ...string) map[string]string {
	for i := 0; i+1 < len(kv); i += 2 {
		env[kv[i]] = kv[i+1]
	}
	return env
}

func TestLoad(t *testing.T) {
	defaultStore := StoreConfig{
		Backend:      BackendGitHub,
		GitHubToken:  "ghp_x",
		RepoName:     "me/news",
		DatabasePath: "./data/newsroom.db",
	}

	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing password",
			env:     with(minimalEnv(), "ADMIN_PASSWORD", ""),
			wantErr: true,
		},
		{
			name: "defaults applied",
			env:  minimalEnv(),
			want: &Config{
				AdminPassword: "pw",
				LogLevel:      "info",
				DataPrefix:    "data/",
				Store:         defaultStore,
				LLM:           LLMConfig{Provider: ProviderGemini, APIKey: "gk"},
			},
		},
		{
			name: "all values set",
			env: with(minimalEnv(),
				"TELEGRAM_BOT_TOKEN", "tok",
				"LOG_LEVEL", "debug",
				"ALLOWED_USERS", "111,222,333",
				"HTTP_ADDR", ":8080",
				"DATA_PREFIX", "briefings/",
				"STORE_BACKEND", "sqlite",
				"DATABASE_PATH", "/tmp/news.db",
				"LLM_PROVIDER", "anthropic",
				"ANTHROPIC_API_KEY", "ak",
			),
			want: &Config{
				TelegramBotToken: "tok",
				AdminPassword:    "pw",
				LogLevel:         "debug",
				AllowedUsers:     []int64{111, 222, 333},
				HTTPAddr:         ":8080",
				DataPrefix:       "briefings/",
				Store: StoreConfig{
					Backend:      BackendSQLite,
					GitHubToken:  "ghp_x",
					RepoName:     "me/news",
					DatabasePath: "/tmp/news.db",
				},
				LLM: LLMConfig{Provider: ProviderAnthropic, APIKey: "ak"},
			},
		},
		{
			name: "allowed users with spaces",
			env:  with(minimalEnv(), "ALLOWED_USERS", " 10 , 20 , "),
			want: &Config{
				AdminPassword: "pw",
				LogLevel:      "info",
				AllowedUsers:  []int64{10, 20},
				DataPrefix:    "data/",
				Store:         defaultStore,
				LLM:           LLMConfig{Provider: ProviderGemini, APIKey: "gk"},
			},
		},
		{
			name:    "invalid user id",
			env:     with(minimalEnv(), "ALLOWED_USERS", "123,abc"),
			wantErr: true,
		},
		{
			name:    "github store without repo",
			env:     with(minimalEnv(), "REPO_NAME", ""),
			wantErr: true,
		},
		{
			name:    "s3 store without bucket",
			env:     with(minimalEnv(), "STORE_BACKEND", "s3"),
			wantErr: true,
		},
		{
			name:    "unknown backend",
			env:     with(minimalEnv(), "STORE_BACKEND", "dropbox"),
			wantErr: true,
		},
		{
			name:    "unknown provider",
			env:     with(minimalEnv(), "LLM_PROVIDER", "openai"),
			wantErr: true,
		},
		{
			name:    "anthropic without key",
			env:     with(minimalEnv(), "LLM_PROVIDER", "anthropic"),
			wantErr: true,
		},
		{
			name:    "missing settings file",
			env:     with(minimalEnv(), "SETTINGS_PATH", "/nonexistent/settings.yaml"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequireTelegram(t *testing.T) {
	if err := (&Config{}).RequireTelegram(); err == nil {
		t.Error("expected error for missing token")
	}
	if err := (&Config{TelegramBotToken: "tok"}).RequireTelegram(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestLoadSettings(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Settings
		wantErr bool
	}{
		{
			name: "full",
			content: `primary_model: gemini-2.5-flash
fallback_model: gemini-2.5-flash-lite
max_articles: 15
cooldown: 45s
`,
			want: Settings{
				PrimaryModel:  "gemini-2.5-flash",
				FallbackModel: "gemini-2.5-flash-lite",
				MaxArticles:   15,
				Cooldown:      45 * time.Second,
			},
		},
		{
			name:    "partial",
			content: "max_articles: 10\n",
			want:    Settings{MaxArticles: 10},
		},
		{
			name:    "bad cooldown",
			content: "cooldown: soon\n",
			wantErr: true,
		},
		{
			name:    "negative max articles",
			content: "max_articles: -1\n",
			wantErr: true,
		},
		{
			name:    "not yaml",
			content: "primary_model: [unterminated\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadSettings(writeSettings(t, tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadSettings() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSettingsFromEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	for k, v := range minimalEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("SETTINGS_PATH", writeSettings(t, "cooldown: 1m\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(Settings{Cooldown: time.Minute}, cfg.Settings); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
