package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.Model.Name)
	}
	if cfg.Model.Timeout != 60*time.Second {
		t.Errorf("expected model timeout 60s, got %v", cfg.Model.Timeout)
	}
	if cfg.Teams.MaxTurns != 25 {
		t.Errorf("expected max_turns 25, got %d", cfg.Teams.MaxTurns)
	}
	if cfg.Teams.SimilarityThreshold != 0.2 {
		t.Errorf("expected similarity_threshold 0.2, got %v", cfg.Teams.SimilarityThreshold)
	}
	if cfg.NATS.Port != 4222 {
		t.Errorf("expected nats port 4222, got %d", cfg.NATS.Port)
	}
	if cfg.Web.Port != 8080 {
		t.Errorf("expected web port 8080, got %d", cfg.Web.Port)
	}
	if !cfg.Web.Enabled {
		t.Error("expected web enabled by default")
	}
	if cfg.Store.Path != "data/agora.db" {
		t.Errorf("expected store path data/agora.db, got %s", cfg.Store.Path)
	}
	if cfg.Scheduler.PollInterval != 30*time.Second {
		t.Errorf("expected poll interval 30s, got %v", cfg.Scheduler.PollInterval)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	// Point config to a non-existent file so we use defaults
	t.Setenv("AGORA_CONFIG", "/nonexistent/config.yaml")
	t.Setenv("AGORA_TELEGRAM_TOKEN", "test-token-123")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("AGORA_WEB_PASSWORD", "secret")
	t.Setenv("AGORA_WEB_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Telegram.Token != "test-token-123" {
		t.Errorf("expected telegram token test-token-123, got %s", cfg.Telegram.Token)
	}
	if cfg.Model.APIKey != "sk-test-key" {
		t.Errorf("expected model api key sk-test-key, got %s", cfg.Model.APIKey)
	}
	if cfg.Web.Auth != "secret" {
		t.Errorf("expected web auth secret, got %s", cfg.Web.Auth)
	}
	if cfg.Web.Port != 9090 {
		t.Errorf("expected web port 9090, got %d", cfg.Web.Port)
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
model:
  name: "gpt-4.1"
telegram:
  token: "yaml-token"
  allow_from: [123, 456]
teams:
  max_turns: 40
  min_score_threshold: 85
web:
  port: 3000
  enabled: false
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGORA_CONFIG", cfgPath)
	// Clear any env overrides
	t.Setenv("AGORA_TELEGRAM_TOKEN", "")
	t.Setenv("OPENAI_MODEL_NAME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Model.Name != "gpt-4.1" {
		t.Errorf("expected gpt-4.1, got %s", cfg.Model.Name)
	}
	if cfg.Telegram.Token != "yaml-token" {
		t.Errorf("expected yaml-token, got %s", cfg.Telegram.Token)
	}
	if len(cfg.Telegram.AllowFrom) != 2 {
		t.Errorf("expected 2 allow_from entries, got %d", len(cfg.Telegram.AllowFrom))
	}
	if cfg.Teams.MaxTurns != 40 {
		t.Errorf("expected max_turns 40, got %d", cfg.Teams.MaxTurns)
	}
	if cfg.Teams.MinScoreThreshold != 85 {
		t.Errorf("expected min_score_threshold 85, got %d", cfg.Teams.MinScoreThreshold)
	}
	if cfg.Web.Port != 3000 {
		t.Errorf("expected web port 3000, got %d", cfg.Web.Port)
	}
	if cfg.Web.Enabled {
		t.Error("expected web disabled")
	}
}

func TestLoadExpandsEnvInYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	yaml := `
search:
  api_key: "${TEST_SEARCH_KEY}"
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGORA_CONFIG", cfgPath)
	t.Setenv("TEST_SEARCH_KEY", "serp-123")
	t.Setenv("SERPAPI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Search.APIKey != "serp-123" {
		t.Errorf("expected serp-123, got %s", cfg.Search.APIKey)
	}
}
