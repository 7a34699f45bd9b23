package main

import (
	"path/filepath"
	"testing"

	"agora/internal/config"
	"agora/internal/store"
	"agora/internal/vault"
)

func newTestKeeper(t *testing.T) *vault.Keeper {
	t.Helper()
	db, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return vault.NewKeeper(vault.New("test-passphrase"), db)
}

func TestFillFromVaultBackfillsEmptyCredentials(t *testing.T) {
	keeper := newTestKeeper(t)
	if err := keeper.Put("openai_api_key", "api_key", []byte("sk-vault")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := keeper.Put("smtp_password", "password", []byte("hunter2")); err != nil {
		t.Fatalf("put: %v", err)
	}

	cfg := &config.Config{}
	cfg.Search.APIKey = "from-env"

	fillFromVault(keeper, cfg)

	if cfg.Model.APIKey != "sk-vault" {
		t.Errorf("expected model api key from vault, got %q", cfg.Model.APIKey)
	}
	if cfg.SMTP.Password != "hunter2" {
		t.Errorf("expected smtp password from vault, got %q", cfg.SMTP.Password)
	}
	// Values already provided are not overwritten
	if cfg.Search.APIKey != "from-env" {
		t.Errorf("expected search api key untouched, got %q", cfg.Search.APIKey)
	}
}
