package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.StorageDriver != "file" {
		t.Fatalf("expected file storage driver, got %q", cfg.StorageDriver)
	}
	if cfg.SyncInterval != time.Minute {
		t.Fatalf("expected 1m sync interval, got %v", cfg.SyncInterval)
	}
	if cfg.LoginAttempts != 5 || cfg.LoginWindow != 10*time.Minute {
		t.Fatalf("unexpected login limits: %d/%v", cfg.LoginAttempts, cfg.LoginWindow)
	}
	if cfg.StorageNS != "default" {
		t.Fatalf("expected default namespace, got %q", cfg.StorageNS)
	}
	if len(cfg.DraftKeys) != 3 || cfg.DraftKeys[0] != "outreach_draft" {
		t.Fatalf("unexpected draft keys: %+v", cfg.DraftKeys)
	}
}

func TestLoadConfig_RequiresAPIBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when API_BASE_URL is empty")
	}
}
