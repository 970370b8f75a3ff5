package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadConfigFileDefaults(t *testing.T) {
	cfg, err := ReadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.CacheTTL() != 300*time.Second {
		t.Errorf("expected default cache ttl 300s, got %s", cfg.CacheTTL())
	}
	if cfg.RateLimit.MaxCalls != 80 || cfg.RateLimitWindow() != 100*time.Second {
		t.Errorf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
	if cfg.Sheet.Timezone != "Asia/Bangkok" {
		t.Errorf("expected Asia/Bangkok, got %s", cfg.Sheet.Timezone)
	}
	if cfg.JournalEnabled() {
		t.Error("journal should be disabled without a database address")
	}
}

func TestReadConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	contents := `
port = 9001
api_secret = "hunter2"

[sheet]
spreadsheet_id = "abc123"
sheet_name = "Queue"

[rate_limit]
max_calls = 10
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROMPTQ_CACHE__TTL_SECONDS", "42")

	cfg, err := ReadConfigFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Port != 9001 || cfg.ApiSecret != "hunter2" {
		t.Errorf("top level values not read: %+v", cfg)
	}
	if cfg.Sheet.SpreadsheetId != "abc123" || cfg.Sheet.SheetName != "Queue" {
		t.Errorf("sheet section not read: %+v", cfg.Sheet)
	}
	if cfg.Sheet.Timezone != "Asia/Bangkok" {
		t.Errorf("default timezone lost when section overridden: %q", cfg.Sheet.Timezone)
	}
	if cfg.RateLimit.MaxCalls != 10 || cfg.RateLimit.WindowSeconds != 100 {
		t.Errorf("rate limit merge wrong: %+v", cfg.RateLimit)
	}
	if cfg.Cache.TtlSeconds != 42 {
		t.Errorf("environment override not applied, got %d", cfg.Cache.TtlSeconds)
	}
	if Config.Port != 9001 {
		t.Error("global Config not updated")
	}
}

func TestEnvironmentOverridesNestedKeys(t *testing.T) {
	t.Setenv("PROMPTQ_PORT", "8123")
	t.Setenv("PROMPTQ_SHEET__SPREADSHEET_ID", "from-env")
	t.Setenv("PROMPTQ_RATE_LIMIT__WINDOW_SECONDS", "60")
	t.Setenv("PROMPTQ_LOGGING__DEBUG", "true")
	t.Setenv("OTHER_PORT", "1")

	cfg, err := ReadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if cfg.Port != 8123 {
		t.Errorf("expected port 8123, got %d", cfg.Port)
	}
	if cfg.Sheet.SpreadsheetId != "from-env" || cfg.Sheet.SheetName != "Prompts" {
		t.Errorf("sheet override wrong: %+v", cfg.Sheet)
	}
	if cfg.RateLimitWindow() != 60*time.Second || cfg.RateLimit.MaxCalls != 80 {
		t.Errorf("rate limit override wrong: %+v", cfg.RateLimit)
	}
	if !cfg.Logging.Debug {
		t.Error("logging.debug not overridden")
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"PROMPTQ_PORT":                    "port",
		"PROMPTQ_SHEET__SHEET_NAME":       "sheet.sheet_name",
		"PROMPTQ_RATE_LIMIT__MAX_CALLS":   "rate_limit.max_calls",
		"PROMPTQ_PROMETHEUS__BUCKET_SIZE": "prometheus.bucket_size",
	}
	for name, expected := range tests {
		if got := envKey(name); got != expected {
			t.Errorf("envKey(%q) = %q, want %q", name, got, expected)
		}
	}
}
