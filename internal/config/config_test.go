package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.Provider != ProviderAlphaVantage {
		t.Errorf("expected default provider %q, got %q", ProviderAlphaVantage, cfg.DataSource.Provider)
	}
	if cfg.DataSource.RequestsPerMinute != 5 {
		t.Errorf("expected 5 requests per minute, got %d", cfg.DataSource.RequestsPerMinute)
	}
	if cfg.Schedule.WeeklyCron != "0 30 17 * * 5" || cfg.HTTP.Addr != ":8080" {
		t.Errorf("unexpected defaults: cron=%q addr=%q", cfg.Schedule.WeeklyCron, cfg.HTTP.Addr)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram should be disabled without credentials")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: yahoo
  symbol: msft
schedule:
  weekly_cron: "0 0 18 * * 5"
redis:
  addr: localhost:6379
  ttl_minutes: 30
`)
	t.Setenv("SYMBOL", "NVDA")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataSource.Provider != ProviderYahoo {
		t.Errorf("expected yahoo, got %q", cfg.DataSource.Provider)
	}
	if cfg.DataSource.Symbol != "NVDA" {
		t.Errorf("expected env override NVDA, got %q", cfg.DataSource.Symbol)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.HTTP.Addr)
	}
	if cfg.CacheTTL().Minutes() != 30 {
		t.Errorf("expected 30m cache TTL, got %v", cfg.CacheTTL())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "data_source: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"alphavantage without key", func(c *Config) { c.DataSource.Provider = ProviderAlphaVantage }, "api_key"},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }, "not supported"},
		{"bad cron", func(c *Config) { c.Schedule.WeeklyCron = "every friday" }, "weekly_cron"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "timezone"},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }, "set together"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		cfg.DataSource.Provider = ProviderMock
		tt.mutate(cfg)
		err = cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.errSub) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.errSub, err)
		}
	}
}
