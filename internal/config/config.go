package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Providers supported by data_source.provider.
const (
	ProviderAlphaVantage = "alphavantage"
	ProviderYahoo        = "yahoo"
	ProviderMock         = "mock"
)

// CronParser parses six-field cron specs (with seconds), matching the scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		Provider          string `yaml:"provider"`
		BaseURL           string `yaml:"base_url"`
		APIKey            string `yaml:"api_key"`
		Symbol            string `yaml:"symbol"`
		RequestsPerMinute int    `yaml:"requests_per_minute"`
		TimeoutSeconds    int    `yaml:"timeout_seconds"`
	} `yaml:"data_source"`
	Schedule struct {
		WeeklyCron string `yaml:"weekly_cron"`
		Timezone   string `yaml:"timezone"`
	} `yaml:"schedule"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"redis"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config at path, then applies
// environment variable overrides and defaults. A missing YAML file is not an error.
func Load(path string) (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse REQUESTS_PER_MINUTE %q: %w", v, err)
		}
		cfg.DataSource.RequestsPerMinute = n
	}
	if v := os.Getenv("CRON_WEEKLY"); v != "" {
		cfg.Schedule.WeeklyCron = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderAlphaVantage
	}
	if cfg.DataSource.RequestsPerMinute == 0 {
		cfg.DataSource.RequestsPerMinute = 5 // Alpha Vantage free tier
	}
	if cfg.DataSource.TimeoutSeconds == 0 {
		cfg.DataSource.TimeoutSeconds = 30
	}
	if cfg.Schedule.WeeklyCron == "" {
		cfg.Schedule.WeeklyCron = "0 30 17 * * 5" // Friday after the US close
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "America/New_York"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Redis.TTLMinutes == 0 {
		cfg.Redis.TTLMinutes = 360
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

// Validate checks that all settings are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderAlphaVantage:
		if c.DataSource.APIKey == "" {
			return fmt.Errorf("data_source.api_key is required for %s", ProviderAlphaVantage)
		}
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.TimeoutSeconds < 0 {
		return fmt.Errorf("data_source.timeout_seconds must not be negative")
	}
	if _, err := CronParser.Parse(c.Schedule.WeeklyCron); err != nil {
		return fmt.Errorf("schedule.weekly_cron: %w", err)
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// FetchTimeout is the per-request HTTP timeout for data providers.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// CacheTTL is how long fetched bars stay in Redis.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}

// TelegramEnabled reports whether the notifier should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
