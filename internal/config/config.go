package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Every constant the pipeline
// depends on (directory roles, forecast horizon, model order) lives here so
// components can be tested with synthetic values.
type Config struct {
	Paths struct {
		Raw       string `yaml:"raw"`
		Processed string `yaml:"processed"`
		Forecast  string `yaml:"forecast"`
	} `yaml:"paths"`
	Runner struct {
		Workers int `yaml:"workers"`
	} `yaml:"runner"`
	Forecast struct {
		Steps           int     `yaml:"steps"`
		MinObservations int     `yaml:"min_observations"`
		Order           Order   `yaml:"order"`
		Confidence      float64 `yaml:"confidence"`
		RemoveStale     bool    `yaml:"remove_stale"`
	} `yaml:"forecast"`
	Collector struct {
		Symbols []string `yaml:"symbols"` // Yahoo Finance tickers
		Coins   []string `yaml:"coins"`   // CoinGecko coin ids
		Days    int      `yaml:"days"`
		Proxy   string   `yaml:"proxy"`
	} `yaml:"collector"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // console or json
	} `yaml:"log"`
}

// Order is an ARIMA(p,d,q) model order.
type Order struct {
	P int `yaml:"p"`
	D int `yaml:"d"`
	Q int `yaml:"q"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
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
	if v := os.Getenv("RAW_DIR"); v != "" {
		cfg.Paths.Raw = v
	}
	if v := os.Getenv("PROCESSED_DIR"); v != "" {
		cfg.Paths.Processed = v
	}
	if v := os.Getenv("FORECAST_DIR"); v != "" {
		cfg.Paths.Forecast = v
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
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Collector.Proxy = v
	}
	if v := os.Getenv("COLLECT_SYMBOLS"); v != "" {
		cfg.Collector.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("RUNNER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.Workers = n
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Paths.Raw == "" {
		cfg.Paths.Raw = "data/raw"
	}
	if cfg.Paths.Processed == "" {
		cfg.Paths.Processed = "data/processed"
	}
	if cfg.Paths.Forecast == "" {
		cfg.Paths.Forecast = "data/forecasted"
	}
	if cfg.Runner.Workers == 0 {
		cfg.Runner.Workers = 1
	}
	if cfg.Forecast.Steps == 0 {
		cfg.Forecast.Steps = 30
	}
	if cfg.Forecast.MinObservations == 0 {
		cfg.Forecast.MinObservations = 20
	}
	if cfg.Forecast.Order == (Order{}) {
		cfg.Forecast.Order = Order{P: 1, D: 1, Q: 1}
	}
	if cfg.Forecast.Confidence == 0 {
		cfg.Forecast.Confidence = 0.95
	}
	if cfg.Collector.Days == 0 {
		cfg.Collector.Days = 365
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 0 6 * * *"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.Raw == "" || c.Paths.Processed == "" || c.Paths.Forecast == "" {
		return fmt.Errorf("paths.raw, paths.processed and paths.forecast are required")
	}
	if c.Runner.Workers < 1 {
		return fmt.Errorf("runner.workers must be at least 1")
	}
	if c.Forecast.Steps <= 0 {
		return fmt.Errorf("forecast.steps must be positive")
	}
	if c.Forecast.MinObservations < 3 {
		return fmt.Errorf("forecast.min_observations must be at least 3")
	}
	if o := c.Forecast.Order; o != (Order{P: 1, D: 1, Q: 1}) {
		return fmt.Errorf("forecast.order: only ARIMA(1,1,1) is supported, got (%d,%d,%d)", o.P, o.D, o.Q)
	}
	if c.Forecast.Confidence <= 0 || c.Forecast.Confidence >= 1 {
		return fmt.Errorf("forecast.confidence must be in (0, 1)")
	}
	return nil
}
