// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	WebhookSecret    string
	DatabasePath     string
	DefaultTimezone  string
	HTTPTimeout      time.Duration
	ListenAddr       string
	LogLevel         string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/bot.db"
	}

	tz := os.Getenv("DEFAULT_TZ")
	if tz == "" {
		tz = "Europe/Helsinki"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TZ %q: %w", tz, err)
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("HTTP_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		TelegramBotToken: token,
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		DatabasePath:     dbPath,
		DefaultTimezone:  tz,
		HTTPTimeout:      timeout,
		ListenAddr:       addr,
		LogLevel:         logLevel,
	}, nil
}

// DefaultLocation resolves the configured fallback timezone.
// Load already validated the zone name.
func (c *Config) DefaultLocation() *time.Location {
	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
