package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by every front-end of the client core.
type Config struct {
	// Backend
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api/v1"`

	// Client behavior
	DefaultModel string `env:"DEFAULT_MODEL" envDefault:"gpt-4-turbo"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Local state for the terminal client
	StatePath string `env:"MINDCHAT_STATE_PATH"`
}

// BotConfig extends Config with the Telegram bridge settings.
type BotConfig struct {
	Config

	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Admin
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`

	// Rate limiting (messages per minute per chat)
	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"6"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func LoadBot() (*BotConfig, error) {
	cfg := &BotConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse bot config: %w", err)
	}
	return cfg, nil
}

func (c *BotConfig) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
