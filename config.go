package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	_ "github.com/joho/godotenv/autoload"
)

// Config holds every setting, read from the environment (and .env).
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	GinMode   string `env:"GIN_MODE" envDefault:"debug"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"portfolio.db"`
	ContentPath  string `env:"CONTENT_PATH"`
	WatchContent bool   `env:"WATCH_CONTENT" envDefault:"true"`

	// Contact form mail delivery
	SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	ToEmail  string `env:"TO_EMAIL"`

	AdminUsername     string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	RevealTick       time.Duration `env:"REVEAL_TICK" envDefault:"16ms"`
	RevealSessionTTL time.Duration `env:"REVEAL_SESSION_TTL" envDefault:"2m"`

	VisitorRetention time.Duration `env:"VISITOR_RETENTION" envDefault:"8760h"`
	CleanupInterval  time.Duration `env:"CLEANUP_INTERVAL" envDefault:"24h"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.RevealTick <= 0 {
		return nil, fmt.Errorf("REVEAL_TICK must be positive, got %s", cfg.RevealTick)
	}
	return cfg, nil
}

// IsDebug reports whether gin runs in debug mode.
func (c *Config) IsDebug() bool {
	return c.GinMode == "debug"
}

// initLogger installs the default slog logger.
func initLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
