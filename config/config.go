package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "3000"
	defaultStaticDir   = "public"
	defaultEventBuffer = 512
)

type Config struct {
	Port           string
	LogLevel       string
	StaticDir      string
	GinMode        string
	EventBuffer    int
	AllowedOrigins []string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment alone.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:        envOr("PORT", defaultPort),
		LogLevel:    strings.ToLower(os.Getenv("LOG_LEVEL")),
		StaticDir:   envOr("STATIC_DIR", defaultStaticDir),
		GinMode:     os.Getenv("GIN_MODE"),
		EventBuffer: defaultEventBuffer,
	}

	if raw := os.Getenv("EVENT_BUFFER"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("EVENT_BUFFER must be a positive integer, got %q", raw)
		}
		cfg.EventBuffer = n
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}

	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
