package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the serve-mode settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	StoreBackend    string
	DBPath          string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownStr := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	shutdown, err := time.ParseDuration(shutdownStr)
	if err != nil || shutdown <= 0 {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %q", shutdownStr)
	}

	backend := envOrDefault("STORE_BACKEND", "memory")
	switch backend {
	case "memory", "sqlite":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %q", backend)
	}

	return &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		StoreBackend:    backend,
		DBPath:          envOrDefault("DB_PATH", "rainscale.db"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		ShutdownTimeout: shutdown,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
