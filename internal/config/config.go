package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment       string
	HTTPPort          string
	DatabasePath      string
	JWTSecret         string
	ImageQuotaBytes   int64
	FillRunRetention  int // days of fill-run history to keep
	AllowRegistration bool
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:       getEnv("FP_ENV", "development"),
		HTTPPort:          getEnv("FP_HTTP_PORT", "8080"),
		DatabasePath:      getEnv("FP_DB_PATH", filepath.Join("data", "formpilot.db")),
		JWTSecret:         getEnv("FP_JWT_SECRET", "formpilot-dev-secret"),
		ImageQuotaBytes:   getEnvInt64("FP_IMAGE_QUOTA_BYTES", 25*1024*1024),
		FillRunRetention:  int(getEnvInt64("FP_FILL_RUN_RETENTION_DAYS", 30)),
		AllowRegistration: getEnv("FP_ALLOW_REGISTRATION", "true") == "true",
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			return n
		}
	}

	return fallback
}
