package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Directories
	TemplatesDir string
	GeneratedDir string
	CatalogFile  string

	// Engine
	TokenSyntax     string
	MergePolicy     string
	NormalizeValues bool

	// Request limits
	MaxRequestBytes int64

	// Record state
	RecordTTL time.Duration

	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCFILL_API_KEY"),

		TemplatesDir: envOr("TEMPLATES_DIR", "Templates"),
		GeneratedDir: envOr("GENERATED_DIR", "Generated"),
		CatalogFile:  os.Getenv("CATALOG_FILE"),

		TokenSyntax:     strings.ToLower(envOr("TOKEN_SYNTAX", "single")),
		MergePolicy:     strings.ToLower(envOr("MERGE_POLICY", "signature")),
		NormalizeValues: envBool("NORMALIZE_VALUES", true),

		MaxRequestBytes: envInt64("MAX_REQUEST_BYTES", 1<<20), // 1MB

		RecordTTL: envDuration("RECORD_TTL", 1*time.Hour),

		LogLevel: strings.ToLower(envOr("LOG_LEVEL", "info")),
	}

	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = 1 << 20
	}
	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = 1 * time.Hour
	}

	return cfg
}

// Validate checks the settings every binary needs.
func (c Config) Validate() error {
	switch c.TokenSyntax {
	case "single", "double":
	default:
		return fmt.Errorf("TOKEN_SYNTAX must be single or double, got %q", c.TokenSyntax)
	}
	switch c.MergePolicy {
	case "signature", "strict":
	default:
		return fmt.Errorf("MERGE_POLICY must be signature or strict, got %q", c.MergePolicy)
	}
	if c.TemplatesDir == "" || c.GeneratedDir == "" {
		return fmt.Errorf("TEMPLATES_DIR and GENERATED_DIR must not be empty")
	}
	return nil
}

// ValidateServer additionally requires what the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("DOCFILL_API_KEY is required")
	}
	return nil
}

// Level maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
