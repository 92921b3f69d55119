// Package config loads application configuration from the environment.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/apadua/MeTransfer/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	DataDir        string `env:"DATA_DIR" env-default:"/data"`
	Port           string `env:"PORT" env-default:"8080"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" env-default:"52428800"`

	// Bcrypt hash of the single shared admin secret. Generate one with
	// cmd/hashpw. When empty, every admin endpoint returns 503.
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH" env-default:""`

	ThumbnailWidth  int  `env:"THUMBNAIL_WIDTH" env-default:"400"`
	BackgroundWidth int  `env:"BACKGROUND_MAX_WIDTH" env-default:"1920"`
	MetricsEnabled  bool `env:"METRICS_ENABLED" env-default:"true"`
	LogStaticFiles  bool `env:"LOG_STATIC_FILES" env-default:"false"`
}

// Load reads configuration from environment variables and logs the
// effective settings.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ThumbnailWidth <= 0 || cfg.BackgroundWidth <= 0 {
		return nil, fmt.Errorf("thumbnail and background widths must be positive")
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  DATA_DIR:             %s", cfg.DataDir)
	logging.Info("  PORT:                 %s", cfg.Port)
	logging.Info("  MAX_UPLOAD_BYTES:     %d", cfg.MaxUploadBytes)
	logging.Info("  THUMBNAIL_WIDTH:      %d", cfg.ThumbnailWidth)
	logging.Info("  BACKGROUND_MAX_WIDTH: %d", cfg.BackgroundWidth)
	logging.Info("  METRICS_ENABLED:      %v", cfg.MetricsEnabled)
	logging.Info("  LOG_STATIC_FILES:     %v", cfg.LogStaticFiles)
	logging.Info("  ADMIN_PASSWORD_HASH:  %s", redacted(cfg.AdminPasswordHash))
	logging.Info("  LOG_LEVEL:            %s", logging.GetLevel())

	return &cfg, nil
}

func redacted(s string) string {
	if s == "" {
		return "(unset)"
	}
	return "(set)"
}
