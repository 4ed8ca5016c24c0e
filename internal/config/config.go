// Package config loads the dashboard server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ezoic/agrodash/pkg/log"
)

// Config holds all server settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `validate:"required"`
	LogLevel        string        `validate:"oneof=trace debug info warn warning error disabled off"`
	LogFormat       string        `validate:"oneof=json console"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	SessionTTL      time.Duration `validate:"gt=0"`

	// ReportReloadInterval re-reads the report files periodically; zero
	// disables reloading.
	ReportReloadInterval time.Duration `validate:"gte=0"`

	MobileBreakpoint int `validate:"gt=0"`
	DefaultYear      int `validate:"gte=1900,lte=2100"`
	DefaultMonth     int `validate:"gte=1,lte=12"`
	DataSeed         uint64

	// Optional trainer reports; the built-in reports are used when empty.
	CropReportPath    string `validate:"omitempty,file"`
	ThermalReportPath string `validate:"omitempty,file"`
}

var validate = validator.New()

// Load reads a .env file when present, then the environment, applying
// defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.GetLoggerWithName("config").Debug("No .env file loaded", "cause", err)
	}

	cfg := &Config{
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8050"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		CropReportPath:    os.Getenv("CROP_REPORT_PATH"),
		ThermalReportPath: os.Getenv("THERMAL_REPORT_PATH"),
	}

	var err error
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = parseDuration("SESSION_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.ReportReloadInterval, err = parseDuration("REPORT_RELOAD_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	if cfg.MobileBreakpoint, err = parseInt("MOBILE_BREAKPOINT", 768); err != nil {
		return nil, err
	}
	if cfg.DefaultYear, err = parseInt("DEFAULT_YEAR", 2023); err != nil {
		return nil, err
	}
	if cfg.DefaultMonth, err = parseInt("DEFAULT_MONTH", 1); err != nil {
		return nil, err
	}
	seed, err := parseInt("DATA_SEED", 42)
	if err != nil {
		return nil, err
	}
	if seed < 0 {
		return nil, fmt.Errorf("invalid DATA_SEED: must not be negative")
	}
	cfg.DataSeed = uint64(seed)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
