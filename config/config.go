// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For the Helix catalog credentials, use ValidateCatalogReady.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Twitch GQL (comment feed and video metadata)
	GQLEndpoint          string
	GQLClientID          string
	GQLHashComments      string
	GQLHashVideoCore     string
	GQLHashVideoMetadata string
	GQLTimeout           time.Duration
	GQLRetryAttempts     int
	GQLRetryDelay        time.Duration
	// GQLRateLimit is requests per second; 0 disables pacing.
	GQLRateLimit float64

	// Scanning
	ScanConcurrency int
	MaxPages        int
	ExportDir       string

	// Twitch Helix (catalog)
	TwitchClientID     string
	TwitchClientSecret string

	// Export retention; both rules 0 disables cleanup.
	RetentionKeepDays  int
	RetentionKeepCount int
	RetentionDryRun    bool
	RetentionInterval  time.Duration

	// Database; empty disables Postgres.
	DBDsn string

	// HTTP API
	HTTPAddr string

	// Tracing; empty endpoint disables OTLP export.
	OTLPEndpoint    string
	OTLPSampleRatio float64
}

// Load reads environment variables and applies defaults. It doesn't fail if Helix creds are missing;
// use ValidateCatalogReady() when you require the catalog. Malformed numbers or durations are errors.
func Load() (*Config, error) {
	cfg := &Config{
		GQLEndpoint:          os.Getenv("TWITCH_GQL_ENDPOINT"),
		GQLClientID:          os.Getenv("TWITCH_GQL_CLIENT_ID"),
		GQLHashComments:      os.Getenv("TWITCH_GQL_HASH_COMMENTS"),
		GQLHashVideoCore:     os.Getenv("TWITCH_GQL_HASH_CHANNEL_VIDEO_CORE"),
		GQLHashVideoMetadata: os.Getenv("TWITCH_GQL_HASH_VIDEO_METADATA"),
		ExportDir:            os.Getenv("EXPORT_DIR"),
		TwitchClientID:       os.Getenv("TWITCH_CLIENT_ID"),
		TwitchClientSecret:   os.Getenv("TWITCH_CLIENT_SECRET"),
		DBDsn:                os.Getenv("DB_DSN"),
		HTTPAddr:             os.Getenv("HTTP_ADDR"),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RetentionDryRun:      os.Getenv("RETENTION_DRY_RUN") == "1",
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "."
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	var err error
	if cfg.GQLTimeout, err = durationEnv("GQL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.GQLRetryDelay, err = durationEnv("GQL_RETRY_DELAY", 0); err != nil {
		return nil, err
	}
	if cfg.GQLRetryAttempts, err = intEnv("GQL_RETRY_ATTEMPTS", 5, 1); err != nil {
		return nil, err
	}
	if cfg.ScanConcurrency, err = intEnv("SCAN_CONCURRENCY", 1, 1); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = intEnv("SCAN_MAX_PAGES", 0, 0); err != nil {
		return nil, err
	}
	if cfg.RetentionKeepDays, err = intEnv("RETENTION_KEEP_DAYS", 0, 0); err != nil {
		return nil, err
	}
	if cfg.RetentionKeepCount, err = intEnv("RETENTION_KEEP_COUNT", 0, 0); err != nil {
		return nil, err
	}
	if cfg.RetentionInterval, err = durationEnv("RETENTION_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.OTLPSampleRatio, err = floatEnv("OTEL_TRACES_SAMPLER_ARG", 1); err != nil {
		return nil, err
	}
	if cfg.GQLRateLimit, err = floatEnv("GQL_RATE_LIMIT", 0); err != nil {
		return nil, err
	}
	return cfg, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q: want a non-negative duration", key, v)
	}
	return d, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid %s %q: want a non-negative number", key, v)
	}
	return f, nil
}

func intEnv(key string, def, min int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min {
		return 0, fmt.Errorf("invalid %s %q: want an integer >= %d", key, v, min)
	}
	return n, nil
}

// ValidateCatalogReady checks the Helix app credentials needed to list channel videos.
func (c *Config) ValidateCatalogReady() error {
	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("missing twitch env: require TWITCH_CLIENT_ID, TWITCH_CLIENT_SECRET")
	}
	return nil
}
