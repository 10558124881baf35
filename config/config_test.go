package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"TWITCH_GQL_ENDPOINT", "TWITCH_GQL_CLIENT_ID", "TWITCH_GQL_HASH_COMMENTS",
		"TWITCH_GQL_HASH_CHANNEL_VIDEO_CORE", "TWITCH_GQL_HASH_VIDEO_METADATA",
		"GQL_TIMEOUT", "GQL_RETRY_ATTEMPTS", "GQL_RETRY_DELAY", "GQL_RATE_LIMIT",
		"SCAN_CONCURRENCY", "SCAN_MAX_PAGES", "EXPORT_DIR", "DB_DSN", "HTTP_ADDR",
		"TWITCH_CLIENT_ID", "TWITCH_CLIENT_SECRET", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"RETENTION_KEEP_DAYS", "RETENTION_KEEP_COUNT", "RETENTION_DRY_RUN", "RETENTION_INTERVAL",
		"OTEL_TRACES_SAMPLER_ARG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.GQLTimeout)
	assert.Equal(t, 5, cfg.GQLRetryAttempts)
	assert.Zero(t, cfg.GQLRetryDelay)
	assert.Zero(t, cfg.GQLRateLimit)
	assert.Zero(t, cfg.MaxPages)
	assert.Equal(t, 1, cfg.ScanConcurrency)
	assert.Equal(t, ".", cfg.ExportDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DBDsn)
	assert.Equal(t, 1.0, cfg.OTLPSampleRatio)
	assert.Zero(t, cfg.RetentionKeepDays)
	assert.Zero(t, cfg.RetentionKeepCount)
	assert.False(t, cfg.RetentionDryRun)
	assert.Equal(t, 6*time.Hour, cfg.RetentionInterval)
}

func TestLoadRetention(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETENTION_KEEP_DAYS", "30")
	t.Setenv("RETENTION_KEEP_COUNT", "100")
	t.Setenv("RETENTION_DRY_RUN", "1")
	t.Setenv("RETENTION_INTERVAL", "1h")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.RetentionKeepDays)
	assert.Equal(t, 100, cfg.RetentionKeepCount)
	assert.True(t, cfg.RetentionDryRun)
	assert.Equal(t, time.Hour, cfg.RetentionInterval)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWITCH_GQL_HASH_COMMENTS", "abc")
	t.Setenv("GQL_TIMEOUT", "3s")
	t.Setenv("GQL_RETRY_ATTEMPTS", "2")
	t.Setenv("GQL_RETRY_DELAY", "250ms")
	t.Setenv("GQL_RATE_LIMIT", "2.5")
	t.Setenv("SCAN_CONCURRENCY", "4")
	t.Setenv("EXPORT_DIR", "/tmp/out")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.GQLHashComments)
	assert.Equal(t, 3*time.Second, cfg.GQLTimeout)
	assert.Equal(t, 2, cfg.GQLRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.GQLRetryDelay)
	assert.Equal(t, 2.5, cfg.GQLRateLimit)
	assert.Equal(t, 4, cfg.ScanConcurrency)
	assert.Equal(t, "/tmp/out", cfg.ExportDir)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct{ key, value string }{
		{"GQL_TIMEOUT", "soon"},
		{"GQL_TIMEOUT", "-1s"},
		{"GQL_RETRY_ATTEMPTS", "0"},
		{"GQL_RETRY_ATTEMPTS", "many"},
		{"RETENTION_KEEP_DAYS", "-1"},
		{"RETENTION_INTERVAL", "daily"},
		{"SCAN_CONCURRENCY", "0"},
		{"SCAN_MAX_PAGES", "-1"},
		{"GQL_RATE_LIMIT", "fast"},
		{"OTEL_TRACES_SAMPLER_ARG", "-0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateCatalogReady(t *testing.T) {
	clearEnv(t)
	t.Setenv("TWITCH_CLIENT_ID", "id")
	t.Setenv("TWITCH_CLIENT_SECRET", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateCatalogReady())

	t.Setenv("TWITCH_CLIENT_SECRET", "")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateCatalogReady(), "missing twitch envs")
}
