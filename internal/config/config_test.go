package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "TELEGRAM_TOKEN", "HTTP_ADDR", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_TOPIC_PREFIX",
		"MIGRATIONS_PATH", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLING_RATIO",
		"ALERT_REFRESH_INTERVAL", "ALERT_WINDOW_DAYS", "POLICY_DEFAULTS_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/test")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, 24*time.Hour, cfg.AlertRefreshInterval)
	assert.Equal(t, 180, cfg.AlertWindowDays)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, 1.0, cfg.OTelSampleRatio)
	assert.Equal(t, policy.BuiltinDefaults(), cfg.PolicyDefaults)
}

func TestFromEnvRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")

	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/test")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ALERT_REFRESH_INTERVAL", "1h")
	t.Setenv("ALERT_WINDOW_DAYS", "90")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, time.Hour, cfg.AlertRefreshInterval)
	assert.Equal(t, 90, cfg.AlertWindowDays)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, 0.25, cfg.OTelSampleRatio)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	for key, value := range map[string]string{
		"ALERT_REFRESH_INTERVAL": "soon",
		"ALERT_WINDOW_DAYS":      "-3",
		"OTEL_SAMPLING_RATIO":    "2",
		"OTEL_ENABLED":           "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DB_DSN", "postgres://localhost/test")
			t.Setenv(key, value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadPolicyDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"minimum_notice_hours: 12\nlate_cancellation_penalty_kind: charge\n",
	), 0o600))

	defaults, err := LoadPolicyDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, 12.0, defaults.MinimumNoticeHours)
	assert.Equal(t, model.PenaltyCharge, defaults.LatePenaltyKind)
	assert.Equal(t, policy.DefaultAlertThreshold, defaults.AlertThreshold, "missing keys keep built-in values")
}

func TestLoadPolicyDefaultsValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(path, []byte("alert_threshold: 0\n"), 0o600))

	_, err := LoadPolicyDefaults(path)
	assert.Error(t, err)
}
