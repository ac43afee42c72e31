package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BACKEND_IPS", "10.0.0.1,10.0.0.2")
	t.Setenv("MAX_REQUESTS_PER_BACKEND", "5")
	t.Setenv("REDIS_URL", "rediss://:pw@localhost:6379")
}

func TestLoadConfig_BackendIPsRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BACKEND_IPS", "")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "BACKEND_IPS is required")
}

func TestLoadConfig_MaxRequestsPerBackendRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_REQUESTS_PER_BACKEND", "")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "MAX_REQUESTS_PER_BACKEND is required")
}

func TestLoadConfig_MaxRequestsPerBackendInvalid(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_REQUESTS_PER_BACKEND", "not-a-number")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "MAX_REQUESTS_PER_BACKEND")
}

func TestLoadConfig_RedisURLRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIS_URL", "")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "REDIS_URL is required")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.BackendIPs)
	assert.Equal(t, 5, cfg.MaxRequestsPerBackend)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.MappingTTL)
	assert.Equal(t, "*", cfg.AllowOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
}

func TestLoadConfig_CustomOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MAPPING_TTL_IN_S", "60")
	t.Setenv("ALLOW_ORIGIN", "https://ok.example,https://also.example")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("METRICS_PATH", "/internal/metrics")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, time.Minute, cfg.MappingTTL)
	assert.Equal(t, "https://ok.example,https://also.example", cfg.AllowOrigin)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/internal/metrics", cfg.MetricsPath)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-number")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "PORT")
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}
