package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, int64(10000), cfg.MaxConnections)
	assert.Equal(t, int64(65536), cfg.MaxMessageSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("IDLE_TIMEOUT", "2m")
	t.Setenv("MAX_CONNECTIONS", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, int64(42), cfg.MaxConnections)
}

func TestLoad_RejectsIdleTimeoutBelowSweepInterval(t *testing.T) {
	t.Setenv("IDLE_TIMEOUT", "10s")
	t.Setenv("SWEEP_INTERVAL", "30s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IDLE_TIMEOUT")
}

func TestLoad_RejectsNonPositiveDurations(t *testing.T) {
	t.Setenv("HEARTBEAT_INTERVAL", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEARTBEAT_INTERVAL")
}

func TestLoad_RejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("MAX_CONNECTIONS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONNECTIONS")
}
