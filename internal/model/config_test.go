package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000", cfg.Server.BaseURL)
	assert.Equal(t, "session", cfg.Server.SessionCookie)
	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.Equal(t, 3, cfg.Server.MaxRetries)
	assert.Equal(t, 120, cfg.Display.PollIntervalSec)
	assert.Equal(t, "sunday", cfg.Display.WeekStart)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "mailcal.db", filepath.Base(cfg.Store.Path))
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("MAILCAL_SERVER_BASE_URL", "https://mail.example.com/")
	t.Setenv("MAILCAL_DISPLAY_POLL_INTERVAL_SEC", "30")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://mail.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 30, cfg.Display.PollIntervalSec)
}

func TestLoadConfigFixesInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server:\n  timeout_sec: 0\n  max_retries: -2\ndisplay:\n  poll_interval_sec: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Server.TimeoutSec)
	assert.Equal(t, 0, cfg.Server.MaxRetries)
	assert.Equal(t, 120, cfg.Display.PollIntervalSec)
}

func TestLoadConfigRejectsMondayWeekStart(t *testing.T) {
	t.Setenv("MAILCAL_DISPLAY_WEEK_START", "monday")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "week_start")
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Server.BaseURL = "https://backend.test"
	cfg.Server.MaxRetries = 1
	cfg.Log.Level = "debug"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://backend.test", loaded.Server.BaseURL)
	assert.Equal(t, 1, loaded.Server.MaxRetries)
	assert.Equal(t, "debug", loaded.Log.Level)
}
