package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REQKIT_DATA_DIR", dir)
	t.Setenv("REQKIT_TIMEOUT", "")
	t.Setenv("REQKIT_MAX_RESPONSE_BYTES", "")
	t.Setenv("REQKIT_HISTORY_LIMIT", "")
	t.Setenv("REQKIT_LOG_LEVEL", "")
	t.Setenv("REQKIT_LOG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, int64(DefaultMaxResponseBytes), cfg.MaxResponseBytes)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "reqkit.log"), cfg.LogFile)
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REQKIT_DATA_DIR", dir)
	t.Setenv("REQKIT_TIMEOUT", "5s")
	t.Setenv("REQKIT_MAX_RESPONSE_BYTES", "1024")
	t.Setenv("REQKIT_HISTORY_LIMIT", "7")
	t.Setenv("REQKIT_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, int64(1024), cfg.MaxResponseBytes)
	assert.Equal(t, 7, cfg.HistoryLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REQKIT_DATA_DIR", dir)
	t.Setenv("REQKIT_TIMEOUT", "soon")
	t.Setenv("REQKIT_HISTORY_LIMIT", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetupLogger(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{LogFile: filepath.Join(dir, "logs", "reqkit.log"), LogLevel: "error", LogMaxSizeMB: 1}

	closer, err := SetupLogger(cfg)
	require.NoError(t, err)
	defer slog.SetDefault(slog.New(slog.NewTextHandler(nopWriter{}, nil)))

	slog.Error("written")
	require.NoError(t, closer.Close())
	assert.FileExists(t, cfg.LogFile)
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
