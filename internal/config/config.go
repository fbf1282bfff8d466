package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 50 * 1024 * 1024
	DefaultHistoryLimit     = 100
	DefaultLogMaxSizeMB     = 10
)

// Config holds runtime settings for the CLI
type Config struct {
	// Directory for the SQLite database and log file
	DataDir string

	// Transport limits
	Timeout          time.Duration
	MaxResponseBytes int64

	HistoryLimit int

	// Logging
	LogLevel     string
	LogFile      string
	LogMaxSizeMB int
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	dataDir := os.Getenv("REQKIT_DATA_DIR")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(homeDir, ".reqkit")
	}

	cfg := &Config{
		DataDir:          dataDir,
		Timeout:          getEnvDurationOrDefault("REQKIT_TIMEOUT", DefaultTimeout),
		MaxResponseBytes: int64(getEnvIntOrDefault("REQKIT_MAX_RESPONSE_BYTES", DefaultMaxResponseBytes)),
		HistoryLimit:     getEnvIntOrDefault("REQKIT_HISTORY_LIMIT", DefaultHistoryLimit),
		LogLevel:         strings.ToLower(getEnvOrDefault("REQKIT_LOG_LEVEL", "warn")),
		LogFile:          getEnvOrDefault("REQKIT_LOG_FILE", filepath.Join(dataDir, "reqkit.log")),
		LogMaxSizeMB:     getEnvIntOrDefault("REQKIT_LOG_MAX_SIZE_MB", DefaultLogMaxSizeMB),
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil && i > 0 {
			return i
		}
		slog.Warn("ignoring invalid integer setting", "key", key, "value", val)
	}
	return defaultVal
}

func getEnvDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
		slog.Warn("ignoring invalid duration setting", "key", key, "value", val)
	}
	return defaultVal
}
