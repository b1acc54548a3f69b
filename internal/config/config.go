// Package config resolves Coursiz settings from COURSIZ_* environment
// variables. Command-line flags override individual fields after FromEnv.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GuestProgressFile is the fixed key under which a terminal guest's progress
// is persisted inside the data directory.
const GuestProgressFile = "guest-progress.json"

// Config holds all runtime configuration.
type Config struct {
	DataDir string

	DBDriver string // sqlite|postgres
	DBDSN    string

	CatalogPath string
	GuestQuota  int

	HTTPAddr    string
	JWTSecret   string
	RedisURL    string
	CORSOrigins []string

	QuizAdvanceDelay time.Duration
	FeedbackDelay    time.Duration

	LogMode  string
	LogDebug bool
}

// DevJWTSecret signs member tokens when COURSIZ_JWT_SECRET is unset. Tokens
// signed with it can be forged by anyone who has read this source.
const DevJWTSecret = "coursiz-dev-secret"

// UsesDevSecret reports whether member tokens are signed with DevJWTSecret.
func (c Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// FromEnv reads the environment, falling back to defaults.
func FromEnv() (Config, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return Config{}, err
	}

	quota, err := envInt("COURSIZ_GUEST_QUOTA", 3)
	if err != nil {
		return Config{}, err
	}
	advance, err := envDuration("COURSIZ_QUIZ_ADVANCE_DELAY", 800*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	feedback, err := envDuration("COURSIZ_FEEDBACK_DELAY", 1500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DataDir:          dataDir,
		DBDriver:         envOr("COURSIZ_DB_DRIVER", "sqlite"),
		DBDSN:            os.Getenv("COURSIZ_DB"),
		CatalogPath:      os.Getenv("COURSIZ_CATALOG"),
		GuestQuota:       quota,
		HTTPAddr:         envOr("COURSIZ_HTTP_ADDR", ":8080"),
		JWTSecret:        envOr("COURSIZ_JWT_SECRET", DevJWTSecret),
		RedisURL:         os.Getenv("COURSIZ_REDIS_URL"),
		CORSOrigins:      csvOr("COURSIZ_CORS_ORIGINS", "http://localhost:3000"),
		QuizAdvanceDelay: advance,
		FeedbackDelay:    feedback,
		LogMode:          envOr("COURSIZ_LOG_MODE", "dev"),
		LogDebug:         envBool("COURSIZ_LOG_DEBUG", false),
	}
	if cfg.DBDriver == "sqlite" && cfg.DBDSN == "" {
		cfg.DBDSN = filepath.Join(dataDir, "coursiz.db")
	}
	return cfg, nil
}

// GuestProgressPath returns the file used for terminal guest progress.
func (c Config) GuestProgressPath() string {
	return filepath.Join(c.DataDir, GuestProgressFile)
}

// LogPath returns the log file used by the terminal player.
func (c Config) LogPath() string {
	return filepath.Join(c.DataDir, "coursiz.log")
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported COURSIZ_DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("COURSIZ_DB is required for the %s driver", c.DBDriver)
	}
	if c.GuestQuota < 0 {
		return fmt.Errorf("COURSIZ_GUEST_QUOTA must be >= 0, got %d", c.GuestQuota)
	}
	return nil
}

// resolveDataDir resolves the data directory in priority order:
// 1. COURSIZ_DATA_DIR
// 2. $XDG_DATA_HOME/coursiz
// 3. ~/.local/share/coursiz
func resolveDataDir() (string, error) {
	if p := os.Getenv("COURSIZ_DATA_DIR"); p != "" {
		return p, os.MkdirAll(p, 0o755)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	dir := filepath.Join(dataHome, "coursiz")
	return dir, os.MkdirAll(dir, 0o755)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}

func csvOr(k, def string) []string {
	parts := strings.Split(envOr(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
