// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects the remote store implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendFirestore Backend = "firestore"
	BackendPostgres  Backend = "postgres"
)

// Config is everything the daemon needs to come up.
type Config struct {
	Backend          Backend
	FirestoreProject string
	PostgresDSN      string
	SQLitePath       string

	Debounce     time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
	RetryTimeout time.Duration

	OperatorID string
	LogLevel   string
}

// Load reads config from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Backend:          Backend(getenv("LEDGER_BACKEND", string(BackendMemory))),
		FirestoreProject: os.Getenv("LEDGER_FIRESTORE_PROJECT"),
		PostgresDSN:      os.Getenv("LEDGER_POSTGRES_DSN"),
		SQLitePath:       getenv("LEDGER_SQLITE_PATH", "ledger.db"),
		Debounce:         getduration("LEDGER_DEBOUNCE_MS", 1500*time.Millisecond),
		MaxRetries:       getint("LEDGER_SYNC_MAX_RETRIES", 3),
		RetryDelay:       getduration("LEDGER_SYNC_RETRY_DELAY_MS", time.Second),
		RetryTimeout:     getduration("LEDGER_SYNC_TIMEOUT_MS", 5*time.Second),
		OperatorID:       os.Getenv("LEDGER_OPERATOR_ID"),
		LogLevel:         getenv("LEDGER_LOG_LEVEL", "info"),
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendFirestore:
		if cfg.FirestoreProject == "" {
			return Config{}, fmt.Errorf("LEDGER_FIRESTORE_PROJECT is required for the %s backend", cfg.Backend)
		}
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return Config{}, fmt.Errorf("LEDGER_POSTGRES_DSN is required for the %s backend", cfg.Backend)
		}
	default:
		return Config{}, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// getduration reads a millisecond count.
func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
