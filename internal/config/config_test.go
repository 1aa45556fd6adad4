package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "ledger.db", cfg.SQLitePath)
	assert.Equal(t, 1500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 5*time.Second, cfg.RetryTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("LEDGER_POSTGRES_DSN", "postgres://localhost/ledger")
	t.Setenv("LEDGER_DEBOUNCE_MS", "250")
	t.Setenv("LEDGER_SYNC_MAX_RETRIES", "5")
	t.Setenv("LEDGER_OPERATOR_ID", "op-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://localhost/ledger", cfg.PostgresDSN)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "op-1", cfg.OperatorID)
}

func TestLoadRejectsIncompleteBackends(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "firestore")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("LEDGER_BACKEND", "postgres")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("LEDGER_BACKEND", "dynamo")
	t.Setenv("LEDGER_POSTGRES_DSN", "unused")
	_, err = Load()
	assert.Error(t, err)
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LEDGER_DEBOUNCE_MS", "not-a-number")
	t.Setenv("LEDGER_SYNC_MAX_RETRIES", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Debounce)
	assert.Equal(t, -3, cfg.MaxRetries, "retrier itself clamps to a single attempt")
}
