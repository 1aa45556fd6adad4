// Package local is the durable key-value cache holding the last known
// GlobalState per principal and the impersonation session flags. It makes
// activation instant: the cached snapshot renders immediately while the
// remote fetch runs in the background.
package local

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/visao360/ledger/internal/model"
)

//go:embed schema.sql
var schemaSQL string

const (
	sessionImpersonationActive = "impersonation_active"
	sessionImpersonationTarget = "impersonation_target"
)

// Store is a SQLite-backed local cache. A single writer connection avoids
// SQLITE_BUSY under concurrent saves.
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at path, applying pragmas and the
// schema. Safe to call repeatedly on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect local cache: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply local cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveState persists the principal's snapshot, replacing any previous one.
func (s *Store) SaveState(principalID string, state model.GlobalState) error {
	data, err := model.EncodeState(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshots (principal_id, content, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT (principal_id) DO UPDATE
		SET content = excluded.content, saved_at = excluded.saved_at`,
		principalID, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", principalID, err)
	}
	return nil
}

// LoadState returns the principal's cached snapshot; ok is false when no
// snapshot was ever saved. A corrupt blob counts as absent rather than
// failing activation.
func (s *Store) LoadState(principalID string) (model.GlobalState, bool, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT content FROM snapshots WHERE principal_id = ?`, principalID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return model.GlobalState{}, false, nil
	}
	if err != nil {
		return model.GlobalState{}, false, fmt.Errorf("load snapshot %s: %w", principalID, err)
	}
	state, err := model.DecodeState(data)
	if err != nil {
		return model.GlobalState{}, false, nil
	}
	return state, true, nil
}

// SetImpersonation persists the impersonation session flags.
func (s *Store) SetImpersonation(active bool, targetID string) error {
	activeVal := "0"
	if active {
		activeVal = "1"
	}
	for key, value := range map[string]string{
		sessionImpersonationActive: activeVal,
		sessionImpersonationTarget: targetID,
	} {
		_, err := s.db.Exec(`
			INSERT INTO session (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key, value)
		if err != nil {
			return fmt.Errorf("save session flag %s: %w", key, err)
		}
	}
	return nil
}

// Impersonation reads the persisted session flags; a missing flag means no
// impersonation in progress.
func (s *Store) Impersonation() (active bool, targetID string, err error) {
	get := func(key string) (string, error) {
		var value string
		err := s.db.QueryRow(`SELECT value FROM session WHERE key = ?`, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return value, err
	}
	activeVal, err := get(sessionImpersonationActive)
	if err != nil {
		return false, "", fmt.Errorf("load session flags: %w", err)
	}
	target, err := get(sessionImpersonationTarget)
	if err != nil {
		return false, "", fmt.Errorf("load session flags: %w", err)
	}
	return activeVal == "1", target, nil
}
