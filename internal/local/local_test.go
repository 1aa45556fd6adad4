package local

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visao360/ledger/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadStateMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LoadState("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	state := model.DefaultState()
	state.Transactions = []model.Transaction{{ID: "t1", Value: 12.5, Date: "2026-08-15"}}
	state.LastUpdated = 999

	require.NoError(t, s.SaveState("u1", state))

	got, ok, err := s.LoadState("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, state.Transactions, got.Transactions)
	assert.Equal(t, int64(999), got.LastUpdated)
}

func TestSaveStateReplacesPrevious(t *testing.T) {
	s := openTestStore(t)

	first := model.DefaultState()
	first.LastUpdated = 1
	second := model.DefaultState()
	second.LastUpdated = 2

	require.NoError(t, s.SaveState("u1", first))
	require.NoError(t, s.SaveState("u1", second))

	got, ok, err := s.LoadState("u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.LastUpdated)
}

func TestSnapshotsArePerPrincipal(t *testing.T) {
	s := openTestStore(t)

	a := model.DefaultState()
	a.LastUpdated = 10
	b := model.DefaultState()
	b.LastUpdated = 20

	require.NoError(t, s.SaveState("alice", a))
	require.NoError(t, s.SaveState("bob", b))

	got, ok, err := s.LoadState("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(10), got.LastUpdated)
}

func TestCorruptSnapshotCountsAsAbsent(t *testing.T) {
	s := openTestStore(t)

	_, err := s.db.Exec(
		`INSERT INTO snapshots (principal_id, content, saved_at) VALUES (?, ?, ?)`,
		"u1", []byte("{not json"), 0)
	require.NoError(t, err)

	_, ok, err := s.LoadState("u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestImpersonationFlagsRoundTrip(t *testing.T) {
	s := openTestStore(t)

	active, target, err := s.Impersonation()
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, target)

	require.NoError(t, s.SetImpersonation(true, "victim"))
	active, target, err = s.Impersonation()
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, "victim", target)

	require.NoError(t, s.SetImpersonation(false, ""))
	active, target, err = s.Impersonation()
	require.NoError(t, err)
	assert.False(t, active)
	assert.Empty(t, target)
}

func TestOpenIsIdempotentOnPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.SaveState("u1", model.DefaultState()))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	_, ok, err := s2.LoadState("u1")
	require.NoError(t, err)
	assert.True(t, ok, "snapshots survive reopen")
}
