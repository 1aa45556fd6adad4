package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visao360/ledger/internal/audit"
	"github.com/visao360/ledger/internal/ledger"
	"github.com/visao360/ledger/internal/model"
	"github.com/visao360/ledger/internal/remote"
	"github.com/visao360/ledger/internal/retry"
)

// memCache is an in-memory Cache so engine tests need no sqlite file.
type memCache struct {
	mu        stdsync.Mutex
	snapshots map[string]model.GlobalState
	active    bool
	target    string
}

func newMemCache() *memCache {
	return &memCache{snapshots: map[string]model.GlobalState{}}
}

func (c *memCache) SaveState(principalID string, state model.GlobalState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots[principalID] = state.Clone()
	return nil
}

func (c *memCache) LoadState(principalID string) (model.GlobalState, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.snapshots[principalID]
	if !ok {
		return model.GlobalState{}, false, nil
	}
	return state.Clone(), true, nil
}

func (c *memCache) SetImpersonation(active bool, targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	c.target = targetID
	return nil
}

func (c *memCache) Impersonation() (bool, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active, c.target, nil
}

// countingStore counts upserts so debounce coalescing is observable.
type countingStore struct {
	remote.Store
	mu      stdsync.Mutex
	upserts int
}

func (s *countingStore) Upsert(ctx context.Context, principalID string, state model.GlobalState) error {
	s.mu.Lock()
	s.upserts++
	s.mu.Unlock()
	return s.Store.Upsert(ctx, principalID, state)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

// gatedStore blocks Fetch until released, to hold the engine in LOADING.
type gatedStore struct {
	remote.Store
	release chan struct{}
}

func (s *gatedStore) Fetch(ctx context.Context, principalID string) (model.GlobalState, error) {
	select {
	case <-s.release:
		return s.Store.Fetch(ctx, principalID)
	case <-ctx.Done():
		return model.GlobalState{}, ctx.Err()
	}
}

// failingStore rejects selected operations.
type failingStore struct {
	remote.Store
	fetchErr  error
	upsertErr error
}

func (s *failingStore) Fetch(ctx context.Context, principalID string) (model.GlobalState, error) {
	if s.fetchErr != nil {
		return model.GlobalState{}, s.fetchErr
	}
	return s.Store.Fetch(ctx, principalID)
}

func (s *failingStore) Upsert(ctx context.Context, principalID string, state model.GlobalState) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.Store.Upsert(ctx, principalID, state)
}

func fastRetry() retry.Config {
	return retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, Timeout: time.Second, OperationName: "remote"}
}

func newTestEngine(t *testing.T, rem remote.Store, cache Cache) (*Engine, *ledger.Store, *audit.MemoryRecorder) {
	t.Helper()
	led := ledger.New(ledger.WithClock(ledger.FixedClock{T: time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)}))
	rec := audit.NewMemoryRecorder()
	e := New(led, rem, cache, rec,
		WithDebounce(20*time.Millisecond),
		WithRetryConfig(fastRetry()),
	)
	t.Cleanup(e.Close)
	return e, led, rec
}

func waitLoaded(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool { return e.State() == StateLoaded },
		2*time.Second, 5*time.Millisecond)
}

func remoteWith(t *testing.T, principalID string, watermark int64) *remote.MemoryStore {
	t.Helper()
	rem := remote.NewMemoryStore()
	state := model.DefaultState()
	state.Transactions = []model.Transaction{{ID: "remote-tx", Value: 7}}
	state.LastUpdated = watermark
	require.NoError(t, rem.Upsert(context.Background(), principalID, state))
	return rem
}

func TestActivateAppliesRemoteHistory(t *testing.T) {
	rem := remoteWith(t, "u1", 5000)
	e, led, _ := newTestEngine(t, rem, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	require.Eventually(t, func() bool {
		snap := led.Snapshot()
		return len(snap.Transactions) == 1 && snap.Transactions[0].ID == "remote-tx"
	}, 2*time.Second, 5*time.Millisecond, "remote history replaces never-synced seed state")
	assert.True(t, led.Accepting())
	assert.Equal(t, "u1", e.EffectivePrincipal())
}

func TestActivateWithoutRemoteRecordKeepsDefaults(t *testing.T) {
	e, led, _ := newTestEngine(t, remote.NewMemoryStore(), newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "fresh"))
	waitLoaded(t, e)

	assert.NotEmpty(t, led.ActiveAccounts(), "seed accounts stay until the first remote write")
	status, err := e.Status()
	assert.Equal(t, StatusIdle, status)
	assert.NoError(t, err)
}

func TestMutationsDroppedWhileLoading(t *testing.T) {
	gate := &gatedStore{Store: remote.NewMemoryStore(), release: make(chan struct{})}
	e, led, _ := newTestEngine(t, gate, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	require.Equal(t, StateLoading, e.State())

	led.AddAccount(model.Account{Name: "too early"})

	close(gate.release)
	waitLoaded(t, e)

	for _, acc := range led.ActiveAccounts() {
		assert.NotEqual(t, "too early", acc.Name, "writes during LOADING must be dropped")
	}

	led.AddAccount(model.Account{Name: "after load"})
	found := false
	for _, acc := range led.ActiveAccounts() {
		found = found || acc.Name == "after load"
	}
	assert.True(t, found)
}

func TestDebounceCoalescesBurstIntoOneUpsert(t *testing.T) {
	counting := &countingStore{Store: remote.NewMemoryStore()}
	e, led, _ := newTestEngine(t, counting, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "a"})
	led.AddAccount(model.Account{Name: "b"})
	led.AddAccount(model.Account{Name: "c"})

	require.Eventually(t, func() bool { return counting.count() == 1 },
		2*time.Second, 5*time.Millisecond)

	// The single write carries the final accumulated state.
	row, err := counting.Fetch(context.Background(), "u1")
	require.NoError(t, err)
	names := map[string]bool{}
	for _, acc := range row.Accounts {
		names[acc.Name] = true
	}
	assert.True(t, names["a"] && names["b"] && names["c"])

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, counting.count(), "no second flush without a new mutation")
}

func TestLocalWriteThroughIsSynchronous(t *testing.T) {
	cache := newMemCache()
	e, led, _ := newTestEngine(t, remote.NewMemoryStore(), cache)

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "persisted"})

	got, ok, err := cache.LoadState("u1")
	require.NoError(t, err)
	require.True(t, ok, "the snapshot lands in the local cache before the debounce fires")
	found := false
	for _, acc := range got.Accounts {
		found = found || acc.Name == "persisted"
	}
	assert.True(t, found)
}

func TestRealtimePushApplied(t *testing.T) {
	rem := remote.NewMemoryStore()
	e, led, _ := newTestEngine(t, rem, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	pushed := model.DefaultState()
	pushed.Transactions = []model.Transaction{{ID: "from-other-device"}}
	pushed.LastUpdated = time.Now().UnixMilli() + 60_000
	require.NoError(t, rem.Upsert(context.Background(), "u1", pushed))

	require.Eventually(t, func() bool {
		snap := led.Snapshot()
		return len(snap.Transactions) == 1 && snap.Transactions[0].ID == "from-other-device"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStaleRealtimePushIgnored(t *testing.T) {
	rem := remote.NewMemoryStore()
	e, led, _ := newTestEngine(t, rem, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "latest"})
	local := led.LastUpdated()

	stale := model.DefaultState()
	stale.LastUpdated = local - 10
	require.NoError(t, rem.Upsert(context.Background(), "u1", stale))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, local, led.LastUpdated(), "an older push must not regress the ledger")
}

func TestPrincipalSwitchCancelsPendingFlush(t *testing.T) {
	counting := &countingStore{Store: remote.NewMemoryStore()}
	cache := newMemCache()
	led := ledger.New()
	e := New(led, counting, cache, audit.NewMemoryRecorder(),
		WithDebounce(150*time.Millisecond),
		WithRetryConfig(fastRetry()),
	)
	t.Cleanup(e.Close)

	require.NoError(t, e.SetOperator(context.Background(), "op"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "never synced"})
	require.NoError(t, e.Impersonate(context.Background(), "target"))
	waitLoaded(t, e)

	time.Sleep(400 * time.Millisecond)
	_, err := counting.Fetch(context.Background(), "op")
	assert.ErrorIs(t, err, remote.ErrNotFound, "the operator's pending debounced write dies with the switch")
}

func TestStatusReflectsFlushOutcome(t *testing.T) {
	e, led, _ := newTestEngine(t, remote.NewMemoryStore(), newMemCache())

	var mu stdsync.Mutex
	var seen []Status
	unsub := e.OnStatusChange(func(s Status, err error) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})
	defer unsub()

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "a"})

	require.Eventually(t, func() bool {
		status, _ := e.Status()
		return status == StatusSynced
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusSyncing, StatusSynced}, seen)
}

func TestFailedFlushSurfacesErrorAndKeepsLocalState(t *testing.T) {
	boom := errors.New("backend down")
	failing := &failingStore{Store: remote.NewMemoryStore(), upsertErr: boom}
	e, led, _ := newTestEngine(t, failing, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "kept"})

	require.Eventually(t, func() bool {
		status, _ := e.Status()
		return status == StatusFailed
	}, 2*time.Second, 5*time.Millisecond)

	_, err := e.Status()
	assert.ErrorIs(t, err, boom)
	assert.True(t, led.Accepting(), "a failed sync never blocks further local work")

	found := false
	for _, acc := range led.ActiveAccounts() {
		found = found || acc.Name == "kept"
	}
	assert.True(t, found)
}

func TestInitialFetchFailureStillLoads(t *testing.T) {
	failing := &failingStore{Store: remote.NewMemoryStore(), fetchErr: errors.New("backend down")}
	e, led, _ := newTestEngine(t, failing, newMemCache())

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	assert.True(t, led.Accepting(), "the operator keeps working on local state")
	status, err := e.Status()
	assert.Equal(t, StatusFailed, status)
	assert.Error(t, err)
}

func TestFlushForcesPendingWrite(t *testing.T) {
	counting := &countingStore{Store: remote.NewMemoryStore()}
	led := ledger.New()
	e := New(led, counting, newMemCache(), audit.NewMemoryRecorder(),
		WithDebounce(10*time.Second),
		WithRetryConfig(fastRetry()),
	)
	t.Cleanup(e.Close)

	require.NoError(t, e.SetOperator(context.Background(), "u1"))
	waitLoaded(t, e)

	led.AddAccount(model.Account{Name: "a"})
	require.Zero(t, counting.count())

	e.Flush()
	assert.Equal(t, 1, counting.count())
}
