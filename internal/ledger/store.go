// Package ledger holds the in-memory aggregate store and its mutation API.
// All mutations are synchronous copy-on-write transitions over the whole
// GlobalState; remote replication happens elsewhere, off this store's
// change notifications.
package ledger

import (
	"sync"

	"github.com/google/uuid"

	"github.com/visao360/ledger/internal/model"
)

// Origin says which side produced a state transition.
type Origin int

const (
	// OriginLocal is an accepted local mutation; it bumped LastUpdated and
	// must be replicated.
	OriginLocal Origin = iota
	// OriginRemote is a merged remote snapshot; it must not be re-uploaded.
	OriginRemote
	// OriginReset is a principal switch loading a cached or default state.
	OriginReset
)

// Change describes one state transition for subscribers.
type Change struct {
	Collections []string
	LastUpdated int64
	Origin      Origin
}

// Store owns one effective principal's GlobalState. Reads never block on
// network I/O; mutations are total over valid input and silently ignore
// missing target ids.
type Store struct {
	mu    sync.RWMutex
	state model.GlobalState
	clock Clock

	// accepting gates mutations. The sync engine clears it while a
	// principal's remote history is still being fetched so seed state can
	// never overwrite not-yet-loaded data.
	accepting bool

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects the eligibility clock.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a store seeded with the default state and accepting mutations.
func New(opts ...Option) *Store {
	s := &Store{
		state:     model.DefaultState(),
		clock:     SystemClock(),
		accepting: true,
		subs:      make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn for every state transition and returns an
// unsubscribe func. Callbacks run synchronously on the mutating goroutine,
// outside the state lock.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// SetAccepting opens or closes the mutation gate. While closed every
// mutation is a no-op.
func (s *Store) SetAccepting(accepting bool) {
	s.mu.Lock()
	s.accepting = accepting
	s.mu.Unlock()
}

// Accepting reports whether local mutations are currently applied.
func (s *Store) Accepting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accepting
}

// Snapshot returns a deep copy of the current aggregate.
func (s *Store) Snapshot() model.GlobalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// LastUpdated returns the current watermark.
func (s *Store) LastUpdated() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastUpdated
}

// Reset replaces the aggregate wholesale without bumping the watermark.
// Used on principal activation to load the cached snapshot (or defaults).
func (s *Store) Reset(state model.GlobalState) {
	state.Normalize()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.notify(Change{LastUpdated: state.LastUpdated, Origin: OriginReset})
}

// ApplyRemote merges an incoming remote snapshot under last-write-wins and
// reports whether it replaced local state. A stale or tying snapshot is a
// no-op, so out-of-order realtime deliveries cannot regress the ledger.
func (s *Store) ApplyRemote(remote model.GlobalState) bool {
	s.mu.Lock()
	merged, remoteWon := Merge(s.state, remote)
	if remoteWon {
		s.state = merged
	}
	s.mu.Unlock()
	if remoteWon {
		s.notify(Change{LastUpdated: merged.LastUpdated, Origin: OriginRemote})
	}
	return remoteWon
}

// mutate runs fn over a clone of the state. fn returns the touched
// collections; nil means no-op and nothing is committed or notified.
// Every committed transition bumps LastUpdated to the clock's now.
func (s *Store) mutate(fn func(st *model.GlobalState) []string) {
	s.mu.Lock()
	if !s.accepting {
		s.mu.Unlock()
		return
	}
	next := s.state.Clone()
	touched := fn(&next)
	if len(touched) == 0 {
		s.mu.Unlock()
		return
	}
	next.LastUpdated = s.clock.Now().UnixMilli()
	s.state = next
	watermark := next.LastUpdated
	s.mu.Unlock()
	s.notify(Change{Collections: touched, LastUpdated: watermark, Origin: OriginLocal})
}

func (s *Store) nowMillis() int64 {
	return s.clock.Now().UnixMilli()
}

func newID() string { return uuid.New().String() }

// findIndex locates id in items, tombstoned entries included.
func findIndex[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}
