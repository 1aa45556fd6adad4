package remote

import (
	"context"
	"sort"
	"sync"

	"github.com/visao360/ledger/internal/model"
)

// MemoryStore implements Store with in-memory rows. It backs local
// development and tests; Upsert fans out to subscribers the way a real
// backend pushes committed writes.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]byte // encoded GlobalState per principal

	subMu   sync.Mutex
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	principalID string
	ch          chan model.GlobalState
}

// NewMemoryStore creates an empty in-memory remote store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string][]byte),
		subs: make(map[int]*memorySub),
	}
}

func (m *MemoryStore) Upsert(ctx context.Context, principalID string, state model.GlobalState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := model.EncodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.rows[principalID] = data
	m.mu.Unlock()

	m.subMu.Lock()
	for _, sub := range m.subs {
		if sub.principalID != principalID {
			continue
		}
		// Non-blocking: a slow subscriber drops pushes rather than
		// wedging the writer, matching best-effort delivery.
		select {
		case sub.ch <- state.Clone():
		default:
		}
	}
	m.subMu.Unlock()
	return nil
}

func (m *MemoryStore) Fetch(ctx context.Context, principalID string) (model.GlobalState, error) {
	if err := ctx.Err(); err != nil {
		return model.GlobalState{}, err
	}
	m.mu.RLock()
	data, ok := m.rows[principalID]
	m.mu.RUnlock()
	if !ok {
		return model.GlobalState{}, ErrNotFound
	}
	return model.DecodeState(data)
}

func (m *MemoryStore) FetchAll(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	sort.Strings(ids)

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		state, err := m.Fetch(ctx, id)
		if err != nil {
			continue
		}
		rows = append(rows, Row{PrincipalID: id, State: state, LastUpdated: state.LastUpdated})
	}
	return rows, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, principalID string) (<-chan model.GlobalState, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	sub := &memorySub{principalID: principalID, ch: make(chan model.GlobalState, 8)}
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	m.subMu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
			close(sub.ch)
		})
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return sub.ch, stop, nil
}
