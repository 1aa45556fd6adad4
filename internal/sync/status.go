package sync

import stdsync "sync"

// Status reflects the most recent write-behind outcome. It is advisory: the
// ledger store stays writable regardless, even while StatusFailed.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// StatusListener observes sync status transitions. err is non-nil only for
// StatusFailed.
type StatusListener func(s Status, err error)

type statusTracker struct {
	mu      stdsync.Mutex
	current Status
	lastErr error
	subs    map[int]StatusListener
	nextSub int
}

func (t *statusTracker) set(s Status, err error, notify func([]StatusListener, Status, error)) {
	t.mu.Lock()
	t.current = s
	t.lastErr = err
	listeners := make([]StatusListener, 0, len(t.subs))
	for _, fn := range t.subs {
		listeners = append(listeners, fn)
	}
	t.mu.Unlock()
	notify(listeners, s, err)
}

func (t *statusTracker) get() (Status, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == "" {
		return StatusIdle, nil
	}
	return t.current, t.lastErr
}

func (t *statusTracker) subscribe(fn StatusListener) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subs == nil {
		t.subs = map[int]StatusListener{}
	}
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// Status returns the latest write-behind outcome and, when failed, the
// error that caused it.
func (e *Engine) Status() (Status, error) {
	return e.status.get()
}

// OnStatusChange registers a listener for status transitions and returns an
// unsubscribe func. Listeners run synchronously on the transition.
func (e *Engine) OnStatusChange(fn StatusListener) func() {
	return e.status.subscribe(fn)
}

func (e *Engine) notifyStatus(listeners []StatusListener, s Status, err error) {
	for _, fn := range listeners {
		fn(s, err)
	}
}
