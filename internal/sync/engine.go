// Package sync orchestrates replication for one effective principal at a
// time: debounced write-behind to the remote store, pull on activation, and
// a realtime subscription, every remote hop going through the retrier.
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/visao360/ledger/internal/audit"
	"github.com/visao360/ledger/internal/ledger"
	"github.com/visao360/ledger/internal/logger"
	"github.com/visao360/ledger/internal/model"
	"github.com/visao360/ledger/internal/remote"
	"github.com/visao360/ledger/internal/retry"
)

// State is the per-principal load state. Mutations are dropped while
// LOADING so seed data can never overwrite not-yet-fetched remote history.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

// Cache is the durable local persistence the engine reads on activation and
// writes through on every accepted state.
type Cache interface {
	SaveState(principalID string, state model.GlobalState) error
	LoadState(principalID string) (model.GlobalState, bool, error)
	SetImpersonation(active bool, targetID string) error
	Impersonation() (active bool, targetID string, err error)
}

// DefaultDebounce is the coalescing window for the write-behind upsert.
const DefaultDebounce = 1500 * time.Millisecond

// Engine replicates the ledger store of the current effective principal.
// The debounce timer and realtime subscription are principal-scoped
// singletons: switching principal tears both down before the new
// principal's are established.
type Engine struct {
	ledger *ledger.Store
	remote remote.Store
	cache  Cache
	audit  audit.Recorder
	log    zerolog.Logger
	clock  ledger.Clock

	debounce time.Duration
	retryCfg retry.Config

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu            stdsync.Mutex
	operatorID    string
	principal     string // effective principal
	state         State
	generation    int // bumped on every principal switch
	timer         *time.Timer
	actCtx        context.Context
	actCancel     context.CancelFunc
	subStop       func()
	impersonating bool

	// flightMu is the single in-flight write slot: at most one upsert
	// (with its retries) runs at a time.
	flightMu stdsync.Mutex

	unsubLedger func()
	wg          stdsync.WaitGroup

	status statusTracker
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

func WithRetryConfig(cfg retry.Config) Option {
	return func(e *Engine) { e.retryCfg = cfg }
}

func WithClock(c ledger.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New wires an engine over the ledger store, remote store, local cache and
// audit recorder. The engine starts with no principal; call SetOperator.
func New(led *ledger.Store, rem remote.Store, cache Cache, rec audit.Recorder, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		ledger:     led,
		remote:     rem,
		cache:      cache,
		audit:      rec,
		log:        zerolog.Nop(),
		clock:      ledger.SystemClock(),
		debounce:   DefaultDebounce,
		retryCfg:   retry.DefaultRemoteConfig,
		baseCtx:    ctx,
		baseCancel: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.audit == nil {
		e.audit = audit.NewLogRecorder(e.log)
	}
	e.ledger.SetAccepting(false)
	e.unsubLedger = led.Subscribe(e.onLedgerChange)
	return e
}

// Close cancels pending work and tears down the realtime subscription.
func (e *Engine) Close() {
	e.mu.Lock()
	e.generation++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.actCancel != nil {
		e.actCancel()
	}
	if e.subStop != nil {
		e.subStop()
		e.subStop = nil
	}
	e.state = StateUnloaded
	e.mu.Unlock()
	e.baseCancel()
	if e.unsubLedger != nil {
		e.unsubLedger()
	}
	e.wg.Wait()
}

// State returns the current load state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EffectivePrincipal returns the principal id currently driving storage
// keys, remote row keys, and the subscription filter.
func (e *Engine) EffectivePrincipal() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.principal
}

// activate switches the effective principal: cancel the previous
// principal's pending debounced write and subscription, load the cached
// snapshot for instant display, then fetch remote history in the
// background.
func (e *Engine) activate(principalID string) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.actCancel != nil {
		e.actCancel()
	}
	if e.subStop != nil {
		e.subStop()
		e.subStop = nil
	}
	actCtx, cancel := context.WithCancel(e.baseCtx)
	e.actCtx = actCtx
	e.actCancel = cancel
	e.principal = principalID
	e.state = StateLoading
	e.ledger.SetAccepting(false)
	e.mu.Unlock()

	cached, ok, err := e.cache.LoadState(principalID)
	if err != nil {
		e.log.Warn().Err(err).Str("principal_id", principalID).Msg("[Sync] local snapshot unreadable, starting from defaults")
	}
	if !ok {
		cached = model.DefaultState()
	}
	e.ledger.Reset(cached)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.load(actCtx, gen, principalID)
	}()
}

// load is the read path: retried remote fetch, conflict-checked apply, then
// the realtime subscription. The principal becomes LOADED even when the
// fetch fails, so the operator keeps working on local state; the failure is
// surfaced through the status tracker.
func (e *Engine) load(ctx context.Context, gen int, principalID string) {
	fetchCfg := e.retryCfg
	fetchCfg.OperationName = "fetch user_data"
	state, err := retry.Do(logger.WithContext(ctx, e.log), fetchCfg, func(ctx context.Context) (model.GlobalState, error) {
		return e.remote.Fetch(ctx, principalID)
	})

	if e.stale(gen) {
		return
	}

	switch {
	case err == nil:
		e.ledger.ApplyRemote(state)
	case errors.Is(err, remote.ErrNotFound):
		// No remote record yet: local defaults persist until the first write.
	case ctx.Err() != nil:
		return
	default:
		e.log.Error().Err(err).Str("principal_id", principalID).Msg("[Sync] initial fetch failed, serving local state")
		e.status.set(StatusFailed, err, e.notifyStatus)
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	e.state = StateLoaded
	e.ledger.SetAccepting(true)
	e.mu.Unlock()

	ch, stop, err := e.remote.Subscribe(ctx, principalID)
	if err != nil {
		e.log.Error().Err(err).Str("principal_id", principalID).Msg("[Sync] realtime subscription failed")
		return
	}
	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		stop()
		return
	}
	e.subStop = stop
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for pushed := range ch {
			if e.stale(gen) {
				return
			}
			// Each delivery is independently conflict-checked, so a
			// stale or out-of-order push is a no-op.
			e.ledger.ApplyRemote(pushed)
		}
	}()
}

func (e *Engine) stale(gen int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation != gen
}

// onLedgerChange is the write path entry: persist the accepted state
// locally, then (re)arm the debounced upsert for local-origin transitions.
func (e *Engine) onLedgerChange(c ledger.Change) {
	if c.Origin == ledger.OriginReset {
		return
	}
	e.mu.Lock()
	principalID := e.principal
	gen := e.generation
	impersonating := e.impersonating
	operatorID := e.operatorID
	e.mu.Unlock()
	if principalID == "" {
		return
	}

	snapshot := e.ledger.Snapshot()
	if e.stale(gen) {
		// A principal switch raced the snapshot; do not save someone
		// else's state under this key.
		return
	}
	if err := e.cache.SaveState(principalID, snapshot); err != nil {
		e.log.Warn().Err(err).Str("principal_id", principalID).Msg("[Sync] local snapshot write failed")
	}

	if c.Origin != ledger.OriginLocal {
		return
	}

	e.schedule(gen)

	if impersonating {
		e.record(audit.Entry{
			PrincipalID: principalID,
			OperatorID:  operatorID,
			Action:      audit.ActionChange,
			Description: "ledger mutated under impersonation",
			Metadata:    map[string]any{"fields": c.Collections},
			Timestamp:   e.clock.Now().UnixMilli(),
		})
	}
}

// schedule (re)arms the debounce timer: each new mutation resets the window
// so only the latest accumulated state is ever transmitted.
func (e *Engine) schedule(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation != gen || e.state != StateLoaded {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		e.flush(gen)
	})
}

// flush pushes the current snapshot through the retried upsert. A principal
// switch between arming and firing aborts the write so nothing lands under
// the wrong row key.
func (e *Engine) flush(gen int) {
	e.flightMu.Lock()
	defer e.flightMu.Unlock()

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	principalID := e.principal
	// actCtx is cancelled on switch; it bounds the whole retry loop.
	ctx := e.actCtx
	if ctx == nil {
		ctx = e.baseCtx
	}
	e.mu.Unlock()

	snapshot := e.ledger.Snapshot()
	if e.stale(gen) {
		return
	}

	e.status.set(StatusSyncing, nil, e.notifyStatus)

	upsertCfg := e.retryCfg
	upsertCfg.OperationName = "upsert user_data"
	_, err := retry.Do(logger.WithContext(ctx, e.log), upsertCfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.remote.Upsert(ctx, principalID, snapshot)
	})
	switch {
	case err == nil:
		e.status.set(StatusSynced, nil, e.notifyStatus)
	case ctx.Err() != nil:
		// Cancelled by a principal switch or shutdown; not a divergence.
	default:
		// Local state stays authoritative; the divergence must be visible.
		e.log.Error().Err(err).Str("principal_id", principalID).Msg("[Sync] upsert failed after retries, local and remote have diverged")
		e.status.set(StatusFailed, err, e.notifyStatus)
	}
}

// Flush forces the pending debounced write immediately. Mainly for shutdown
// paths that cannot wait out the coalescing window.
func (e *Engine) Flush() {
	e.mu.Lock()
	gen := e.generation
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	loaded := e.state == StateLoaded
	e.mu.Unlock()
	if loaded {
		e.flush(gen)
	}
}

// ListPrincipals enumerates every stored remote row, for privileged
// operators choosing an impersonation target.
func (e *Engine) ListPrincipals(ctx context.Context) ([]remote.Row, error) {
	listCfg := e.retryCfg
	listCfg.OperationName = "list user_data"
	return retry.Do(logger.WithContext(ctx, e.log), listCfg, func(ctx context.Context) ([]remote.Row, error) {
		return e.remote.FetchAll(ctx)
	})
}

// record appends an audit entry best-effort: failures are logged, never
// propagated to the triggering mutation.
func (e *Engine) record(entry audit.Entry) {
	if err := e.audit.Record(e.baseCtx, entry); err != nil {
		e.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("[Sync] audit write failed")
	}
}
