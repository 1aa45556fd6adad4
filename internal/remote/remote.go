// Package remote defines the authoritative store interface: one logical
// table keyed by principal id, each row holding a whole GlobalState snapshot
// plus its last-write watermark, with upsert-by-key, fetch-by-key, bulk
// fetch, and a push subscription filtered by key.
package remote

import (
	"context"
	"errors"

	"github.com/visao360/ledger/internal/model"
)

// ErrNotFound is returned by Fetch when the principal has no remote row yet.
var ErrNotFound = errors.New("remote: row not found")

// Row is one principal's stored snapshot.
type Row struct {
	PrincipalID string
	State       model.GlobalState
	LastUpdated int64
}

// Store is the remote collaborator the sync engine replicates against. All
// methods are safe for concurrent use.
type Store interface {
	// Upsert writes state under principalID, replacing any existing row.
	// The row watermark is taken from state.LastUpdated.
	Upsert(ctx context.Context, principalID string, state model.GlobalState) error

	// Fetch returns the principal's snapshot, or ErrNotFound.
	Fetch(ctx context.Context, principalID string) (model.GlobalState, error)

	// FetchAll returns every stored row. Privileged operators use it to
	// enumerate principals before impersonating one.
	FetchAll(ctx context.Context) ([]Row, error)

	// Subscribe opens a push subscription filtered to principalID. Each
	// accepted remote write is delivered on the returned channel until the
	// context is cancelled or stop is called; the channel is then closed.
	// Delivery is best effort and every received snapshot must still be
	// conflict-checked by the caller.
	Subscribe(ctx context.Context, principalID string) (<-chan model.GlobalState, func(), error)
}
