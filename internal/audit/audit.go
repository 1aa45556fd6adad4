// Package audit appends records of privileged access to another principal's
// ledger. Writes are best effort: the sync engine logs and swallows recorder
// failures so auditing never blocks a mutation.
package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ActionType distinguishes viewing from mutating under impersonation.
type ActionType string

const (
	ActionAccess ActionType = "ACCESS"
	ActionChange ActionType = "CHANGE"
)

// Entry is one appended audit record.
type Entry struct {
	PrincipalID string         `json:"principalId"`
	OperatorID  string         `json:"operatorId"`
	Action      ActionType     `json:"actionType"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Timestamp   int64          `json:"timestamp"` // epoch ms
}

// Recorder appends entries to an audit log.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// MemoryRecorder collects entries in memory, for tests and local dev.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

func (r *MemoryRecorder) Record(_ context.Context, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (r *MemoryRecorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// LogRecorder appends entries to the structured log. It is the fallback when
// no durable audit sink is configured.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log}
}

func (r *LogRecorder) Record(_ context.Context, e Entry) error {
	r.log.Info().
		Str("principal_id", e.PrincipalID).
		Str("operator_id", e.OperatorID).
		Str("action", string(e.Action)).
		Str("description", e.Description).
		Interface("metadata", e.Metadata).
		Int64("timestamp", e.Timestamp).
		Msg("audit")
	return nil
}
