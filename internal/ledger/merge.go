package ledger

import "github.com/visao360/ledger/internal/model"

// Merge resolves local vs remote at whole-aggregate granularity. Remote wins
// iff its watermark is strictly greater, or local has never been initialized
// (watermark 0); ties favor local. The winning remote snapshot replaces the
// whole object graph — there is no per-field merge, an accepted limitation
// of the replication scheme. The accepted snapshot is normalized so a
// malformed push degrades to empty collections.
func Merge(local, remote model.GlobalState) (model.GlobalState, bool) {
	if remote.LastUpdated > local.LastUpdated || local.LastUpdated == 0 {
		remote.Normalize()
		return remote, true
	}
	return local, false
}
