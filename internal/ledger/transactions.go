package ledger

import (
	"sort"

	"github.com/visao360/ledger/internal/model"
)

// eligible reports whether tx should be folded into its account's balance:
// its date is at or before the end of the current local day. An unparseable
// date is never eligible.
func (s *Store) eligible(tx model.Transaction) bool {
	now := s.clock.Now()
	d, ok := parseDate(tx.Date, now.Location())
	if !ok {
		return false
	}
	return !d.After(endOfDay(now))
}

// applyDelta folds tx's signed value into its account, scaled by sign
// (+1 forward, -1 revert). Deltas only land on active accounts; a missing or
// tombstoned account id is a silent no-op, matching the remove-then-cascade
// lifecycle where an account and its balance leave scope together.
func applyDelta(accounts []model.Account, tx model.Transaction, sign float64) {
	signed := tx.Value
	if tx.Type == model.TransactionExpense {
		signed = -signed
	}
	for i := range accounts {
		if accounts[i].ID == tx.AccountID && accounts[i].DeletedAt == 0 {
			accounts[i].Balance += sign * signed
			return
		}
	}
}

// AddTransaction inserts a new transaction and, when eligible, folds its
// delta into the referenced account. Returns the assigned id.
func (s *Store) AddTransaction(tx model.Transaction) string {
	tx.ID = newID()
	tx.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		if s.eligible(tx) {
			applyDelta(st.Accounts, tx, +1)
		}
		st.Transactions = append([]model.Transaction{tx}, st.Transactions...)
		return []string{model.ColTransactions, model.ColAccounts}
	})
	return tx.ID
}

// AddTransactions inserts a batch in one state transition, folding every
// eligible delta per affected account in a single pass. Returns the assigned
// ids in input order.
func (s *Store) AddTransactions(txs []model.Transaction) []string {
	if len(txs) == 0 {
		return nil
	}
	ids := make([]string, len(txs))
	for i := range txs {
		txs[i].ID = newID()
		txs[i].DeletedAt = 0
		ids[i] = txs[i].ID
	}
	s.mutate(func(st *model.GlobalState) []string {
		for _, tx := range txs {
			if s.eligible(tx) {
				applyDelta(st.Accounts, tx, +1)
			}
		}
		st.Transactions = append(append([]model.Transaction(nil), txs...), st.Transactions...)
		return []string{model.ColTransactions, model.ColAccounts}
	})
	return ids
}

// UpdateTransaction replaces a transaction wholesale: the old delta is
// reverted (when the old row was active and eligible) and the new delta
// applied (when eligible). Value, type, account and eligibility-boundary
// changes all fall out of this revert-then-apply pair. Unknown ids are
// ignored.
func (s *Store) UpdateTransaction(tx model.Transaction) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Transactions, tx.ID, func(t model.Transaction) string { return t.ID })
		if i < 0 {
			return nil
		}
		old := st.Transactions[i]
		if old.DeletedAt == 0 && s.eligible(old) {
			applyDelta(st.Accounts, old, -1)
		}
		tx.DeletedAt = old.DeletedAt
		if tx.DeletedAt == 0 && s.eligible(tx) {
			applyDelta(st.Accounts, tx, +1)
		}
		st.Transactions[i] = tx
		return []string{model.ColTransactions, model.ColAccounts}
	})
}

// tombstoneTransactions reverts and tombstones the given active ids against
// one shared account slice so multiple deletions on the same account compose.
func (s *Store) tombstoneTransactions(st *model.GlobalState, ids []string) bool {
	now := s.nowMillis()
	touched := false
	for _, id := range ids {
		i := findIndex(st.Transactions, id, func(t model.Transaction) string { return t.ID })
		if i < 0 || st.Transactions[i].DeletedAt != 0 {
			continue
		}
		if s.eligible(st.Transactions[i]) {
			applyDelta(st.Accounts, st.Transactions[i], -1)
		}
		st.Transactions[i] = model.Mark(st.Transactions[i], now)
		touched = true
	}
	return touched
}

// DeleteTransaction reverts the delta (if still folded in) and tombstones.
func (s *Store) DeleteTransaction(id string) {
	s.DeleteTransactions([]string{id})
}

// DeleteTransactions is the bulk variant of DeleteTransaction; already
// tombstoned or unknown ids are skipped.
func (s *Store) DeleteTransactions(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mutate(func(st *model.GlobalState) []string {
		if !s.tombstoneTransactions(st, ids) {
			return nil
		}
		return []string{model.ColTransactions, model.ColAccounts}
	})
}

// RecoverTransaction clears a tombstone and reapplies the eligible delta.
// Valid only on a tombstoned transaction; anything else is a no-op.
func (s *Store) RecoverTransaction(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Transactions, id, func(t model.Transaction) string { return t.ID })
		if i < 0 || st.Transactions[i].DeletedAt == 0 {
			return nil
		}
		st.Transactions[i] = model.Restore(st.Transactions[i])
		if s.eligible(st.Transactions[i]) {
			applyDelta(st.Accounts, st.Transactions[i], +1)
		}
		return []string{model.ColTransactions, model.ColAccounts}
	})
}

// TransactionsByGroup returns the active members of a series ordered
// ascending by GroupIndex (0 when absent). The sort is stable so sparse or
// duplicate indices keep their insertion order.
func (s *Store) TransactionsByGroup(groupID string) []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var members []model.Transaction
	for _, tx := range s.state.Transactions {
		if tx.GroupID == groupID && tx.DeletedAt == 0 {
			members = append(members, tx)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].GroupIndex < members[j].GroupIndex
	})
	return members
}

// DeleteGroup tombstones every active member of a series, reverting their
// folded deltas like any other delete.
func (s *Store) DeleteGroup(groupID string) {
	s.deleteGroupWhere(groupID, func(model.Transaction) bool { return true })
}

// DeleteGroupFromIndex tombstones only the members with GroupIndex >=
// fromIndex ("this and future" cancellation); earlier members stay active.
func (s *Store) DeleteGroupFromIndex(groupID string, fromIndex int) {
	s.deleteGroupWhere(groupID, func(tx model.Transaction) bool {
		return tx.GroupIndex >= fromIndex
	})
}

func (s *Store) deleteGroupWhere(groupID string, match func(model.Transaction) bool) {
	if groupID == "" {
		return
	}
	s.mutate(func(st *model.GlobalState) []string {
		var ids []string
		for _, tx := range st.Transactions {
			if tx.GroupID == groupID && tx.DeletedAt == 0 && match(tx) {
				ids = append(ids, tx.ID)
			}
		}
		if !s.tombstoneTransactions(st, ids) {
			return nil
		}
		return []string{model.ColTransactions, model.ColAccounts}
	})
}

// ActiveTransactions returns the tombstone-filtered transaction view.
func (s *Store) ActiveTransactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Transactions)
}

// DeletedTransactions returns the tombstoned transactions (recovery view).
func (s *Store) DeletedTransactions() []model.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterDeleted(s.state.Transactions)
}
