package ledger

import "github.com/visao360/ledger/internal/model"

// AddAccount inserts a new account and returns its id.
func (s *Store) AddAccount(acc model.Account) string {
	acc.ID = newID()
	acc.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Accounts = append(st.Accounts, acc)
		return []string{model.ColAccounts}
	})
	return acc.ID
}

// UpdateAccount replaces an account wholesale. Unknown ids are ignored. The
// tombstone state of the stored row is preserved.
func (s *Store) UpdateAccount(acc model.Account) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Accounts, acc.ID, func(a model.Account) string { return a.ID })
		if i < 0 {
			return nil
		}
		acc.DeletedAt = st.Accounts[i].DeletedAt
		st.Accounts[i] = acc
		return []string{model.ColAccounts}
	})
}

// DeleteAccount tombstones the account and cascades to tombstoning every
// active transaction referencing it. The cascaded transactions keep their
// folded deltas: the account leaves scope together with its balance.
func (s *Store) DeleteAccount(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Accounts, id, func(a model.Account) string { return a.ID })
		if i < 0 || st.Accounts[i].DeletedAt != 0 {
			return nil
		}
		now := s.nowMillis()
		st.Accounts[i] = model.Mark(st.Accounts[i], now)
		for j, tx := range st.Transactions {
			if tx.AccountID == id && tx.DeletedAt == 0 {
				st.Transactions[j] = model.Mark(tx, now)
			}
		}
		return []string{model.ColAccounts, model.ColTransactions}
	})
}

// RecoverAccount clears an account tombstone. Its cascaded transactions stay
// tombstoned and are recovered individually.
func (s *Store) RecoverAccount(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Accounts, id, func(a model.Account) string { return a.ID })
		if i < 0 || st.Accounts[i].DeletedAt == 0 {
			return nil
		}
		st.Accounts[i] = model.Restore(st.Accounts[i])
		return []string{model.ColAccounts}
	})
}

// ActiveAccounts returns the tombstone-filtered account view.
func (s *Store) ActiveAccounts() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Accounts)
}

// DeletedAccounts returns the tombstoned accounts (recovery view).
func (s *Store) DeletedAccounts() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterDeleted(s.state.Accounts)
}

// AccountBalance returns the materialized balance of an active account, or 0
// for unknown and tombstoned ids.
func (s *Store) AccountBalance(id string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.state.Accounts {
		if acc.ID == id && acc.DeletedAt == 0 {
			return acc.Balance
		}
	}
	return 0
}

// TotalBalance sums the balances of all active accounts.
func (s *Store) TotalBalance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, acc := range s.state.Accounts {
		if acc.DeletedAt == 0 {
			total += acc.Balance
		}
	}
	return total
}
