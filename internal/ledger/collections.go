package ledger

import "github.com/visao360/ledger/internal/model"

// The remaining collections share plain CRUD semantics: create assigns a
// fresh id, update is full-replace, delete tombstones, recover clears the
// tombstone. None of them carry balance deltas.

// Categories

func (s *Store) AddCategory(c model.Category) string {
	c.ID = newID()
	c.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Categories = append(st.Categories, c)
		return []string{model.ColCategories}
	})
	return c.ID
}

func (s *Store) UpdateCategory(c model.Category) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Categories, c.ID, func(x model.Category) string { return x.ID })
		if i < 0 {
			return nil
		}
		c.DeletedAt = st.Categories[i].DeletedAt
		st.Categories[i] = c
		return []string{model.ColCategories}
	})
}

func (s *Store) DeleteCategory(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Categories, id, func(x model.Category) string { return x.ID })
		if i < 0 || st.Categories[i].DeletedAt != 0 {
			return nil
		}
		st.Categories[i] = model.Mark(st.Categories[i], s.nowMillis())
		return []string{model.ColCategories}
	})
}

func (s *Store) RecoverCategory(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Categories, id, func(x model.Category) string { return x.ID })
		if i < 0 || st.Categories[i].DeletedAt == 0 {
			return nil
		}
		st.Categories[i] = model.Restore(st.Categories[i])
		return []string{model.ColCategories}
	})
}

func (s *Store) ActiveCategories() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Categories)
}

// Goals

func (s *Store) AddGoal(g model.Goal) string {
	g.ID = newID()
	g.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Goals = append(st.Goals, g)
		return []string{model.ColGoals}
	})
	return g.ID
}

func (s *Store) UpdateGoal(g model.Goal) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Goals, g.ID, func(x model.Goal) string { return x.ID })
		if i < 0 {
			return nil
		}
		g.DeletedAt = st.Goals[i].DeletedAt
		st.Goals[i] = g
		return []string{model.ColGoals}
	})
}

func (s *Store) DeleteGoal(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Goals, id, func(x model.Goal) string { return x.ID })
		if i < 0 || st.Goals[i].DeletedAt != 0 {
			return nil
		}
		st.Goals[i] = model.Mark(st.Goals[i], s.nowMillis())
		return []string{model.ColGoals}
	})
}

func (s *Store) RecoverGoal(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Goals, id, func(x model.Goal) string { return x.ID })
		if i < 0 || st.Goals[i].DeletedAt == 0 {
			return nil
		}
		st.Goals[i] = model.Restore(st.Goals[i])
		return []string{model.ColGoals}
	})
}

func (s *Store) ActiveGoals() []model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Goals)
}

// Investment assets

func (s *Store) AddInvestment(a model.InvestmentAsset) string {
	a.ID = newID()
	a.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Investments = append(st.Investments, a)
		return []string{model.ColInvestments}
	})
	return a.ID
}

func (s *Store) UpdateInvestment(a model.InvestmentAsset) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Investments, a.ID, func(x model.InvestmentAsset) string { return x.ID })
		if i < 0 {
			return nil
		}
		a.DeletedAt = st.Investments[i].DeletedAt
		st.Investments[i] = a
		return []string{model.ColInvestments}
	})
}

func (s *Store) DeleteInvestment(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Investments, id, func(x model.InvestmentAsset) string { return x.ID })
		if i < 0 || st.Investments[i].DeletedAt != 0 {
			return nil
		}
		st.Investments[i] = model.Mark(st.Investments[i], s.nowMillis())
		return []string{model.ColInvestments}
	})
}

func (s *Store) RecoverInvestment(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Investments, id, func(x model.InvestmentAsset) string { return x.ID })
		if i < 0 || st.Investments[i].DeletedAt == 0 {
			return nil
		}
		st.Investments[i] = model.Restore(st.Investments[i])
		return []string{model.ColInvestments}
	})
}

func (s *Store) ActiveInvestments() []model.InvestmentAsset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Investments)
}

// Patrimony

func (s *Store) AddPatrimonyItem(p model.PatrimonyItem) string {
	p.ID = newID()
	p.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Patrimony = append(st.Patrimony, p)
		return []string{model.ColPatrimony}
	})
	return p.ID
}

func (s *Store) UpdatePatrimonyItem(p model.PatrimonyItem) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Patrimony, p.ID, func(x model.PatrimonyItem) string { return x.ID })
		if i < 0 {
			return nil
		}
		p.DeletedAt = st.Patrimony[i].DeletedAt
		st.Patrimony[i] = p
		return []string{model.ColPatrimony}
	})
}

func (s *Store) DeletePatrimonyItem(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Patrimony, id, func(x model.PatrimonyItem) string { return x.ID })
		if i < 0 || st.Patrimony[i].DeletedAt != 0 {
			return nil
		}
		st.Patrimony[i] = model.Mark(st.Patrimony[i], s.nowMillis())
		return []string{model.ColPatrimony}
	})
}

func (s *Store) RecoverPatrimonyItem(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Patrimony, id, func(x model.PatrimonyItem) string { return x.ID })
		if i < 0 || st.Patrimony[i].DeletedAt == 0 {
			return nil
		}
		st.Patrimony[i] = model.Restore(st.Patrimony[i])
		return []string{model.ColPatrimony}
	})
}

func (s *Store) ActivePatrimony() []model.PatrimonyItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Patrimony)
}

// Category budgets

func (s *Store) AddBudget(b model.CategoryBudget) string {
	b.ID = newID()
	b.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Budgets = append(st.Budgets, b)
		return []string{model.ColBudgets}
	})
	return b.ID
}

func (s *Store) UpdateBudget(b model.CategoryBudget) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Budgets, b.ID, func(x model.CategoryBudget) string { return x.ID })
		if i < 0 {
			return nil
		}
		b.DeletedAt = st.Budgets[i].DeletedAt
		st.Budgets[i] = b
		return []string{model.ColBudgets}
	})
}

func (s *Store) DeleteBudget(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Budgets, id, func(x model.CategoryBudget) string { return x.ID })
		if i < 0 || st.Budgets[i].DeletedAt != 0 {
			return nil
		}
		st.Budgets[i] = model.Mark(st.Budgets[i], s.nowMillis())
		return []string{model.ColBudgets}
	})
}

func (s *Store) ActiveBudgets() []model.CategoryBudget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Budgets)
}

// Partners

func (s *Store) AddPartner(p model.Partner) string {
	p.ID = newID()
	p.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Partners = append(st.Partners, p)
		return []string{model.ColPartners}
	})
	return p.ID
}

func (s *Store) UpdatePartner(p model.Partner) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Partners, p.ID, func(x model.Partner) string { return x.ID })
		if i < 0 {
			return nil
		}
		p.DeletedAt = st.Partners[i].DeletedAt
		st.Partners[i] = p
		return []string{model.ColPartners}
	})
}

func (s *Store) DeletePartner(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Partners, id, func(x model.Partner) string { return x.ID })
		if i < 0 || st.Partners[i].DeletedAt != 0 {
			return nil
		}
		st.Partners[i] = model.Mark(st.Partners[i], s.nowMillis())
		return []string{model.ColPartners}
	})
}

func (s *Store) ActivePartners() []model.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Partners)
}

// Acquisition assets

func (s *Store) AddAsset(a model.Asset) string {
	a.ID = newID()
	a.DeletedAt = 0
	s.mutate(func(st *model.GlobalState) []string {
		st.Assets = append(st.Assets, a)
		return []string{model.ColAssets}
	})
	return a.ID
}

func (s *Store) UpdateAsset(a model.Asset) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Assets, a.ID, func(x model.Asset) string { return x.ID })
		if i < 0 {
			return nil
		}
		a.DeletedAt = st.Assets[i].DeletedAt
		st.Assets[i] = a
		return []string{model.ColAssets}
	})
}

func (s *Store) DeleteAsset(id string) {
	s.mutate(func(st *model.GlobalState) []string {
		i := findIndex(st.Assets, id, func(x model.Asset) string { return x.ID })
		if i < 0 || st.Assets[i].DeletedAt != 0 {
			return nil
		}
		st.Assets[i] = model.Mark(st.Assets[i], s.nowMillis())
		return []string{model.ColAssets}
	})
}

func (s *Store) ActiveAssets() []model.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.FilterActive(s.state.Assets)
}

// User profile

func (s *Store) UserProfile() model.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserProfile
}

func (s *Store) UpdateUserProfile(p model.UserProfile) {
	s.mutate(func(st *model.GlobalState) []string {
		st.UserProfile = p
		st.Normalize()
		return []string{model.ColUserProfile}
	})
}
