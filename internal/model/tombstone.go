package model

// Tombstoned is satisfied by every soft-deletable entity. DeletedAtMillis
// returns 0 for an active entity.
type Tombstoned interface {
	DeletedAtMillis() int64
}

func (a Account) DeletedAtMillis() int64         { return a.DeletedAt }
func (t Transaction) DeletedAtMillis() int64     { return t.DeletedAt }
func (c Category) DeletedAtMillis() int64        { return c.DeletedAt }
func (g Goal) DeletedAtMillis() int64            { return g.DeletedAt }
func (i InvestmentAsset) DeletedAtMillis() int64 { return i.DeletedAt }
func (p PatrimonyItem) DeletedAtMillis() int64   { return p.DeletedAt }
func (b CategoryBudget) DeletedAtMillis() int64  { return b.DeletedAt }
func (p Partner) DeletedAtMillis() int64         { return p.DeletedAt }
func (a Asset) DeletedAtMillis() int64           { return a.DeletedAt }

// FilterActive returns the entities without a tombstone, preserving order.
// A nil input yields an empty slice, never nil.
func FilterActive[T Tombstoned](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.DeletedAtMillis() == 0 {
			out = append(out, item)
		}
	}
	return out
}

// FilterDeleted returns the tombstoned entities, preserving order.
func FilterDeleted[T Tombstoned](items []T) []T {
	out := make([]T, 0)
	for _, item := range items {
		if item.DeletedAtMillis() != 0 {
			out = append(out, item)
		}
	}
	return out
}

// setDeletedAt is implemented on pointers so Mark/Restore can write the
// tombstone field on a copy without per-type duplication.
type softDeletable interface {
	setDeletedAt(int64)
	DeletedAtMillis() int64
}

func (a *Account) setDeletedAt(at int64)         { a.DeletedAt = at }
func (t *Transaction) setDeletedAt(at int64)     { t.DeletedAt = at }
func (c *Category) setDeletedAt(at int64)        { c.DeletedAt = at }
func (g *Goal) setDeletedAt(at int64)            { g.DeletedAt = at }
func (i *InvestmentAsset) setDeletedAt(at int64) { i.DeletedAt = at }
func (p *PatrimonyItem) setDeletedAt(at int64)   { p.DeletedAt = at }
func (b *CategoryBudget) setDeletedAt(at int64)  { b.DeletedAt = at }
func (p *Partner) setDeletedAt(at int64)         { p.DeletedAt = at }
func (a *Asset) setDeletedAt(at int64)           { a.DeletedAt = at }

// Mark returns a copy of item with its tombstone set to now (epoch ms).
// Marking an already tombstoned item returns it unchanged.
func Mark[T any, PT interface {
	softDeletable
	*T
}](item T, now int64) T {
	p := PT(&item)
	if p.DeletedAtMillis() != 0 {
		return item
	}
	p.setDeletedAt(now)
	return item
}

// Restore returns a copy of item with its tombstone cleared. Restoring an
// active item returns it unchanged.
func Restore[T any, PT interface {
	softDeletable
	*T
}](item T) T {
	p := PT(&item)
	p.setDeletedAt(0)
	return item
}
