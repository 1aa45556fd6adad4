package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkIsIdempotent(t *testing.T) {
	tx := Transaction{ID: "t1"}

	deleted := Mark(tx, 1000)
	assert.Equal(t, int64(1000), deleted.DeletedAt)

	again := Mark(deleted, 2000)
	assert.Equal(t, int64(1000), again.DeletedAt, "marking an already-deleted item keeps the original timestamp")
}

func TestRestoreClearsTombstone(t *testing.T) {
	acc := Mark(Account{ID: "a1"}, 500)
	restored := Restore(acc)

	assert.Zero(t, restored.DeletedAt)
	assert.Zero(t, Restore(restored).DeletedAt)
}

func TestFilterActivePartitions(t *testing.T) {
	items := []Transaction{
		{ID: "live"},
		{ID: "dead", DeletedAt: 99},
		{ID: "live2"},
	}

	active := FilterActive(items)
	deleted := FilterDeleted(items)

	assert.Equal(t, []string{"live", "live2"}, ids(active))
	assert.Equal(t, []string{"dead"}, ids(deleted))
	assert.Len(t, items, 3, "input untouched")
}

func TestFilterActiveNilSafe(t *testing.T) {
	assert.Empty(t, FilterActive[Account](nil))
	assert.Empty(t, FilterDeleted[Goal](nil))
}

func ids(txs []Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}
