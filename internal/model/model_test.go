package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStateStartsUnsynced(t *testing.T) {
	s := DefaultState()

	assert.Zero(t, s.LastUpdated, "a seeded state must lose the first merge against any remote history")
	assert.NotEmpty(t, s.Accounts)
	assert.NotEmpty(t, s.Categories)
	assert.NotEmpty(t, s.UserProfile.DashboardLayout)
}

func TestNormalizeCoercesNilCollections(t *testing.T) {
	var s GlobalState
	s.Normalize()

	assert.NotNil(t, s.Accounts)
	assert.NotNil(t, s.Transactions)
	assert.NotNil(t, s.Categories)
	assert.NotNil(t, s.Goals)
	assert.NotNil(t, s.Investments)
	assert.NotNil(t, s.Patrimony)
	assert.NotNil(t, s.Budgets)
	assert.NotNil(t, s.Partners)
	assert.NotNil(t, s.Assets)
	assert.Equal(t, DefaultDashboardLayout, s.UserProfile.DashboardLayout)
}

func TestCloneIsIndependent(t *testing.T) {
	orig := DefaultState()
	orig.Transactions = []Transaction{{ID: "t1", Value: 10}}

	cp := orig.Clone()
	cp.Transactions[0].Value = 99
	cp.Accounts[0].Balance = 1234

	assert.Equal(t, float64(10), orig.Transactions[0].Value)
	assert.NotEqual(t, float64(1234), orig.Accounts[0].Balance)
}

func TestDecodeStateToleratesMalformedCollections(t *testing.T) {
	raw := []byte(`{
		"accounts": {"not": "an array"},
		"transactions": [{"id": "t1", "value": 5}],
		"categories": 42,
		"lastUpdated": 1700000000000
	}`)

	s, err := DecodeState(raw)
	require.NoError(t, err)

	assert.Empty(t, s.Accounts, "non-array collection decodes to empty")
	assert.Empty(t, s.Categories)
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "t1", s.Transactions[0].ID)
	assert.Equal(t, int64(1700000000000), s.LastUpdated)
	assert.NotNil(t, s.Goals, "absent collections come back empty, not nil")
}

func TestDecodeStateRejectsInvalidJSON(t *testing.T) {
	_, err := DecodeState([]byte(`{"accounts": [`))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := DefaultState()
	orig.Transactions = []Transaction{{
		ID: "t1", AccountID: "a1", Description: "groceries",
		Value: 42.5, Date: "2026-08-01", Type: TransactionExpense,
		GroupID: "g1", GroupIndex: 2, GroupTotal: 12, GroupType: GroupInstallment,
	}}
	orig.LastUpdated = 123

	data, err := EncodeState(orig)
	require.NoError(t, err)

	got, err := DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, orig.Transactions, got.Transactions)
	assert.Equal(t, orig.LastUpdated, got.LastUpdated)
}
