package model

import (
	"encoding/json"
)

// stateWire mirrors GlobalState with raw collection payloads so a single
// malformed field cannot fail the whole decode.
type stateWire struct {
	Accounts     json.RawMessage `json:"accounts"`
	Transactions json.RawMessage `json:"transactions"`
	Categories   json.RawMessage `json:"categories"`
	Goals        json.RawMessage `json:"goals"`
	Investments  json.RawMessage `json:"investments"`
	Patrimony    json.RawMessage `json:"patrimony"`
	Budgets      json.RawMessage `json:"budgets"`
	Partners     json.RawMessage `json:"partners"`
	Assets       json.RawMessage `json:"assets"`
	UserProfile  json.RawMessage `json:"userProfile"`
	LastUpdated  int64           `json:"lastUpdated"`
}

func decodeInto[T any](raw json.RawMessage, dst *[]T) {
	if len(raw) == 0 {
		*dst = []T{}
		return
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		*dst = []T{}
		return
	}
	*dst = items
}

// DecodeState parses a GlobalState JSON blob tolerantly: collection fields
// that are missing, null, or not arrays come back as that collection's
// empty/default value rather than an error. Only a payload that is not a JSON
// object at all is rejected.
func DecodeState(data []byte) (GlobalState, error) {
	var w stateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return GlobalState{}, err
	}

	var s GlobalState
	decodeInto(w.Accounts, &s.Accounts)
	decodeInto(w.Transactions, &s.Transactions)
	decodeInto(w.Categories, &s.Categories)
	decodeInto(w.Goals, &s.Goals)
	decodeInto(w.Investments, &s.Investments)
	decodeInto(w.Patrimony, &s.Patrimony)
	decodeInto(w.Budgets, &s.Budgets)
	decodeInto(w.Partners, &s.Partners)
	decodeInto(w.Assets, &s.Assets)

	if len(w.UserProfile) > 0 {
		// Best effort; a malformed profile degrades to the zero profile.
		_ = json.Unmarshal(w.UserProfile, &s.UserProfile)
	}
	s.LastUpdated = w.LastUpdated
	s.Normalize()
	return s, nil
}

// EncodeState serializes the aggregate for the remote row and local cache.
func EncodeState(s GlobalState) ([]byte, error) {
	return json.Marshal(s)
}
