package models

import "github.com/divvyapp/divvy/internal/money"

// MemberBalance is one member's net position in a single currency.
// Positive means the group owes the member; negative means the member
// owes the group.
type MemberBalance struct {
	MemberID string       `json:"member_id"`
	Net      money.Amount `json:"net"`
}

// SimplifiedDebt is a suggested transfer that helps resolve a group's
// balances to zero. Executing every simplified debt of a group brings
// every member's net balance to exactly zero.
type SimplifiedDebt struct {
	FromID string       `json:"from"`
	ToID   string       `json:"to"`
	Amount money.Amount `json:"amount"`
}

// GroupBalance is the materialized balance cache for a group. It is
// created in an all-zero state together with the group, overwritten on
// every expense or settlement mutation, and read directly by all query
// paths. Only the balance materializer writes it.
type GroupBalance struct {
	// GroupID is the group this cache row belongs to.
	GroupID string

	// BalancesByCurrency maps a currency code to the nonzero member
	// positions in that currency, sorted by member ID. Zero-sum holds
	// per currency.
	BalancesByCurrency map[string][]MemberBalance

	// SimplifiedDebts is the greedy-minimal transfer list, ordered by
	// currency and then by matching order.
	SimplifiedDebts []SimplifiedDebt

	// Version is bumped on every recompute.
	Version int64

	// UpdatedAt is the Unix timestamp of the last recompute.
	UpdatedAt int64
}
