// Package models defines the core domain models for Divvy.
//
// The central entities are:
//   - User: a registered account, identified by email
//   - Group: a set of members who share expenses
//   - Expense: an amount paid by one member and owed by several, divided
//     by a split strategy (equal, exact, percentage)
//   - Settlement: a direct payment between two members that offsets debt
//   - GroupBalance: the materialized per-group balance cache, holding
//     net positions per currency plus the simplified debt list
//
// Relationships are expressed with ID strings rather than pointers to
// avoid circular references. Monetary fields use money.Amount, which is
// fixed-point in the currency's minor unit.
package models
