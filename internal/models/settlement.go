package models

import "github.com/divvyapp/divvy/internal/money"

// Settlement represents a direct payment between two group members,
// recorded to offset computed balances. Only the payer, payee, or the
// member who recorded it may edit or delete a settlement.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	// Amount is the payment amount.
	Amount money.Amount

	// Note is an optional description for the settlement.
	Note string

	// CreatedBy is the user ID who recorded this settlement.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64
}

// CanMutate reports whether the given user may edit or delete the
// settlement.
func (s *Settlement) CanMutate(userID string) bool {
	return userID == s.FromUserID || userID == s.ToUserID || userID == s.CreatedBy
}
