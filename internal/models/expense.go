package models

import "github.com/divvyapp/divvy/internal/money"

// SplitStrategy identifies the rule used to divide an expense among its
// participants.
type SplitStrategy string

const (
	// SplitEqual divides the amount evenly, distributing any remainder
	// one minor unit at a time to the first participants.
	SplitEqual SplitStrategy = "equal"

	// SplitExact uses caller-supplied per-participant amounts.
	SplitExact SplitStrategy = "exact"

	// SplitPercentage divides the amount by caller-supplied percentages.
	SplitPercentage SplitStrategy = "percentage"
)

// Share is one participant's owed portion of an expense. The share
// amounts of an expense always sum exactly to the expense amount.
type Share struct {
	// MemberID is the participant's user ID.
	MemberID string

	// Amount is the portion this participant owes.
	Amount money.Amount
}

// Expense represents an amount paid by one member on behalf of several.
// Expenses are soft-deleted: DeletedAt is set instead of removing the
// row, and deleted expenses are excluded from balance calculations.
// Physical removal happens only when the owning group is deleted.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// PayerID is the user who paid the full amount.
	PayerID string

	// Description is a short human-readable label (e.g., "Dinner").
	Description string

	// Amount is the full amount paid, in the expense's currency.
	Amount money.Amount

	// Strategy records how the amount was divided.
	Strategy SplitStrategy

	// Shares are the per-participant owed amounts produced by the split
	// calculator. Their sum equals Amount exactly.
	Shares []Share

	// CreatedBy is the user ID that recorded the expense.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64

	// DeletedAt is the Unix timestamp of the soft delete, or 0 if live.
	DeletedAt int64
}

// Deleted reports whether the expense has been soft-deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != 0
}
