package calculator

import (
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
)

// ExpenseForBalance carries the fields of an expense needed by the
// ledger aggregator.
type ExpenseForBalance struct {
	PayerID string
	Amount  money.Amount
	Shares  []models.Share
	Deleted bool
}

// SettlementForBalance carries the fields of a settlement needed by the
// ledger aggregator.
type SettlementForBalance struct {
	FromUserID string
	ToUserID   string
	Amount     money.Amount
}

// Aggregate folds a group's expenses and settlements into net positions
// per currency per member, in minor units. Positive means the member is
// owed money, negative means the member owes.
//
// For each live expense the payer's position increases by the full
// amount and every participant's decreases by their share; a payer who
// is also a participant nets to amount minus their own share. For each
// settlement the payer's position increases and the payee's decreases by
// the settled amount. Currencies are never combined, and members whose
// position nets to zero are dropped from the result.
func Aggregate(expenses []ExpenseForBalance, settlements []SettlementForBalance) map[string]map[string]int64 {
	net := make(map[string]map[string]int64)

	add := func(currency, memberID string, units int64) {
		byMember, ok := net[currency]
		if !ok {
			byMember = make(map[string]int64)
			net[currency] = byMember
		}
		byMember[memberID] += units
	}

	for _, e := range expenses {
		if e.Deleted {
			continue
		}
		add(e.Amount.Currency, e.PayerID, e.Amount.Units)
		for _, share := range e.Shares {
			add(e.Amount.Currency, share.MemberID, -share.Amount.Units)
		}
	}

	for _, s := range settlements {
		add(s.Amount.Currency, s.FromUserID, s.Amount.Units)
		add(s.Amount.Currency, s.ToUserID, -s.Amount.Units)
	}

	// Settled members are omitted; currencies where everyone settled
	// disappear entirely.
	for currency, byMember := range net {
		for memberID, units := range byMember {
			if units == 0 {
				delete(byMember, memberID)
			}
		}
		if len(byMember) == 0 {
			delete(net, currency)
		}
	}

	return net
}
