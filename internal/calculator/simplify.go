package calculator

import (
	"container/heap"
	"sort"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
)

// party is one side of the matching: a member and their remaining
// magnitude in minor units (always positive).
type party struct {
	id    string
	units int64
}

// partyHeap orders parties by magnitude descending, breaking ties by
// member ID ascending so identical inputs always produce identical
// output.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }
func (h partyHeap) Less(i, j int) bool {
	if h[i].units != h[j].units {
		return h[i].units > h[j].units
	}
	return h[i].id < h[j].id
}
func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *partyHeap) Push(x any)   { *h = append(*h, x.(party)) }
func (h *partyHeap) Pop() any     { old := *h; n := len(old); p := old[n-1]; *h = old[:n-1]; return p }

// Simplify reduces per-currency net positions to a list of transfers
// that, if all executed, bring every member's balance to exactly zero.
//
// Per currency it repeatedly matches the largest creditor against the
// largest debtor, transferring the smaller of the two magnitudes; each
// step settles at least one party, so at most creditors+debtors-1
// transfers are produced. This is a greedy heuristic, not a minimum
// transaction-count solver.
func Simplify(net map[string]map[string]int64) []models.SimplifiedDebt {
	currencies := make([]string, 0, len(net))
	for currency := range net {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	var debts []models.SimplifiedDebt
	for _, currency := range currencies {
		debts = append(debts, simplifyCurrency(currency, net[currency])...)
	}
	return debts
}

func simplifyCurrency(currency string, byMember map[string]int64) []models.SimplifiedDebt {
	creditors := partyHeap{}
	debtors := partyHeap{}
	for memberID, units := range byMember {
		switch {
		case units > 0:
			creditors = append(creditors, party{id: memberID, units: units})
		case units < 0:
			debtors = append(debtors, party{id: memberID, units: -units})
		}
	}
	heap.Init(&creditors)
	heap.Init(&debtors)

	var debts []models.SimplifiedDebt
	for len(creditors) > 0 && len(debtors) > 0 {
		amount := creditors[0].units
		if debtors[0].units < amount {
			amount = debtors[0].units
		}

		debts = append(debts, models.SimplifiedDebt{
			FromID: debtors[0].id,
			ToID:   creditors[0].id,
			Amount: money.New(amount, currency),
		})

		creditors[0].units -= amount
		if creditors[0].units == 0 {
			heap.Pop(&creditors)
		} else {
			heap.Fix(&creditors, 0)
		}

		debtors[0].units -= amount
		if debtors[0].units == 0 {
			heap.Pop(&debtors)
		} else {
			heap.Fix(&debtors, 0)
		}
	}
	return debts
}
