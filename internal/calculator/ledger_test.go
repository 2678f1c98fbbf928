package calculator

import (
	"testing"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
)

func equalShares(t *testing.T, total money.Amount, members ...string) []models.Share {
	t.Helper()
	inputs := make([]ShareInput, len(members))
	for i, m := range members {
		inputs[i] = ShareInput{MemberID: m}
	}
	shares, err := ComputeSplits(total, models.SplitEqual, inputs)
	if err != nil {
		t.Fatalf("ComputeSplits failed: %v", err)
	}
	return shares
}

func assertZeroSum(t *testing.T, net map[string]map[string]int64) {
	t.Helper()
	for currency, byMember := range net {
		var sum int64
		for _, units := range byMember {
			sum += units
		}
		if sum != 0 {
			t.Errorf("currency %s: net balances sum to %d, want 0", currency, sum)
		}
	}
}

func TestAggregateTwoPartyDebt(t *testing.T) {
	// A pays a $50 expense split equally with B.
	total := money.New(5000, "USD")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: total, Shares: equalShares(t, total, "a", "b")},
	}

	net := Aggregate(expenses, nil)
	assertZeroSum(t, net)

	usd := net["USD"]
	if usd["a"] != 2500 {
		t.Errorf("a = %d, want +2500", usd["a"])
	}
	if usd["b"] != -2500 {
		t.Errorf("b = %d, want -2500", usd["b"])
	}
}

func TestAggregateSettlementOffsetsBalance(t *testing.T) {
	total := money.New(5000, "USD")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: total, Shares: equalShares(t, total, "a", "b")},
	}
	settlements := []SettlementForBalance{
		{FromUserID: "b", ToUserID: "a", Amount: money.New(2500, "USD")},
	}

	net := Aggregate(expenses, settlements)
	if len(net) != 0 {
		t.Errorf("expected fully settled group, got %v", net)
	}
}

func TestAggregatePayerNotParticipant(t *testing.T) {
	// A pays 30.00 entirely on behalf of B and C.
	total := money.New(3000, "USD")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: total, Shares: equalShares(t, total, "b", "c")},
	}

	net := Aggregate(expenses, nil)
	assertZeroSum(t, net)

	usd := net["USD"]
	if usd["a"] != 3000 {
		t.Errorf("a = %d, want +3000", usd["a"])
	}
	if usd["b"] != -1500 || usd["c"] != -1500 {
		t.Errorf("b = %d, c = %d, want -1500 each", usd["b"], usd["c"])
	}
}

func TestAggregateSkipsDeletedExpenses(t *testing.T) {
	total := money.New(5000, "USD")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: total, Shares: equalShares(t, total, "a", "b"), Deleted: true},
	}

	net := Aggregate(expenses, nil)
	if len(net) != 0 {
		t.Errorf("deleted expense must not contribute, got %v", net)
	}
}

func TestAggregateCurrenciesStaySeparate(t *testing.T) {
	usd := money.New(2000, "USD")
	jpy := money.New(3000, "JPY")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: usd, Shares: equalShares(t, usd, "a", "b")},
		{PayerID: "b", Amount: jpy, Shares: equalShares(t, jpy, "a", "b")},
	}

	net := Aggregate(expenses, nil)
	assertZeroSum(t, net)

	if net["USD"]["a"] != 1000 || net["USD"]["b"] != -1000 {
		t.Errorf("USD positions wrong: %v", net["USD"])
	}
	if net["JPY"]["b"] != 1500 || net["JPY"]["a"] != -1500 {
		t.Errorf("JPY positions wrong: %v", net["JPY"])
	}
}

func TestAggregateThreeWayCycle(t *testing.T) {
	// A pays 100 for A+B, B pays 100 for B+C, C pays 100 for C+A.
	// Everyone pays 100 and owes 100; all positions net to zero.
	total := money.New(10000, "USD")
	expenses := []ExpenseForBalance{
		{PayerID: "a", Amount: total, Shares: equalShares(t, total, "a", "b")},
		{PayerID: "b", Amount: total, Shares: equalShares(t, total, "b", "c")},
		{PayerID: "c", Amount: total, Shares: equalShares(t, total, "c", "a")},
	}

	net := Aggregate(expenses, nil)
	if len(net) != 0 {
		t.Errorf("cycle should net to zero for every member, got %v", net)
	}
}
