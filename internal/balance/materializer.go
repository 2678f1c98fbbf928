// Package balance owns the materialized group balance cache: it is the
// only writer of the cached document and exposes the O(1) read path used
// by listing and detail endpoints.
package balance

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/divvyapp/divvy/internal/calculator"
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/storage"
)

const (
	// maxAttempts bounds how often a conflicting recompute transaction
	// is retried before the mutation is reported as failed.
	maxAttempts = 3
	baseDelay   = 25 * time.Millisecond
)

// Materializer recomputes and persists the per-group balance cache. All
// expense and settlement mutations go through Mutate so the cache is
// rewritten in the same transaction as the triggering write.
type Materializer struct {
	store storage.Store
}

// NewMaterializer creates a Materializer over the given store.
func NewMaterializer(store storage.Store) *Materializer {
	return &Materializer{store: store}
}

// Get returns the cached balance for a group without recomputing.
func (m *Materializer) Get(ctx context.Context, groupID string) (*models.GroupBalance, error) {
	return m.store.GetGroupBalance(ctx, groupID)
}

// Init writes the all-zero cache row for a fresh group. Callers include
// this in the transaction that creates the group so the cache exists
// atomically with it.
func (m *Materializer) Init(ctx context.Context, st storage.Store, groupID string) error {
	return st.SaveGroupBalance(ctx, &models.GroupBalance{GroupID: groupID})
}

// Mutate runs fn followed by a recompute of the group's balance inside a
// single transaction. Transient conflicts are retried with exponential
// backoff up to maxAttempts; once the budget is exhausted the last error
// is returned and the previously cached balance remains in place. The
// rewritten cache is returned on success.
func (m *Materializer) Mutate(ctx context.Context, groupID string, fn func(storage.Store) error) (*models.GroupBalance, error) {
	var result *models.GroupBalance

	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(baseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := m.store.Atomic(ctx, func(st storage.Store) error {
			if err := fn(st); err != nil {
				return err
			}
			recomputed, err := m.recomputeIn(ctx, st, groupID)
			if err != nil {
				return err
			}
			result = recomputed
			return nil
		})
		if errors.Is(err, storage.ErrConflict) {
			slog.Warn("Balance recompute conflict, retrying", "group_id", groupID, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Recompute rebuilds the cached balance from the group's current
// expenses and settlements without any accompanying mutation.
func (m *Materializer) Recompute(ctx context.Context, groupID string) (*models.GroupBalance, error) {
	return m.Mutate(ctx, groupID, func(storage.Store) error { return nil })
}

// recomputeIn reads a consistent snapshot of the group's expenses and
// settlements through st, aggregates and simplifies them, and overwrites
// the cache row. A missing group surfaces as storage.ErrNotFound.
func (m *Materializer) recomputeIn(ctx context.Context, st storage.Store, groupID string) (*models.GroupBalance, error) {
	if _, err := st.GetGroup(ctx, groupID); err != nil {
		return nil, err
	}

	expenses, err := st.ListExpensesByGroup(ctx, groupID, false)
	if err != nil {
		return nil, err
	}
	settlements, err := st.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenseInputs := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		expenseInputs[i] = calculator.ExpenseForBalance{
			PayerID: e.PayerID,
			Amount:  e.Amount,
			Shares:  e.Shares,
			Deleted: e.Deleted(),
		}
	}
	settlementInputs := make([]calculator.SettlementForBalance, len(settlements))
	for i, s := range settlements {
		settlementInputs[i] = calculator.SettlementForBalance{
			FromUserID: s.FromUserID,
			ToUserID:   s.ToUserID,
			Amount:     s.Amount,
		}
	}

	net := calculator.Aggregate(expenseInputs, settlementInputs)

	result := &models.GroupBalance{
		GroupID:            groupID,
		BalancesByCurrency: toMemberBalances(net),
		SimplifiedDebts:    calculator.Simplify(net),
		UpdatedAt:          time.Now().Unix(),
	}
	if err := st.SaveGroupBalance(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// toMemberBalances converts raw net positions into the cache shape,
// with members sorted by ID so repeated recomputes serialize identically.
func toMemberBalances(net map[string]map[string]int64) map[string][]models.MemberBalance {
	out := make(map[string][]models.MemberBalance, len(net))
	for currency, byMember := range net {
		ids := make([]string, 0, len(byMember))
		for id := range byMember {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		list := make([]models.MemberBalance, len(ids))
		for i, id := range ids {
			list[i] = models.MemberBalance{
				MemberID: id,
				Net:      money.New(byMember[id], currency),
			}
		}
		out[currency] = list
	}
	return out
}
