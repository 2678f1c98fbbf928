package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/divvyapp/divvy/internal/balance"
	"github.com/divvyapp/divvy/internal/calculator"
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/storage"
)

// ExpenseService manages expenses. Every mutation recomputes the
// group's materialized balance within the same transaction.
type ExpenseService struct {
	store        storage.Store
	materializer *balance.Materializer
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, materializer *balance.Materializer) *ExpenseService {
	return &ExpenseService{store: store, materializer: materializer}
}

// ExpenseInput carries the caller-supplied fields of an expense
// create or update.
type ExpenseInput struct {
	GroupID      string
	PayerID      string
	Description  string
	Amount       money.Amount
	Strategy     models.SplitStrategy
	Participants []calculator.ShareInput
}

// validate checks membership of everyone involved and computes the
// shares. Nothing is persisted if any check fails.
func (s *ExpenseService) validate(ctx context.Context, callerID string, in ExpenseInput) ([]models.Share, error) {
	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	if !group.HasMember(in.PayerID) {
		return nil, fmt.Errorf("%w: payer %s is not a group member", ErrInvalidInput, in.PayerID)
	}
	for _, p := range in.Participants {
		if !group.HasMember(p.MemberID) {
			return nil, fmt.Errorf("%w: participant %s is not a group member", ErrInvalidInput, p.MemberID)
		}
	}

	shares, err := calculator.ComputeSplits(in.Amount, in.Strategy, in.Participants)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return shares, nil
}

// CreateExpense validates, persists, and recomputes the group balance
// in one transaction. The fresh balance is returned alongside the
// expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, callerID string, in ExpenseInput) (*models.Expense, *models.GroupBalance, error) {
	shares, err := s.validate(ctx, callerID, in)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		GroupID:     in.GroupID,
		PayerID:     in.PayerID,
		Description: in.Description,
		Amount:      in.Amount,
		Strategy:    in.Strategy,
		Shares:      shares,
		CreatedBy:   callerID,
	}

	bal, err := s.materializer.Mutate(ctx, in.GroupID, func(st storage.Store) error {
		return st.CreateExpense(ctx, expense)
	})
	if err != nil {
		slog.Error("CreateExpense failed", "group_id", in.GroupID, "error", err)
		return nil, nil, err
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", in.GroupID, "amount", expense.Amount)
	return expense, bal, nil
}

// GetExpense retrieves an expense visible to the caller.
func (s *ExpenseService) GetExpense(ctx context.Context, callerID, expenseID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, expense.GroupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return expense, nil
}

// UpdateExpense overwrites an expense's payer, description, amount, and
// split, then recomputes the group balance in the same transaction.
func (s *ExpenseService) UpdateExpense(ctx context.Context, callerID, expenseID string, in ExpenseInput) (*models.Expense, *models.GroupBalance, error) {
	existing, err := s.GetExpense(ctx, callerID, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if existing.Deleted() {
		return nil, nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	// Expenses cannot move between groups.
	in.GroupID = existing.GroupID
	shares, err := s.validate(ctx, callerID, in)
	if err != nil {
		return nil, nil, err
	}

	existing.PayerID = in.PayerID
	existing.Description = in.Description
	existing.Amount = in.Amount
	existing.Strategy = in.Strategy
	existing.Shares = shares

	bal, err := s.materializer.Mutate(ctx, existing.GroupID, func(st storage.Store) error {
		return st.UpdateExpense(ctx, existing)
	})
	if err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, nil, err
	}

	slog.Info("Expense updated", "expense_id", expenseID, "group_id", existing.GroupID)
	return existing, bal, nil
}

// DeleteExpense soft-deletes an expense and recomputes the group
// balance in the same transaction.
func (s *ExpenseService) DeleteExpense(ctx context.Context, callerID, expenseID string) (*models.GroupBalance, error) {
	expense, err := s.GetExpense(ctx, callerID, expenseID)
	if err != nil {
		return nil, err
	}

	bal, err := s.materializer.Mutate(ctx, expense.GroupID, func(st storage.Store) error {
		return st.SoftDeleteExpense(ctx, expenseID)
	})
	if err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return nil, err
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", expense.GroupID)
	return bal, nil
}

// ListExpenses retrieves a group's live expenses for a member.
func (s *ExpenseService) ListExpenses(ctx context.Context, callerID, groupID string) ([]*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return s.store.ListExpensesByGroup(ctx, groupID, false)
}
