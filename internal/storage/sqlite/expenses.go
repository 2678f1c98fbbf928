package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/storage"
)

// CreateExpense persists a new expense and its shares.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	if expense.UpdatedAt == 0 {
		expense.UpdatedAt = now
	}

	return s.Atomic(ctx, func(st storage.Store) error {
		inner := st.(*SQLiteStore)
		_, err := inner.q.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, payer_id, description, amount_units, currency, strategy, created_by, created_at, updated_at, deleted_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PayerID, expense.Description,
			expense.Amount.Units, expense.Amount.Currency, string(expense.Strategy),
			expense.CreatedBy, expense.CreatedAt, expense.UpdatedAt, expense.DeletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}
		return inner.insertShares(ctx, expense.ID, expense.Shares)
	})
}

func (s *SQLiteStore) insertShares(ctx context.Context, expenseID string, shares []models.Share) error {
	for _, share := range shares {
		_, err := s.q.ExecContext(ctx,
			"INSERT INTO expense_shares (expense_id, member_id, amount_units) VALUES (?, ?, ?)",
			expenseID, share.MemberID, share.Amount.Units,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense share: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its shares.
// Soft-deleted expenses are returned with DeletedAt set.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var units int64
	var currency, strategy string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, description, amount_units, currency, strategy, created_by, created_at, updated_at, deleted_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Description,
		&units, &currency, &strategy, &expense.CreatedBy,
		&expense.CreatedAt, &expense.UpdatedAt, &expense.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Amount = money.New(units, currency)
	expense.Strategy = models.SplitStrategy(strategy)

	expense.Shares, err = s.getShares(ctx, expenseID, currency)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *SQLiteStore) getShares(ctx context.Context, expenseID, currency string) ([]models.Share, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT member_id, amount_units FROM expense_shares WHERE expense_id = ? ORDER BY member_id",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense shares: %w", err)
	}
	defer rows.Close()

	var shares []models.Share
	for rows.Next() {
		var memberID string
		var units int64
		if err := rows.Scan(&memberID, &units); err != nil {
			return nil, fmt.Errorf("failed to scan expense share: %w", err)
		}
		shares = append(shares, models.Share{MemberID: memberID, Amount: money.New(units, currency)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expense shares: %w", err)
	}
	return shares, nil
}

// UpdateExpense overwrites an expense and replaces its shares.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	return s.Atomic(ctx, func(st storage.Store) error {
		inner := st.(*SQLiteStore)

		res, err := inner.q.ExecContext(ctx,
			`UPDATE expenses
			 SET payer_id = ?, description = ?, amount_units = ?, currency = ?, strategy = ?, updated_at = ?
			 WHERE id = ? AND deleted_at = 0`,
			expense.PayerID, expense.Description, expense.Amount.Units, expense.Amount.Currency,
			string(expense.Strategy), expense.UpdatedAt, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		if _, err := inner.q.ExecContext(ctx,
			"DELETE FROM expense_shares WHERE expense_id = ?", expense.ID,
		); err != nil {
			return fmt.Errorf("failed to clear expense shares: %w", err)
		}
		return inner.insertShares(ctx, expense.ID, expense.Shares)
	})
}

// SoftDeleteExpense marks an expense deleted. Deleting an already
// deleted expense is a no-op.
func (s *SQLiteStore) SoftDeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.q.ExecContext(ctx,
		"UPDATE expenses SET deleted_at = ? WHERE id = ? AND deleted_at = 0",
		time.Now().Unix(), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to soft-delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Either missing or already deleted; only the former is an error.
		var exists int
		err := s.q.QueryRowContext(ctx, "SELECT 1 FROM expenses WHERE id = ?", expenseID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check expense existence: %w", err)
		}
	}
	return nil
}

// ListExpensesByGroup retrieves a group's expenses, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	query := "SELECT id FROM expenses WHERE group_id = ?"
	if !includeDeleted {
		query += " AND deleted_at = 0"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}
