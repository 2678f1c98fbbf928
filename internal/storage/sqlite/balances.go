package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/storage"
)

// SaveGroupBalance upserts the materialized balance cache for a group.
// An insert starts at version 1; every overwrite bumps the version. The
// stored version and timestamp are written back into balance.
func (s *SQLiteStore) SaveGroupBalance(ctx context.Context, balance *models.GroupBalance) error {
	if balance.UpdatedAt == 0 {
		balance.UpdatedAt = time.Now().Unix()
	}

	balances := balance.BalancesByCurrency
	if balances == nil {
		balances = map[string][]models.MemberBalance{}
	}
	balancesJSON, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("failed to marshal balances: %w", err)
	}

	debts := balance.SimplifiedDebts
	if debts == nil {
		debts = []models.SimplifiedDebt{}
	}
	debtsJSON, err := json.Marshal(debts)
	if err != nil {
		return fmt.Errorf("failed to marshal simplified debts: %w", err)
	}

	err = s.q.QueryRowContext(ctx,
		`INSERT INTO group_balances (group_id, balances, simplified_debts, version, updated_at)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(group_id) DO UPDATE SET
		   balances = excluded.balances,
		   simplified_debts = excluded.simplified_debts,
		   version = group_balances.version + 1,
		   updated_at = excluded.updated_at
		 RETURNING version`,
		balance.GroupID, string(balancesJSON), string(debtsJSON), balance.UpdatedAt,
	).Scan(&balance.Version)
	if err != nil {
		return fmt.Errorf("failed to save group balance: %w", err)
	}
	return nil
}

// GetGroupBalance retrieves the materialized balance cache for a group.
func (s *SQLiteStore) GetGroupBalance(ctx context.Context, groupID string) (*models.GroupBalance, error) {
	balance := &models.GroupBalance{GroupID: groupID}
	var balancesJSON, debtsJSON string

	err := s.q.QueryRowContext(ctx,
		"SELECT balances, simplified_debts, version, updated_at FROM group_balances WHERE group_id = ?",
		groupID,
	).Scan(&balancesJSON, &debtsJSON, &balance.Version, &balance.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("balance for group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group balance: %w", err)
	}

	if err := json.Unmarshal([]byte(balancesJSON), &balance.BalancesByCurrency); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances: %w", err)
	}
	if err := json.Unmarshal([]byte(debtsJSON), &balance.SimplifiedDebts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simplified debts: %w", err)
	}
	return balance, nil
}
