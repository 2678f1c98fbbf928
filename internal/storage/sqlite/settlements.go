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

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = now
	}
	if settlement.UpdatedAt == 0 {
		settlement.UpdatedAt = now
	}

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err := s.q.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount_units, currency, note, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.Units, settlement.Amount.Currency, note,
		settlement.CreatedBy, settlement.CreatedAt, settlement.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

func scanSettlement(scan func(dest ...any) error) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var units int64
	var currency string
	var note sql.NullString

	err := scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID, &settlement.ToUserID,
		&units, &currency, &note, &settlement.CreatedBy, &settlement.CreatedAt, &settlement.UpdatedAt)
	if err != nil {
		return nil, err
	}

	settlement.Amount = money.New(units, currency)
	if note.Valid {
		settlement.Note = note.String
	}
	return settlement, nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount_units, currency, note, created_by, created_at, updated_at
		 FROM settlements WHERE id = ?`,
		settlementID,
	)

	settlement, err := scanSettlement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// UpdateSettlement overwrites a settlement's payer, payee, amount, and note.
func (s *SQLiteStore) UpdateSettlement(ctx context.Context, settlement *models.Settlement) error {
	settlement.UpdatedAt = time.Now().Unix()

	var note any
	if settlement.Note != "" {
		note = settlement.Note
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE settlements
		 SET from_user_id = ?, to_user_id = ?, amount_units = ?, currency = ?, note = ?, updated_at = ?
		 WHERE id = ?`,
		settlement.FromUserID, settlement.ToUserID, settlement.Amount.Units, settlement.Amount.Currency,
		note, settlement.UpdatedAt, settlement.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("settlement %s: %w", settlement.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteSettlement removes a settlement by ID.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, settlementID string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM settlements WHERE id = ?", settlementID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount_units, currency, note, created_by, created_at, updated_at
		 FROM settlements WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
