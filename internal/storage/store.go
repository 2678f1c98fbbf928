// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/divvyapp/divvy/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict wraps transient write conflicts (e.g. a locked database).
// Operations failing with ErrConflict are safe to retry.
var ErrConflict = errors.New("transient conflict")

// Store defines the interface for persistence operations. The
// implementation may be swapped (SQLite, PostgreSQL, ...) without
// changing the service layer.
type Store interface {
	// Atomic runs fn against a transaction-scoped Store. Every call made
	// through the inner Store sees a consistent snapshot and commits or
	// rolls back as a unit. Nested calls join the enclosing transaction.
	Atomic(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListGroupsByMember(ctx context.Context, memberID string) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes the group and cascades to its expenses,
	// settlements, members, and balance cache.
	DeleteGroup(ctx context.Context, groupID string) error
	AddGroupMembers(ctx context.Context, groupID string, memberIDs []string) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	// SoftDeleteExpense marks the expense deleted; the row survives
	// until the group is deleted.
	SoftDeleteExpense(ctx context.Context, expenseID string) error
	ListExpensesByGroup(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error)

	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	UpdateSettlement(ctx context.Context, settlement *models.Settlement) error
	DeleteSettlement(ctx context.Context, settlementID string) error
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// SaveGroupBalance upserts the materialized balance cache, bumping
	// the version counter on overwrite.
	SaveGroupBalance(ctx context.Context, balance *models.GroupBalance) error
	GetGroupBalance(ctx context.Context, groupID string) (*models.GroupBalance, error)

	// Close releases any resources held by the store.
	Close() error
}
