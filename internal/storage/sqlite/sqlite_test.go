package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test User", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func createTestGroup(t *testing.T, store *SQLiteStore, members ...string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Trip", Members: members, CreatedBy: members[0]}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateUser and lookups", func(t *testing.T) {
		user := createTestUser(t, store, "alice@example.com")

		byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if byEmail.ID != user.ID {
			t.Errorf("Expected user ID %s, got %s", user.ID, byEmail.ID)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if byID.Email != "alice@example.com" {
			t.Errorf("Expected email alice@example.com, got %s", byID.Email)
		}

		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		createTestUser(t, store, "dup@example.com")
		dup := models.NewUser("dup@example.com", "Other", "hash")
		if err := store.CreateUser(ctx, dup); err == nil {
			t.Error("Expected duplicate email to fail")
		}
	})

	t.Run("Group CRUD", func(t *testing.T) {
		u1 := createTestUser(t, store, "g1@example.com")
		u2 := createTestUser(t, store, "g2@example.com")
		group := createTestGroup(t, store, u1.ID, u2.ID)

		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 {
			t.Fatalf("Expected 2 members, got %d", len(got.Members))
		}

		got.Name = "Renamed"
		got.Members = []string{u1.ID}
		if err := store.UpdateGroup(ctx, got); err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}
		updated, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup after update failed: %v", err)
		}
		if updated.Name != "Renamed" {
			t.Errorf("Expected name Renamed, got %s", updated.Name)
		}
		if len(updated.Members) != 1 {
			t.Errorf("Expected 1 member after update, got %d", len(updated.Members))
		}

		if err := store.AddGroupMembers(ctx, group.ID, []string{u2.ID, u2.ID}); err != nil {
			t.Fatalf("AddGroupMembers failed: %v", err)
		}
		withMember, _ := store.GetGroup(ctx, group.ID)
		if len(withMember.Members) != 2 {
			t.Errorf("Expected 2 members after add, got %d", len(withMember.Members))
		}

		groups, err := store.ListGroupsByMember(ctx, u1.ID)
		if err != nil {
			t.Fatalf("ListGroupsByMember failed: %v", err)
		}
		if len(groups) != 1 {
			t.Errorf("Expected 1 group for member, got %d", len(groups))
		}
	})

	t.Run("Expense CRUD and soft delete", func(t *testing.T) {
		u1 := createTestUser(t, store, "e1@example.com")
		u2 := createTestUser(t, store, "e2@example.com")
		group := createTestGroup(t, store, u1.ID, u2.ID)

		expense := &models.Expense{
			GroupID:     group.ID,
			PayerID:     u1.ID,
			Description: "Dinner",
			Amount:      money.New(5000, "USD"),
			Strategy:    models.SplitEqual,
			Shares: []models.Share{
				{MemberID: u1.ID, Amount: money.New(2500, "USD")},
				{MemberID: u2.ID, Amount: money.New(2500, "USD")},
			},
			CreatedBy: u1.ID,
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount.Units != 5000 || got.Amount.Currency != "USD" {
			t.Errorf("Expected 5000 USD, got %d %s", got.Amount.Units, got.Amount.Currency)
		}
		if len(got.Shares) != 2 {
			t.Fatalf("Expected 2 shares, got %d", len(got.Shares))
		}

		got.Description = "Brunch"
		got.Shares = []models.Share{
			{MemberID: u1.ID, Amount: money.New(1000, "USD")},
			{MemberID: u2.ID, Amount: money.New(4000, "USD")},
		}
		if err := store.UpdateExpense(ctx, got); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		updated, _ := store.GetExpense(ctx, expense.ID)
		if updated.Description != "Brunch" {
			t.Errorf("Expected description Brunch, got %s", updated.Description)
		}

		if err := store.SoftDeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("SoftDeleteExpense failed: %v", err)
		}
		deleted, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense after soft delete failed: %v", err)
		}
		if !deleted.Deleted() {
			t.Error("Expected expense to be marked deleted")
		}

		// Soft-deleting again is a no-op, not an error.
		if err := store.SoftDeleteExpense(ctx, expense.ID); err != nil {
			t.Errorf("Repeated SoftDeleteExpense failed: %v", err)
		}
		if err := store.SoftDeleteExpense(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing expense, got %v", err)
		}

		// Updating a soft-deleted expense fails.
		if err := store.UpdateExpense(ctx, deleted); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound updating deleted expense, got %v", err)
		}

		live, err := store.ListExpensesByGroup(ctx, group.ID, false)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(live) != 0 {
			t.Errorf("Expected 0 live expenses, got %d", len(live))
		}
		all, _ := store.ListExpensesByGroup(ctx, group.ID, true)
		if len(all) != 1 {
			t.Errorf("Expected 1 expense including deleted, got %d", len(all))
		}
	})

	t.Run("Settlement CRUD", func(t *testing.T) {
		u1 := createTestUser(t, store, "s1@example.com")
		u2 := createTestUser(t, store, "s2@example.com")
		group := createTestGroup(t, store, u1.ID, u2.ID)

		settlement := &models.Settlement{
			GroupID:    group.ID,
			FromUserID: u2.ID,
			ToUserID:   u1.ID,
			Amount:     money.New(2500, "USD"),
			CreatedBy:  u2.ID,
		}
		if err := store.CreateSettlement(ctx, settlement); err != nil {
			t.Fatalf("CreateSettlement failed: %v", err)
		}

		got, err := store.GetSettlement(ctx, settlement.ID)
		if err != nil {
			t.Fatalf("GetSettlement failed: %v", err)
		}
		if got.Note != "" {
			t.Errorf("Expected empty note, got %q", got.Note)
		}

		got.Note = "venmo"
		got.Amount = money.New(3000, "USD")
		if err := store.UpdateSettlement(ctx, got); err != nil {
			t.Fatalf("UpdateSettlement failed: %v", err)
		}
		updated, _ := store.GetSettlement(ctx, settlement.ID)
		if updated.Note != "venmo" || updated.Amount.Units != 3000 {
			t.Errorf("Expected updated settlement, got note=%q units=%d", updated.Note, updated.Amount.Units)
		}

		list, err := store.ListSettlementsByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListSettlementsByGroup failed: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("Expected 1 settlement, got %d", len(list))
		}

		if err := store.DeleteSettlement(ctx, settlement.ID); err != nil {
			t.Fatalf("DeleteSettlement failed: %v", err)
		}
		if _, err := store.GetSettlement(ctx, settlement.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("SaveGroupBalance bumps version", func(t *testing.T) {
		u1 := createTestUser(t, store, "b1@example.com")
		group := createTestGroup(t, store, u1.ID)

		balance := &models.GroupBalance{GroupID: group.ID}
		if err := store.SaveGroupBalance(ctx, balance); err != nil {
			t.Fatalf("SaveGroupBalance failed: %v", err)
		}
		if balance.Version != 1 {
			t.Errorf("Expected version 1 on insert, got %d", balance.Version)
		}

		balance.BalancesByCurrency = map[string][]models.MemberBalance{
			"USD": {{MemberID: u1.ID, Net: money.New(100, "USD")}},
		}
		if err := store.SaveGroupBalance(ctx, balance); err != nil {
			t.Fatalf("SaveGroupBalance overwrite failed: %v", err)
		}
		if balance.Version != 2 {
			t.Errorf("Expected version 2 on overwrite, got %d", balance.Version)
		}

		got, err := store.GetGroupBalance(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroupBalance failed: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("Expected stored version 2, got %d", got.Version)
		}
		if len(got.BalancesByCurrency["USD"]) != 1 {
			t.Errorf("Expected 1 USD balance entry, got %d", len(got.BalancesByCurrency["USD"]))
		}

		if _, err := store.GetGroupBalance(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound for missing balance, got %v", err)
		}
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		u1 := createTestUser(t, store, "c1@example.com")
		u2 := createTestUser(t, store, "c2@example.com")
		group := createTestGroup(t, store, u1.ID, u2.ID)

		expense := &models.Expense{
			GroupID: group.ID, PayerID: u1.ID, Description: "Taxi",
			Amount: money.New(1000, "USD"), Strategy: models.SplitEqual,
			Shares: []models.Share{
				{MemberID: u1.ID, Amount: money.New(500, "USD")},
				{MemberID: u2.ID, Amount: money.New(500, "USD")},
			},
			CreatedBy: u1.ID,
		}
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		settlement := &models.Settlement{
			GroupID: group.ID, FromUserID: u2.ID, ToUserID: u1.ID,
			Amount: money.New(500, "USD"), CreatedBy: u2.ID,
		}
		if err := store.CreateSettlement(ctx, settlement); err != nil {
			t.Fatalf("CreateSettlement failed: %v", err)
		}
		if err := store.SaveGroupBalance(ctx, &models.GroupBalance{GroupID: group.ID}); err != nil {
			t.Fatalf("SaveGroupBalance failed: %v", err)
		}

		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected group gone, got %v", err)
		}
		if _, err := store.GetExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected expense gone, got %v", err)
		}
		if _, err := store.GetSettlement(ctx, settlement.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected settlement gone, got %v", err)
		}
		if _, err := store.GetGroupBalance(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected balance gone, got %v", err)
		}
	})
}

func TestAtomicRollback(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u1 := createTestUser(t, store, "tx@example.com")
	boom := errors.New("boom")

	err := store.Atomic(ctx, func(st storage.Store) error {
		group := &models.Group{Name: "Doomed", Members: []string{u1.ID}, CreatedBy: u1.ID}
		if err := st.CreateGroup(ctx, group); err != nil {
			return err
		}
		// Visible inside the transaction.
		if _, err := st.GetGroup(ctx, group.ID); err != nil {
			return fmt.Errorf("group not visible in tx: %w", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	groups, err := store.ListGroupsByMember(ctx, u1.ID)
	if err != nil {
		t.Fatalf("ListGroupsByMember failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("Expected rollback to discard group, got %d groups", len(groups))
	}
}

func TestAtomicNestedJoinsTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	u1 := createTestUser(t, store, "nested@example.com")
	boom := errors.New("boom")

	var groupID string
	err := store.Atomic(ctx, func(st storage.Store) error {
		return st.Atomic(ctx, func(inner storage.Store) error {
			group := &models.Group{Name: "Nested", Members: []string{u1.ID}, CreatedBy: u1.ID}
			if err := inner.CreateGroup(ctx, group); err != nil {
				return err
			}
			groupID = group.ID
			return boom
		})
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}
	if _, err := store.GetGroup(ctx, groupID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected nested work rolled back, got %v", err)
	}
}
