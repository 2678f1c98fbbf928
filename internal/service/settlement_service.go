package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/divvyapp/divvy/internal/balance"
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/money"
	"github.com/divvyapp/divvy/internal/storage"
)

// SettlementService manages settlements. Like expenses, every mutation
// recomputes the group's materialized balance in the same transaction.
type SettlementService struct {
	store        storage.Store
	materializer *balance.Materializer
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, materializer *balance.Materializer) *SettlementService {
	return &SettlementService{store: store, materializer: materializer}
}

// SettlementInput carries the caller-supplied fields of a settlement
// create or update.
type SettlementInput struct {
	GroupID    string
	FromUserID string
	ToUserID   string
	Amount     money.Amount
	Note       string
}

func (s *SettlementService) validate(ctx context.Context, callerID string, in SettlementInput) error {
	group, err := s.store.GetGroup(ctx, in.GroupID)
	if err != nil {
		return err
	}
	if !group.HasMember(callerID) {
		return fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	if !group.HasMember(in.FromUserID) || !group.HasMember(in.ToUserID) {
		return fmt.Errorf("%w: both parties must be group members", ErrInvalidInput)
	}
	if in.FromUserID == in.ToUserID {
		return fmt.Errorf("%w: a settlement needs two distinct members", ErrInvalidInput)
	}
	if in.Amount.Units <= 0 {
		return fmt.Errorf("%w: settlement amount must be positive", ErrInvalidInput)
	}
	return nil
}

// CreateSettlement records a payment between two members and recomputes
// the group balance in one transaction.
func (s *SettlementService) CreateSettlement(ctx context.Context, callerID string, in SettlementInput) (*models.Settlement, *models.GroupBalance, error) {
	if err := s.validate(ctx, callerID, in); err != nil {
		return nil, nil, err
	}

	settlement := &models.Settlement{
		GroupID:    in.GroupID,
		FromUserID: in.FromUserID,
		ToUserID:   in.ToUserID,
		Amount:     in.Amount,
		Note:       in.Note,
		CreatedBy:  callerID,
	}

	bal, err := s.materializer.Mutate(ctx, in.GroupID, func(st storage.Store) error {
		return st.CreateSettlement(ctx, settlement)
	})
	if err != nil {
		slog.Error("CreateSettlement failed", "group_id", in.GroupID, "error", err)
		return nil, nil, err
	}

	slog.Info("Settlement recorded", "settlement_id", settlement.ID, "group_id", in.GroupID, "amount", settlement.Amount)
	return settlement, bal, nil
}

// mutableSettlement fetches a settlement and checks the caller may
// change it: only the payer, payee, or recorder can.
func (s *SettlementService) mutableSettlement(ctx context.Context, callerID, settlementID string) (*models.Settlement, error) {
	settlement, err := s.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}
	if !settlement.CanMutate(callerID) {
		return nil, fmt.Errorf("%w: only the payer, payee, or recorder may change a settlement", ErrPermissionDenied)
	}
	return settlement, nil
}

// UpdateSettlement edits a settlement and recomputes the group balance
// in one transaction.
func (s *SettlementService) UpdateSettlement(ctx context.Context, callerID, settlementID string, in SettlementInput) (*models.Settlement, *models.GroupBalance, error) {
	existing, err := s.mutableSettlement(ctx, callerID, settlementID)
	if err != nil {
		return nil, nil, err
	}

	// Settlements cannot move between groups.
	in.GroupID = existing.GroupID
	if err := s.validate(ctx, callerID, in); err != nil {
		return nil, nil, err
	}

	existing.FromUserID = in.FromUserID
	existing.ToUserID = in.ToUserID
	existing.Amount = in.Amount
	existing.Note = in.Note

	bal, err := s.materializer.Mutate(ctx, existing.GroupID, func(st storage.Store) error {
		return st.UpdateSettlement(ctx, existing)
	})
	if err != nil {
		slog.Error("UpdateSettlement failed", "settlement_id", settlementID, "error", err)
		return nil, nil, err
	}

	slog.Info("Settlement updated", "settlement_id", settlementID)
	return existing, bal, nil
}

// DeleteSettlement removes a settlement and recomputes the group
// balance in one transaction.
func (s *SettlementService) DeleteSettlement(ctx context.Context, callerID, settlementID string) (*models.GroupBalance, error) {
	settlement, err := s.mutableSettlement(ctx, callerID, settlementID)
	if err != nil {
		return nil, err
	}

	bal, err := s.materializer.Mutate(ctx, settlement.GroupID, func(st storage.Store) error {
		return st.DeleteSettlement(ctx, settlementID)
	})
	if err != nil {
		slog.Error("DeleteSettlement failed", "settlement_id", settlementID, "error", err)
		return nil, err
	}

	slog.Info("Settlement deleted", "settlement_id", settlementID)
	return bal, nil
}

// ListSettlements retrieves a group's settlements for a member.
func (s *SettlementService) ListSettlements(ctx context.Context, callerID, groupID string) ([]*models.Settlement, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return s.store.ListSettlementsByGroup(ctx, groupID)
}
