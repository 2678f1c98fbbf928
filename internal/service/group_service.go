package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/divvyapp/divvy/internal/balance"
	"github.com/divvyapp/divvy/internal/models"
	"github.com/divvyapp/divvy/internal/storage"
)

// GroupService manages groups and exposes the materialized balance read
// path.
type GroupService struct {
	store        storage.Store
	materializer *balance.Materializer
}

// NewGroupService creates a new GroupService.
func NewGroupService(store storage.Store, materializer *balance.Materializer) *GroupService {
	return &GroupService{store: store, materializer: materializer}
}

// memberGroup fetches the group and verifies the caller belongs to it.
func (s *GroupService) memberGroup(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return group, nil
}

// checkUsersExist verifies every given user ID resolves to an account.
func (s *GroupService) checkUsersExist(ctx context.Context, userIDs []string) error {
	for _, id := range userIDs {
		if _, err := s.store.GetUserByID(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: unknown member %s", ErrInvalidInput, id)
			}
			return err
		}
	}
	return nil
}

// CreateGroup creates a group with the caller as a member and its
// all-zero balance cache in the same transaction.
func (s *GroupService) CreateGroup(ctx context.Context, callerID, name string, memberIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrInvalidInput)
	}

	members := memberIDs
	hasCaller := false
	for _, id := range members {
		if id == callerID {
			hasCaller = true
			break
		}
	}
	if !hasCaller {
		members = append([]string{callerID}, members...)
	}
	if err := s.checkUsersExist(ctx, members); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:      name,
		Members:   members,
		CreatedBy: callerID,
	}
	err := s.store.Atomic(ctx, func(st storage.Store) error {
		if err := st.CreateGroup(ctx, group); err != nil {
			return err
		}
		return s.materializer.Init(ctx, st, group.ID)
	})
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "members_count", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, callerID, groupID string) (*models.Group, error) {
	return s.memberGroup(ctx, callerID, groupID)
}

// ListGroups retrieves all groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, callerID string) ([]*models.Group, error) {
	return s.store.ListGroupsByMember(ctx, callerID)
}

// UpdateGroup renames a group and replaces its member list. The caller
// must be a current member and stays one afterwards.
func (s *GroupService) UpdateGroup(ctx context.Context, callerID, groupID, name string, memberIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: group name required", ErrInvalidInput)
	}
	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return nil, err
	}

	members := memberIDs
	hasCaller := false
	for _, id := range members {
		if id == callerID {
			hasCaller = true
			break
		}
	}
	if !hasCaller {
		members = append([]string{callerID}, members...)
	}
	if err := s.checkUsersExist(ctx, members); err != nil {
		return nil, err
	}

	group.Name = name
	group.Members = members
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", groupID, "error", err)
		return nil, err
	}

	slog.Info("Group updated", "group_id", groupID)
	return s.store.GetGroup(ctx, groupID)
}

// DeleteGroup removes a group and everything it owns: expenses (even
// soft-deleted ones), settlements, memberships, and the balance cache.
func (s *GroupService) DeleteGroup(ctx context.Context, callerID, groupID string) error {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return err
	}
	if err := s.store.DeleteGroup(ctx, groupID); err != nil {
		slog.Error("DeleteGroup failed", "group_id", groupID, "error", err)
		return err
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// GetGroupBalances returns the materialized balance for a group the
// caller belongs to. This is a pure cache read; nothing is recomputed.
func (s *GroupService) GetGroupBalances(ctx context.Context, callerID, groupID string) (*models.GroupBalance, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	return s.materializer.Get(ctx, groupID)
}

// RecomputeGroupBalances forces a rebuild of the cached balance from
// the group's current expenses and settlements.
func (s *GroupService) RecomputeGroupBalances(ctx context.Context, callerID, groupID string) (*models.GroupBalance, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	bal, err := s.materializer.Recompute(ctx, groupID)
	if err != nil {
		slog.Error("Balance recompute failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Balance recomputed", "group_id", groupID, "version", bal.Version)
	return bal, nil
}
