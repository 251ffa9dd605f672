// Package adapter provides implementations of interfaces other domains
// define for account data. The auth domain owns the users table; consumers
// declare what they need in their own ports packages and this package
// satisfies those contracts.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/agents/ports"
	"bridge_backend/internal/auth/repository"
)

// UserProviderAdapter implements agents/ports.UserProvider using the auth
// repository.
type UserProviderAdapter struct {
	repo repository.Repository
}

// NewUserProviderAdapter creates an adapter for providing account info to
// other domains.
func NewUserProviderAdapter(repo repository.Repository) *UserProviderAdapter {
	return &UserProviderAdapter{repo: repo}
}

// GetUserByID implements ports.UserProvider.
func (a *UserProviderAdapter) GetUserByID(ctx context.Context, userID uuid.UUID) (ports.UserInfo, error) {
	user, err := a.repo.GetUserByID(ctx, userID)
	if err != nil {
		return ports.UserInfo{}, err
	}
	return toUserInfo(user), nil
}

// GetUsersByIDs implements ports.UserProvider.
func (a *UserProviderAdapter) GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]ports.UserInfo, error) {
	users, err := a.repo.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]ports.UserInfo, len(users))
	for _, u := range users {
		out[u.ID] = toUserInfo(u)
	}
	return out, nil
}

func toUserInfo(user repository.User) ports.UserInfo {
	return ports.UserInfo{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		IsActive:    user.IsActive,
	}
}

// Ensure UserProviderAdapter implements ports.UserProvider
var _ ports.UserProvider = (*UserProviderAdapter)(nil)

// RoleGranterAdapter implements agents/ports.RoleGranter using the auth
// repository.
type RoleGranterAdapter struct {
	repo repository.Repository
}

// NewRoleGranterAdapter creates an adapter for granting roles from other
// domains.
func NewRoleGranterAdapter(repo repository.Repository) *RoleGranterAdapter {
	return &RoleGranterAdapter{repo: repo}
}

// GrantRole implements ports.RoleGranter.
func (a *RoleGranterAdapter) GrantRole(ctx context.Context, userID uuid.UUID, role string) error {
	return a.repo.GrantRole(ctx, userID, role)
}

// Ensure RoleGranterAdapter implements ports.RoleGranter
var _ ports.RoleGranter = (*RoleGranterAdapter)(nil)
