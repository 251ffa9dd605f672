// Package service implements account provisioning and profile management
// on top of externally verified identities.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bridge_backend/internal/auth/repository"
	"bridge_backend/internal/auth/transport"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

// lastSeenWriteInterval throttles last_seen_at writes so every request
// does not turn into an update.
const lastSeenWriteInterval = 5 * time.Minute

// AgentLookup resolves the agent profile belonging to a user, if any.
// The agents module provides the implementation; it is injected after
// construction to keep the module dependency graph acyclic.
type AgentLookup interface {
	AgentIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
}

// AuthenticatedUser is the request-scoped account resolved from a
// verified identity token.
type AuthenticatedUser struct {
	ID          uuid.UUID
	Subject     string
	Email       string
	DisplayName string
	Roles       []string
	AgentID     *uuid.UUID
}

// Service provides account provisioning and profile operations.
type Service struct {
	repo        repository.Repository
	bus         events.Bus
	log         *logger.Logger
	agentLookup AgentLookup
}

// New creates a new auth service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetAgentLookup wires the agents module in after construction.
func (s *Service) SetAgentLookup(lookup AgentLookup) {
	s.agentLookup = lookup
}

// EnsureUser resolves a verified external identity to a local account,
// provisioning one on first sight. New accounts land in the new_user role,
// which grants nothing until an admin promotes them. Deactivated accounts
// are rejected here so a disabled user cannot reach any handler.
func (s *Service) EnsureUser(ctx context.Context, ident verifier.ExternalIdentity) (AuthenticatedUser, error) {
	user, err := s.repo.GetUserBySubject(ctx, ident.Subject)
	switch {
	case err == nil:
	case apperr.Is(err, apperr.KindNotFound):
		user, err = s.provision(ctx, ident)
		if err != nil {
			return AuthenticatedUser{}, err
		}
	default:
		return AuthenticatedUser{}, err
	}

	if !user.IsActive {
		s.log.AuthEvent("access_denied", user.Email, false, "account deactivated")
		return AuthenticatedUser{}, apperr.Forbidden("account is deactivated")
	}

	if user.LastSeenAt == nil || time.Since(*user.LastSeenAt) >= lastSeenWriteInterval {
		if err := s.repo.TouchLastSeen(ctx, user.ID); err != nil {
			s.log.DatabaseError("touch last seen", err)
		}
	}

	roles, err := s.repo.GetUserRoles(ctx, user.ID)
	if err != nil {
		return AuthenticatedUser{}, err
	}

	auth := AuthenticatedUser{
		ID:          user.ID,
		Subject:     user.Subject,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       roles,
	}

	if s.agentLookup != nil {
		agentID, err := s.agentLookup.AgentIDForUser(ctx, user.ID)
		if err != nil {
			// Losing the agent scope only narrows access, never widens it.
			s.log.Warn("agent lookup failed", "user_id", user.ID, "error", err)
		} else {
			auth.AgentID = agentID
		}
	}

	return auth, nil
}

// provision creates the account for a first-seen identity. A concurrent
// provision of the same subject loses the insert race and re-reads the
// winner's row.
func (s *Service) provision(ctx context.Context, ident verifier.ExternalIdentity) (repository.User, error) {
	user, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		Subject:     ident.Subject,
		Email:       ident.Email,
		DisplayName: ident.Name,
		InitialRole: authz.RoleNewUser,
	})
	if apperr.Is(err, apperr.KindConflict) {
		return s.repo.GetUserBySubject(ctx, ident.Subject)
	}
	if err != nil {
		return repository.User{}, err
	}

	s.log.AuthEvent("user_provisioned", user.Email, true, "")
	s.bus.Publish(ctx, events.UserProvisioned{
		BaseEvent: events.NewBaseEvent(),
		UserID:    user.ID,
		Subject:   user.Subject,
		Email:     user.Email,
	})
	return user, nil
}

// GetProfile returns the profile of a user.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return toProfileResponse(user, roles), nil
}

// SyncProfile refreshes the local profile from the claims of the current
// token. Called by the client after the user edits their details at the
// identity provider.
func (s *Service) SyncProfile(ctx context.Context, userID uuid.UUID, ident verifier.ExternalIdentity) (transport.ProfileResponse, error) {
	params := repository.UpdateProfileParams{UserID: userID}
	if ident.Email != "" {
		params.Email = &ident.Email
	}
	if ident.Name != "" {
		params.DisplayName = &ident.Name
	}

	user, err := s.repo.UpdateProfile(ctx, params)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	roles, err := s.repo.GetUserRoles(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return toProfileResponse(user, roles), nil
}

// ListUsers returns a page of users for the admin console.
func (s *Service) ListUsers(ctx context.Context, req transport.ListUsersRequest) (transport.UserListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	users, total, err := s.repo.ListUsers(ctx, repository.ListUsersParams{
		Role:   req.Role,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return transport.UserListResponse{}, err
	}

	items := make([]transport.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u))
	}
	return transport.UserListResponse{
		Users:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// SetUserRoles replaces a user's roles. Role names outside the known set
// are rejected before anything is written.
func (s *Service) SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error {
	known := authz.DefaultGrants()
	for _, role := range roles {
		if _, ok := known[role]; !ok {
			return apperr.Validation("unknown role: " + role)
		}
	}

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetUserRoles(ctx, userID, roles); err != nil {
		return err
	}
	s.log.Info("user roles updated", "user_id", userID, "roles", roles)
	return nil
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	return s.repo.SetActive(ctx, userID, active)
}

func toProfileResponse(user repository.User, roles []string) transport.ProfileResponse {
	return transport.ProfileResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       roles,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
	}
}

func toUserResponse(user repository.UserWithRoles) transport.UserResponse {
	return transport.UserResponse{
		ID:          user.ID,
		Subject:     user.Subject,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Roles:       user.Roles,
		IsActive:    user.IsActive,
		LastSeenAt:  user.LastSeenAt,
		CreatedAt:   user.CreatedAt,
	}
}
