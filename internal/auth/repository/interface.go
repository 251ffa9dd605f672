package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents an account row provisioned from the identity provider.
type User struct {
	ID          uuid.UUID  `db:"id"`
	Subject     string     `db:"subject"`
	Email       string     `db:"email"`
	DisplayName string     `db:"display_name"`
	IsActive    bool       `db:"is_active"`
	LastSeenAt  *time.Time `db:"last_seen_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// UserWithRoles bundles a user with their assigned role names.
type UserWithRoles struct {
	User
	Roles []string
}

// CreateUserParams contains data for provisioning a new user.
type CreateUserParams struct {
	Subject     string
	Email       string
	DisplayName string
	InitialRole string
}

// UpdateProfileParams contains the mutable profile fields.
type UpdateProfileParams struct {
	UserID      uuid.UUID
	Email       *string
	DisplayName *string
}

// ListUsersParams defines filters for the admin user listing.
type ListUsersParams struct {
	Role   string
	Offset int
	Limit  int
}

// Repository defines account storage operations.
type Repository interface {
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	GetUserBySubject(ctx context.Context, subject string) (User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (User, error)
	GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) ([]User, error)
	TouchLastSeen(ctx context.Context, userID uuid.UUID) error
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (User, error)
	SetActive(ctx context.Context, userID uuid.UUID, active bool) error
	ListUsers(ctx context.Context, params ListUsersParams) ([]UserWithRoles, int, error)

	GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetUserRoles(ctx context.Context, userID uuid.UUID, roles []string) error
	GrantRole(ctx context.Context, userID uuid.UUID, role string) error
}

// Ensure Repo implements Repository.
var _ Repository = (*Repo)(nil)
