// Package ports defines consumer-driven interfaces the agents domain needs
// from other bounded contexts. The owning domains provide adapters that
// satisfy these interfaces, keeping agents free of cross-module imports.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// UserInfo is the minimal account view the agents domain works with.
type UserInfo struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
	IsActive    bool
}

// UserProvider supplies account details owned by the auth domain.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (UserInfo, error)
	// GetUsersByIDs returns account details for multiple users at once.
	// Unknown IDs are simply absent from the result map.
	GetUsersByIDs(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]UserInfo, error)
}

// RoleGranter adds a role to a user, keeping existing roles in place.
type RoleGranter interface {
	GrantRole(ctx context.Context, userID uuid.UUID, role string) error
}
