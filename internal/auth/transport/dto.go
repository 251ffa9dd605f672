// Package transport defines the request and response shapes of the auth
// and user-management endpoints.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ProfileResponse is the caller's own account view.
type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Roles       []string  `json:"roles"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserResponse is the admin view of an account.
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Subject     string     `json:"subject"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	Roles       []string   `json:"roles"`
	IsActive    bool       `json:"isActive"`
	LastSeenAt  *time.Time `json:"lastSeenAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ListUsersRequest carries the admin user listing filters.
type ListUsersRequest struct {
	Role     string `form:"role"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// UserListResponse is a page of users.
type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// SetRolesRequest replaces a user's role assignments.
type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

// SetActiveRequest enables or disables an account.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
