package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Agent represents an agent profile row.
type Agent struct {
	ID                uuid.UUID `db:"id"`
	UserID            uuid.UUID `db:"user_id"`
	AgentCode         string    `db:"agent_code"`
	CommissionRate    float64   `db:"commission_rate"`
	Status            string    `db:"status"`
	KycVerified       bool      `db:"kyc_verified"`
	KycDocumentType   *string   `db:"kyc_document_type"`
	KycDocumentNumber *string   `db:"kyc_document_number"`
	Phone             *string   `db:"phone"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// CreateAgentParams contains data for promoting a user to agent.
type CreateAgentParams struct {
	UserID         uuid.UUID
	AgentCode      string
	CommissionRate *float64
	Phone          *string
}

// UpdateSelfParams contains the fields an agent may edit on their own profile.
type UpdateSelfParams struct {
	AgentID           uuid.UUID
	Phone             *string
	KycDocumentType   *string
	KycDocumentNumber *string
}

// AdminUpdateParams contains the fields only admins may change.
type AdminUpdateParams struct {
	AgentID        uuid.UUID
	CommissionRate *float64
	Status         *string
	KycVerified    *bool
}

// ListAgentsParams defines filters for the admin agent listing.
type ListAgentsParams struct {
	Status string
	Offset int
	Limit  int
}

// Repository defines agent profile storage operations.
type Repository interface {
	CreateAgent(ctx context.Context, params CreateAgentParams) (Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (Agent, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (Agent, error)
	AgentIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateSelf(ctx context.Context, params UpdateSelfParams) (Agent, error)
	AdminUpdate(ctx context.Context, params AdminUpdateParams) (Agent, error)
	List(ctx context.Context, params ListAgentsParams) ([]Agent, int, error)
}

// Ensure Repo implements Repository.
var _ Repository = (*Repo)(nil)
