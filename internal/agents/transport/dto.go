// Package transport defines the request and response shapes of the agents
// endpoints.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// AgentResponse is the full agent profile view.
type AgentResponse struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"userId"`
	AgentCode         string    `json:"agentCode"`
	ReferralLink      string    `json:"referralLink"`
	CommissionRate    float64   `json:"commissionRate"`
	Status            string    `json:"status"`
	KycVerified       bool      `json:"kycVerified"`
	KycDocumentType   *string   `json:"kycDocumentType,omitempty"`
	KycDocumentNumber *string   `json:"kycDocumentNumber,omitempty"`
	Phone             *string   `json:"phone,omitempty"`
	Email             string    `json:"email"`
	DisplayName       string    `json:"displayName"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PromoteAgentRequest promotes an existing user to agent.
type PromoteAgentRequest struct {
	UserID         uuid.UUID `json:"userId" validate:"required"`
	CommissionRate *float64  `json:"commissionRate" validate:"omitempty,gte=0,lte=100"`
	Phone          *string   `json:"phone" validate:"omitempty,max=32"`
}

// UpdateMyProfileRequest carries the agent-editable profile fields.
type UpdateMyProfileRequest struct {
	Phone             *string `json:"phone" validate:"omitempty,max=32"`
	KycDocumentType   *string `json:"kycDocumentType" validate:"omitempty,oneof=aadhaar pan passport driving_license"`
	KycDocumentNumber *string `json:"kycDocumentNumber" validate:"omitempty,max=64"`
}

// AdminUpdateAgentRequest carries the admin-controlled agent fields.
type AdminUpdateAgentRequest struct {
	CommissionRate *float64 `json:"commissionRate" validate:"omitempty,gte=0,lte=100"`
	Status         *string  `json:"status" validate:"omitempty,oneof=pending active suspended"`
	KycVerified    *bool    `json:"kycVerified"`
}

// ListAgentsRequest carries the admin agent listing filters.
type ListAgentsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending active suspended"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// AgentListResponse is a page of agents.
type AgentListResponse struct {
	Agents   []AgentResponse `json:"agents"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}
