// Package events defines the domain events the modules publish, and
// re-exports the platform bus so modules need only this one import.
package events

import (
	"bridge_backend/platform/events"
	"bridge_backend/platform/logger"

	"github.com/google/uuid"
)

// Aliases to the platform event infrastructure.
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// NewBaseEvent stamps a base event with the current time.
var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the in-process bus the composition root wires
// into every module.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Auth Domain Events
// =============================================================================

// UserProvisioned is published when a previously unseen identity subject
// is auto-created as a platform user.
type UserProvisioned struct {
	BaseEvent
	UserID  uuid.UUID `json:"userId"`
	Subject string    `json:"subject"`
	Email   string    `json:"email"`
}

func (e UserProvisioned) EventName() string { return "auth.user.provisioned" }

// =============================================================================
// Agents Domain Events
// =============================================================================

// AgentPromoted is published when a user is promoted to an agent.
type AgentPromoted struct {
	BaseEvent
	AgentID   uuid.UUID `json:"agentId"`
	UserID    uuid.UUID `json:"userId"`
	AgentCode string    `json:"agentCode"`
}

func (e AgentPromoted) EventName() string { return "agents.agent.promoted" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published after a lead submission has been committed.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	ReferenceNumber string     `json:"referenceNumber"`
	ProductID       uuid.UUID  `json:"productId"`
	ProductName     string     `json:"productName"`
	AgentID         *uuid.UUID `json:"agentId,omitempty"`
	ClientID        uuid.UUID  `json:"clientId"`
	CustomerName    string     `json:"customerName"`
	CustomerEmail   string     `json:"customerEmail"`
	CustomerPhone   string     `json:"customerPhone"`
	Source          string     `json:"source"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published when a lead's status is updated.
type LeadStatusChanged struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	ReferenceNumber string     `json:"referenceNumber"`
	AgentID         *uuid.UUID `json:"agentId,omitempty"`
	OldStatus       string     `json:"oldStatus"`
	NewStatus       string     `json:"newStatus"`
	ActorUserID     uuid.UUID  `json:"actorUserId"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadAssigned is published when a lead is assigned to an agent.
type LeadAssigned struct {
	BaseEvent
	LeadID          uuid.UUID  `json:"leadId"`
	ReferenceNumber string     `json:"referenceNumber"`
	PreviousAgentID *uuid.UUID `json:"previousAgentId,omitempty"`
	NewAgentID      uuid.UUID  `json:"newAgentId"`
	AssignedByID    uuid.UUID  `json:"assignedById"`
}

func (e LeadAssigned) EventName() string { return "leads.lead.assigned" }
