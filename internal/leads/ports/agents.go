package ports

import (
	"context"

	"github.com/google/uuid"
)

// AgentInfo is the agent data lead assignment needs.
type AgentInfo struct {
	ID          uuid.UUID
	AgentCode   string
	DisplayName string
	Status      string
}

// AgentDirectory looks up agents from the agents context. Assignment
// uses it to vet the target before handing a lead over.
type AgentDirectory interface {
	GetAgent(ctx context.Context, id uuid.UUID) (AgentInfo, error)
}
