// Package adapter exposes agent data to consuming modules through their
// own port interfaces.
package adapter

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/agents/ports"
	"bridge_backend/internal/agents/repository"
	leadports "bridge_backend/internal/leads/ports"
)

// AgentDirectoryAdapter implements the leads AgentDirectory port.
type AgentDirectoryAdapter struct {
	repo  repository.Repository
	users ports.UserProvider
}

// NewAgentDirectoryAdapter creates the adapter over the agents repository.
func NewAgentDirectoryAdapter(repo repository.Repository, users ports.UserProvider) *AgentDirectoryAdapter {
	return &AgentDirectoryAdapter{repo: repo, users: users}
}

// Compile-time check that the adapter satisfies the leads port.
var _ leadports.AgentDirectory = (*AgentDirectoryAdapter)(nil)

// GetAgent returns the agent fields lead assignment depends on. The
// display name is filled best-effort from the account record.
func (a *AgentDirectoryAdapter) GetAgent(ctx context.Context, id uuid.UUID) (leadports.AgentInfo, error) {
	agent, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return leadports.AgentInfo{}, err
	}

	info := leadports.AgentInfo{
		ID:        agent.ID,
		AgentCode: agent.AgentCode,
		Status:    agent.Status,
	}
	if user, err := a.users.GetUserByID(ctx, agent.UserID); err == nil {
		info.DisplayName = user.DisplayName
	}
	return info, nil
}
