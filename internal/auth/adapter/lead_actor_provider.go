package adapter

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/auth/repository"
	leadports "bridge_backend/internal/leads/ports"
)

// LeadActorProviderAdapter implements the leads UserProvider port for
// activity timeline enrichment.
type LeadActorProviderAdapter struct {
	repo repository.Repository
}

// NewLeadActorProviderAdapter creates the adapter over the auth repository.
func NewLeadActorProviderAdapter(repo repository.Repository) *LeadActorProviderAdapter {
	return &LeadActorProviderAdapter{repo: repo}
}

// Compile-time check that the adapter satisfies the leads port.
var _ leadports.UserProvider = (*LeadActorProviderAdapter)(nil)

// GetUsersByIDs returns display data for the given users. IDs that no
// longer resolve are omitted from the map.
func (a *LeadActorProviderAdapter) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]leadports.UserInfo, error) {
	users, err := a.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]leadports.UserInfo, len(users))
	for _, user := range users {
		result[user.ID] = leadports.UserInfo{
			ID:          user.ID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
		}
	}
	return result, nil
}
