// Package adapter exposes the clients context to consuming modules
// through their own port interfaces.
package adapter

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/clients/repository"
	"bridge_backend/internal/clients/service"
	"bridge_backend/internal/leads/ports"
)

// ClientResolverAdapter implements the leads ClientResolver port.
type ClientResolverAdapter struct {
	svc  *service.Service
	pool *pgxpool.Pool
}

// NewClientResolverAdapter creates the adapter. The pool backs reads that
// run outside a lead-creation transaction.
func NewClientResolverAdapter(svc *service.Service, pool *pgxpool.Pool) *ClientResolverAdapter {
	return &ClientResolverAdapter{svc: svc, pool: pool}
}

// Compile-time check that the adapter satisfies the leads port.
var _ ports.ClientResolver = (*ClientResolverAdapter)(nil)

// Resolve finds or creates the client within the caller's transaction.
func (a *ClientResolverAdapter) Resolve(ctx context.Context, db ports.DBTX, name, phone, email string) (ports.ClientRecord, error) {
	client, err := a.svc.Resolve(ctx, db, service.ResolveParams{
		Name:  name,
		Phone: phone,
		Email: email,
	})
	if err != nil {
		return ports.ClientRecord{}, err
	}
	return toRecord(client), nil
}

// GetClientByID retrieves a client for lead detail enrichment.
func (a *ClientResolverAdapter) GetClientByID(ctx context.Context, id uuid.UUID) (ports.ClientRecord, error) {
	client, err := a.svc.GetByID(ctx, a.pool, id)
	if err != nil {
		return ports.ClientRecord{}, err
	}
	return toRecord(client), nil
}

func toRecord(client repository.Client) ports.ClientRecord {
	return ports.ClientRecord{
		ID:    client.ID,
		Name:  client.Name,
		Phone: client.Phone,
		Email: client.Email,
	}
}
