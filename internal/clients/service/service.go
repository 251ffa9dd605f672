// Package service owns the deduplicated customer entity behind lead
// submissions. Resolution is exact-match only: phone and email values are
// compared exactly as submitted, with no trimming, case-folding, or phone
// canonicalization. The table carries no uniqueness constraints, so
// concurrent submissions with the same new contact can produce duplicate
// rows; resolution always prefers the oldest match.
package service

import (
	"context"

	"github.com/google/uuid"

	"bridge_backend/internal/clients/repository"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

// ResolveParams carries the contact fields of a submission.
type ResolveParams struct {
	Name  string
	Phone string
	Email string
}

// Service resolves submissions to client records.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new clients service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Resolve finds or creates the client for a submission and always returns
// exactly one client. Lookup order: phone first, then email, both exact
// string equality on the submitted value. When neither matches, a new
// client is created; under concurrent submissions this can duplicate a
// client, which later resolutions tolerate by picking the oldest row.
func (s *Service) Resolve(ctx context.Context, db repository.DBTX, params ResolveParams) (repository.Client, error) {
	if params.Phone != "" {
		client, err := s.repo.FindByPhone(ctx, db, params.Phone)
		if err == nil {
			return client, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return repository.Client{}, err
		}
	}

	if params.Email != "" {
		client, err := s.repo.FindByEmail(ctx, db, params.Email)
		if err == nil {
			return client, nil
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return repository.Client{}, err
		}
	}

	client, err := s.repo.Create(ctx, db, repository.CreateClientParams{
		Name:  params.Name,
		Phone: params.Phone,
		Email: params.Email,
	})
	if err != nil {
		return repository.Client{}, err
	}

	s.log.Info("client created", "id", client.ID)
	return client, nil
}

// GetByID retrieves a client by ID.
func (s *Service) GetByID(ctx context.Context, db repository.DBTX, id uuid.UUID) (repository.Client, error) {
	return s.repo.GetByID(ctx, db, id)
}
