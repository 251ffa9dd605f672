package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bridge_backend/platform/apperr"
)

const clientNotFoundMessage = "client not found"

const clientColumns = "id, name, phone, email, created_at, updated_at"

// Repo implements the clients repository.
type Repo struct{}

// New creates a new clients repository.
func New() *Repo {
	return &Repo{}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// FindByPhone returns the oldest client with exactly this phone value.
// The phone is matched as stored; callers must not normalize it.
func (r *Repo) FindByPhone(ctx context.Context, db DBTX, phone string) (Client, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		WHERE phone = $1
		ORDER BY created_at ASC
		LIMIT 1`, clientColumns)

	client, err := scanClient(db.QueryRow(ctx, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("find client by phone: %w", err)
	}
	return client, nil
}

// FindByEmail returns the oldest client with exactly this email value.
func (r *Repo) FindByEmail(ctx context.Context, db DBTX, email string) (Client, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		WHERE email = $1
		ORDER BY created_at ASC
		LIMIT 1`, clientColumns)

	client, err := scanClient(db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("find client by email: %w", err)
	}
	return client, nil
}

// Create inserts a client. The clients table has no uniqueness
// constraints, so this never conflicts.
func (r *Repo) Create(ctx context.Context, db DBTX, params CreateClientParams) (Client, error) {
	query := fmt.Sprintf(`
		INSERT INTO clients (name, phone, email)
		VALUES ($1, $2, $3)
		RETURNING %s`, clientColumns)

	client, err := scanClient(db.QueryRow(ctx, query, params.Name, params.Phone, params.Email))
	if err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// GetByID retrieves a client by ID.
func (r *Repo) GetByID(ctx context.Context, db DBTX, id uuid.UUID) (Client, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		WHERE id = $1`, clientColumns)

	client, err := scanClient(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Client{}, apperr.NotFound(clientNotFoundMessage)
		}
		return Client{}, fmt.Errorf("get client by id: %w", err)
	}
	return client, nil
}
