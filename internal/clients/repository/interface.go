package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Client represents a customer shared across lead submissions.
type Client struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx. Methods
// take it explicitly so resolution can join a caller-owned transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateClientParams contains data for creating a client.
type CreateClientParams struct {
	Name  string
	Phone string
	Email string
}

// Repository defines client storage operations.
type Repository interface {
	FindByPhone(ctx context.Context, db DBTX, phone string) (Client, error)
	FindByEmail(ctx context.Context, db DBTX, email string) (Client, error)
	Create(ctx context.Context, db DBTX, params CreateClientParams) (Client, error)
	GetByID(ctx context.Context, db DBTX, id uuid.UUID) (Client, error)
}
