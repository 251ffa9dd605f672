package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the pgx surface shared by *pgxpool.Pool and pgx.Tx. Client
// resolution takes it explicitly so it can join the lead-creation
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ClientRecord is the client data leads snapshot and display.
type ClientRecord struct {
	ID    uuid.UUID
	Name  string
	Phone string
	Email string
}

// ClientResolver finds or creates the client a submission belongs to.
// Resolution matches on phone then email, exact string equality only;
// values are used exactly as submitted.
type ClientResolver interface {
	Resolve(ctx context.Context, db DBTX, name, phone, email string) (ClientRecord, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (ClientRecord, error)
}
