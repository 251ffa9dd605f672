// Package repository provides PostgreSQL persistence for agent profiles.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/platform/apperr"
)

const agentNotFoundMessage = "agent not found"

const uniqueViolation = "23505"

// Repo implements the agents repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const agentColumns = `id, user_id, agent_code, commission_rate, status, kyc_verified, kyc_document_type, kyc_document_number, phone, created_at, updated_at`

func scanAgent(row pgx.Row) (Agent, error) {
	var a Agent
	err := row.Scan(&a.ID, &a.UserID, &a.AgentCode, &a.CommissionRate, &a.Status, &a.KycVerified,
		&a.KycDocumentType, &a.KycDocumentNumber, &a.Phone, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// CreateAgent inserts an agent profile. The agent code is assigned exactly
// once here and never rewritten afterwards.
func (r *Repo) CreateAgent(ctx context.Context, params CreateAgentParams) (Agent, error) {
	query := `
		INSERT INTO agents (user_id, agent_code, commission_rate, phone)
		VALUES ($1, $2, COALESCE($3, 5.00), $4)
		RETURNING ` + agentColumns

	agent, err := scanAgent(r.pool.QueryRow(ctx, query, params.UserID, params.AgentCode, params.CommissionRate, params.Phone))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Agent{}, apperr.Conflict("user already has an agent profile")
		}
		return Agent{}, fmt.Errorf("create agent: %w", err)
	}
	return agent, nil
}

// GetByID retrieves an agent profile by ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	agent, err := scanAgent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("get agent by id: %w", err)
	}
	return agent, nil
}

// GetByUserID retrieves the agent profile belonging to a user.
func (r *Repo) GetByUserID(ctx context.Context, userID uuid.UUID) (Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE user_id = $1`
	agent, err := scanAgent(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("get agent by user: %w", err)
	}
	return agent, nil
}

// AgentIDForUser returns the agent profile ID for a user, or nil when the
// user is not an agent. Absence is a normal answer here, not an error.
func (r *Repo) AgentIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT id FROM agents WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("agent id for user: %w", err)
	}
	return &id, nil
}

// CodeExists reports whether an agent code is already assigned.
func (r *Repo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM agents WHERE agent_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check agent code: %w", err)
	}
	return exists, nil
}

// UpdateSelf updates the agent-editable profile fields.
func (r *Repo) UpdateSelf(ctx context.Context, params UpdateSelfParams) (Agent, error) {
	query := `
		UPDATE agents
		SET phone = COALESCE($2, phone),
			kyc_document_type = COALESCE($3, kyc_document_type),
			kyc_document_number = COALESCE($4, kyc_document_number),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + agentColumns

	agent, err := scanAgent(r.pool.QueryRow(ctx, query, params.AgentID, params.Phone, params.KycDocumentType, params.KycDocumentNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("update agent profile: %w", err)
	}
	return agent, nil
}

// AdminUpdate updates the admin-controlled agent fields.
func (r *Repo) AdminUpdate(ctx context.Context, params AdminUpdateParams) (Agent, error) {
	query := `
		UPDATE agents
		SET commission_rate = COALESCE($2, commission_rate),
			status = COALESCE($3, status),
			kyc_verified = COALESCE($4, kyc_verified),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + agentColumns

	agent, err := scanAgent(r.pool.QueryRow(ctx, query, params.AgentID, params.CommissionRate, params.Status, params.KycVerified))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("admin update agent: %w", err)
	}
	return agent, nil
}

// List returns agents ordered by creation time, optionally filtered by status.
func (r *Repo) List(ctx context.Context, params ListAgentsParams) ([]Agent, int, error) {
	args := []any{}
	where := ""
	if params.Status != "" {
		where = ` WHERE status = $1`
		args = append(args, params.Status)
	}

	countQuery := `SELECT COUNT(*) FROM agents` + where
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count agents: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM agents%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		agentColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.UserID, &a.AgentCode, &a.CommissionRate, &a.Status, &a.KycVerified,
			&a.KycDocumentType, &a.KycDocumentNumber, &a.Phone, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, total, nil
}
