package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bridge_backend/internal/leads/domain"
	"bridge_backend/platform/apperr"
)

const (
	leadNotFoundMessage = "lead not found"

	// uniqueViolation is the Postgres error code for unique constraint violations.
	uniqueViolation = "23505"
)

const leadColumns = `id, reference_number, product_id, agent_id, client_id,
	customer_name, customer_email, customer_phone, form_data, status, source,
	pdf_object_key, pdf_url, converted_at, created_at, updated_at`

// Repo implements Repository on top of a pgx statement surface: the pool
// by default, or an open transaction after WithTx.
type Repo struct {
	db DBTX
}

// New creates a new leads repository bound to the pool.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{db: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Begin opens a transaction on the underlying pool. It fails when the
// repository is already bound to a transaction.
func (r *Repo) Begin(ctx context.Context) (Tx, error) {
	pool, ok := r.db.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("begin transaction: repository already transactional")
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}

// WithTx returns a repository whose statements run on the given transaction.
func (r *Repo) WithTx(tx Tx) Repository {
	return &Repo{db: tx}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.ReferenceNumber, &l.ProductID, &l.AgentID, &l.ClientID,
		&l.CustomerName, &l.CustomerEmail, &l.CustomerPhone, &l.FormData,
		&l.Status, &l.Source, &l.PDFObjectKey, &l.PDFURL, &l.ConvertedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// CreateLead inserts a lead. A duplicate reference number surfaces as a
// conflict; that is the backstop for two creations racing to the same
// sequence in one year.
func (r *Repo) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := fmt.Sprintf(`
		INSERT INTO leads (
			reference_number, product_id, agent_id, client_id,
			customer_name, customer_email, customer_phone, form_data, status, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, '{}'::jsonb), $9, $10)
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query,
		params.ReferenceNumber, params.ProductID, params.AgentID, params.ClientID,
		params.CustomerName, params.CustomerEmail, params.CustomerPhone,
		params.FormData, params.Status, params.Source,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, apperr.Conflict("reference number already in use")
		}
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetLeadByID returns a single lead.
func (r *Repo) GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE id = $1`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// ListLeads returns a filtered page of leads plus the total match count.
func (r *Repo) ListLeads(ctx context.Context, params ListLeadsParams) ([]Lead, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.AgentID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("agent_id = $%d", argIdx))
		args = append(args, *params.AgentID)
		argIdx++
	}
	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.ProductID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("product_id = $%d", argIdx))
		args = append(args, *params.ProductID)
		argIdx++
	}
	if params.CreatedFrom != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.CreatedFrom)
		argIdx++
	}
	if params.CreatedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("created_at < $%d", argIdx))
		args = append(args, *params.CreatedTo)
		argIdx++
	}

	where := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM leads WHERE %s", where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, leadColumns, where, argIdx, argIdx+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID, &l.ReferenceNumber, &l.ProductID, &l.AgentID, &l.ClientID,
			&l.CustomerName, &l.CustomerEmail, &l.CustomerPhone, &l.FormData,
			&l.Status, &l.Source, &l.PDFObjectKey, &l.PDFURL, &l.ConvertedAt,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, l)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("list leads: %w", rows.Err())
	}

	return items, total, nil
}

// UpdateLead applies partial updates to a lead's snapshot fields and
// form data. Nil fields are left unchanged.
func (r *Repo) UpdateLead(ctx context.Context, params UpdateLeadParams) (Lead, error) {
	query := fmt.Sprintf(`
		UPDATE leads SET
			customer_name  = COALESCE($2, customer_name),
			customer_email = COALESCE($3, customer_email),
			customer_phone = COALESCE($4, customer_phone),
			form_data      = COALESCE($5::jsonb, form_data),
			updated_at     = now()
		WHERE id = $1
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query,
		params.ID, params.CustomerName, params.CustomerEmail, params.CustomerPhone, params.FormData,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// UpdateLeadStatus sets the status. Any status may be set from any other;
// `converted` additionally stamps converted_at.
func (r *Repo) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	query := fmt.Sprintf(`
		UPDATE leads SET
			status       = $2,
			converted_at = CASE WHEN $2 = '%s' THEN now() ELSE converted_at END,
			updated_at   = now()
		WHERE id = $1
		RETURNING %s`, domain.StatusConverted, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("update lead status: %w", err)
	}
	return lead, nil
}

// AssignLead sets the owning agent.
func (r *Repo) AssignLead(ctx context.Context, id uuid.UUID, agentID uuid.UUID) (Lead, error) {
	query := fmt.Sprintf(`
		UPDATE leads SET agent_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.db.QueryRow(ctx, query, id, agentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("assign lead: %w", err)
	}
	return lead, nil
}

// SetLeadPDF stamps the generated summary document onto the lead.
func (r *Repo) SetLeadPDF(ctx context.Context, id uuid.UUID, objectKey, url string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE leads SET pdf_object_key = $2, pdf_url = $3, updated_at = now()
		WHERE id = $1`, id, objectKey, url)
	if err != nil {
		return fmt.Errorf("set lead pdf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// DeleteDraftLead removes a lead still in draft. The status guard means a
// lead that moved on since the caller checked is reported as not found.
func (r *Repo) DeleteDraftLead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM leads WHERE id = $1 AND status = $2`, id, domain.StatusDraft)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}
	return nil
}

// CountLeadsInYear returns how many leads were created in the given
// calendar year. Feeds reference-number sequencing; run it on the same
// transaction as the insert that uses the result.
func (r *Repo) CountLeadsInYear(ctx context.Context, year int) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM leads WHERE EXTRACT(YEAR FROM created_at) = $1`, year,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count leads in year: %w", err)
	}
	return count, nil
}

// CountLeadsByStatus returns per-status lead counts, scoped to one agent
// when agentID is set.
func (r *Repo) CountLeadsByStatus(ctx context.Context, agentID *uuid.UUID) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM leads
		WHERE $1::uuid IS NULL OR agent_id = $1
		GROUP BY status`, agentID)
	if err != nil {
		return nil, fmt.Errorf("count leads by status: %w", err)
	}
	defer rows.Close()

	counts := make([]StatusCount, 0)
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts = append(counts, sc)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("count leads by status: %w", rows.Err())
	}

	return counts, nil
}
