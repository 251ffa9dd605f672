package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bridge_backend/platform/apperr"
)

const formNotFoundMessage = "form not found"

const formTemplateColumns = `id, product_id, title, description, schema, share_token,
	is_active, expires_at, created_by, created_at, updated_at`

func scanFormTemplate(row pgx.Row) (FormTemplate, error) {
	var f FormTemplate
	err := row.Scan(
		&f.ID, &f.ProductID, &f.Title, &f.Description, &f.Schema, &f.ShareToken,
		&f.IsActive, &f.ExpiresAt, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	return f, err
}

// CreateFormTemplate inserts a template. A share-token collision surfaces
// as a conflict; the caller retries with a fresh token.
func (r *Repo) CreateFormTemplate(ctx context.Context, params CreateFormTemplateParams) (FormTemplate, error) {
	query := fmt.Sprintf(`
		INSERT INTO form_templates (product_id, title, description, schema, share_token, expires_at, created_by)
		VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb), $5, $6, $7)
		RETURNING %s`, formTemplateColumns)

	form, err := scanFormTemplate(r.db.QueryRow(ctx, query,
		params.ProductID, params.Title, params.Description, params.Schema,
		params.ShareToken, params.ExpiresAt, params.CreatedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return FormTemplate{}, apperr.Conflict("share token already in use")
		}
		return FormTemplate{}, fmt.Errorf("create form template: %w", err)
	}
	return form, nil
}

// GetFormTemplateByID returns a single template.
func (r *Repo) GetFormTemplateByID(ctx context.Context, id uuid.UUID) (FormTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM form_templates WHERE id = $1`, formTemplateColumns)

	form, err := scanFormTemplate(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FormTemplate{}, apperr.NotFound(formNotFoundMessage)
		}
		return FormTemplate{}, fmt.Errorf("get form template: %w", err)
	}
	return form, nil
}

// GetFormTemplateByToken returns the template carrying a share token.
// Active and expiry state are returned as stored; the caller decides how
// an inactive or expired link presents to the public.
func (r *Repo) GetFormTemplateByToken(ctx context.Context, token string) (FormTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM form_templates WHERE share_token = $1`, formTemplateColumns)

	form, err := scanFormTemplate(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FormTemplate{}, apperr.NotFound(formNotFoundMessage)
		}
		return FormTemplate{}, fmt.Errorf("get form template by token: %w", err)
	}
	return form, nil
}

// ListFormTemplates returns a page of templates plus the total count.
func (r *Repo) ListFormTemplates(ctx context.Context, params ListFormTemplatesParams) ([]FormTemplate, int, error) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.ProductID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("product_id = $%d", argIdx))
		args = append(args, *params.ProductID)
		argIdx++
	}

	where := strings.Join(whereClauses, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM form_templates WHERE %s", where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count form templates: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s FROM form_templates
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, formTemplateColumns, where, argIdx, argIdx+1)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list form templates: %w", err)
	}
	defer rows.Close()

	items := make([]FormTemplate, 0)
	for rows.Next() {
		var f FormTemplate
		if err := rows.Scan(
			&f.ID, &f.ProductID, &f.Title, &f.Description, &f.Schema, &f.ShareToken,
			&f.IsActive, &f.ExpiresAt, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan form template: %w", err)
		}
		items = append(items, f)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("list form templates: %w", rows.Err())
	}

	return items, total, nil
}

// UpdateFormTemplate applies partial updates. Nil fields are left
// unchanged; ExpiresAtSet with a nil ExpiresAt clears the expiry.
func (r *Repo) UpdateFormTemplate(ctx context.Context, params UpdateFormTemplateParams) (FormTemplate, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{params.ID}
	argIdx := 2

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Title != nil {
		addSet("title", *params.Title)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.Schema != nil {
		addSet("schema", params.Schema)
	}
	if params.IsActive != nil {
		addSet("is_active", *params.IsActive)
	}
	if params.ExpiresAtSet {
		addSet("expires_at", params.ExpiresAt)
	}

	query := fmt.Sprintf(`
		UPDATE form_templates SET %s
		WHERE id = $1
		RETURNING %s`, strings.Join(setClauses, ", "), formTemplateColumns)

	form, err := scanFormTemplate(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FormTemplate{}, apperr.NotFound(formNotFoundMessage)
		}
		return FormTemplate{}, fmt.Errorf("update form template: %w", err)
	}
	return form, nil
}
