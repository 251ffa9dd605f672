package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const documentColumns = `id, lead_id, file_name, object_key, content_type, size_bytes, uploaded_by, created_at`

func scanDocument(row pgx.Row) (LeadDocument, error) {
	var d LeadDocument
	err := row.Scan(
		&d.ID, &d.LeadID, &d.FileName, &d.ObjectKey,
		&d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt,
	)
	return d, err
}

// CreateDocument records an uploaded attachment on a lead.
func (r *Repo) CreateDocument(ctx context.Context, params CreateDocumentParams) (LeadDocument, error) {
	query := fmt.Sprintf(`
		INSERT INTO lead_documents (lead_id, file_name, object_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s`, documentColumns)

	doc, err := scanDocument(r.db.QueryRow(ctx, query,
		params.LeadID, params.FileName, params.ObjectKey,
		params.ContentType, params.SizeBytes, params.UploadedBy,
	))
	if err != nil {
		return LeadDocument{}, fmt.Errorf("create lead document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns a lead's attachments, newest first.
func (r *Repo) ListDocuments(ctx context.Context, leadID uuid.UUID) ([]LeadDocument, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM lead_documents
		WHERE lead_id = $1
		ORDER BY created_at DESC`, documentColumns)

	rows, err := r.db.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list lead documents: %w", err)
	}
	defer rows.Close()

	items := make([]LeadDocument, 0)
	for rows.Next() {
		var d LeadDocument
		if err := rows.Scan(
			&d.ID, &d.LeadID, &d.FileName, &d.ObjectKey,
			&d.ContentType, &d.SizeBytes, &d.UploadedBy, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan lead document: %w", err)
		}
		items = append(items, d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("list lead documents: %w", rows.Err())
	}

	return items, nil
}
