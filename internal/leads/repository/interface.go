package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the pgx statement surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Tx is the transaction handle the lead write path works with. pgx.Tx
// satisfies it; its statement surface matches the DBTX taken by the
// client-resolver port, so one transaction spans both contexts.
type Tx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Lead is a stored insurance application.
type Lead struct {
	ID              uuid.UUID       `db:"id"`
	ReferenceNumber string          `db:"reference_number"`
	ProductID       uuid.UUID       `db:"product_id"`
	AgentID         *uuid.UUID      `db:"agent_id"`
	ClientID        uuid.UUID       `db:"client_id"`
	CustomerName    string          `db:"customer_name"`
	CustomerEmail   string          `db:"customer_email"`
	CustomerPhone   string          `db:"customer_phone"`
	FormData        json.RawMessage `db:"form_data"`
	Status          string          `db:"status"`
	Source          string          `db:"source"`
	PDFObjectKey    *string         `db:"pdf_object_key"`
	PDFURL          *string         `db:"pdf_url"`
	ConvertedAt     *time.Time      `db:"converted_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// LeadActivity is one append-only timeline entry on a lead.
type LeadActivity struct {
	ID           uuid.UUID       `db:"id"`
	LeadID       uuid.UUID       `db:"lead_id"`
	ActivityType string          `db:"activity_type"`
	Description  string          `db:"description"`
	ActorUserID  *uuid.UUID      `db:"actor_user_id"`
	Metadata     json.RawMessage `db:"metadata"`
	CreatedAt    time.Time       `db:"created_at"`
}

// LeadDocument is an uploaded attachment on a lead.
type LeadDocument struct {
	ID          uuid.UUID  `db:"id"`
	LeadID      uuid.UUID  `db:"lead_id"`
	FileName    string     `db:"file_name"`
	ObjectKey   string     `db:"object_key"`
	ContentType string     `db:"content_type"`
	SizeBytes   int64      `db:"size_bytes"`
	UploadedBy  *uuid.UUID `db:"uploaded_by"`
	CreatedAt   time.Time  `db:"created_at"`
}

// FormTemplate is a shareable public submission form for one product.
type FormTemplate struct {
	ID          uuid.UUID       `db:"id"`
	ProductID   uuid.UUID       `db:"product_id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	Schema      json.RawMessage `db:"schema"`
	ShareToken  string          `db:"share_token"`
	IsActive    bool            `db:"is_active"`
	ExpiresAt   *time.Time      `db:"expires_at"`
	CreatedBy   *uuid.UUID      `db:"created_by"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

// StatusCount is one bucket of the per-status lead statistics.
type StatusCount struct {
	Status string
	Count  int
}

// CreateLeadParams contains data for inserting a lead.
type CreateLeadParams struct {
	ReferenceNumber string
	ProductID       uuid.UUID
	AgentID         *uuid.UUID
	ClientID        uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	FormData        json.RawMessage
	Status          string
	Source          string
}

// UpdateLeadParams contains partial updates for a draft lead. Nil fields
// are left unchanged.
type UpdateLeadParams struct {
	ID            uuid.UUID
	CustomerName  *string
	CustomerEmail *string
	CustomerPhone *string
	FormData      json.RawMessage
}

// ListLeadsParams filters and paginates the lead listing. AgentID scopes
// the listing to one agent's leads when set.
type ListLeadsParams struct {
	AgentID     *uuid.UUID
	Status      *string
	ProductID   *uuid.UUID
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Offset      int
	Limit       int
}

// CreateActivityParams contains data for appending a timeline entry.
type CreateActivityParams struct {
	LeadID       uuid.UUID
	ActivityType string
	Description  string
	ActorUserID  *uuid.UUID
	Metadata     map[string]any
}

// CreateDocumentParams contains data for recording an uploaded document.
type CreateDocumentParams struct {
	LeadID      uuid.UUID
	FileName    string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	UploadedBy  *uuid.UUID
}

// CreateFormTemplateParams contains data for creating a form template.
type CreateFormTemplateParams struct {
	ProductID   uuid.UUID
	Title       string
	Description string
	Schema      json.RawMessage
	ShareToken  string
	ExpiresAt   *time.Time
	CreatedBy   *uuid.UUID
}

// UpdateFormTemplateParams contains partial updates for a form template.
// ExpiresAtSet distinguishes clearing the expiry from leaving it alone.
type UpdateFormTemplateParams struct {
	ID           uuid.UUID
	Title        *string
	Description  *string
	Schema       json.RawMessage
	IsActive     *bool
	ExpiresAt    *time.Time
	ExpiresAtSet bool
}

// ListFormTemplatesParams filters and paginates the template listing.
type ListFormTemplatesParams struct {
	ProductID *uuid.UUID
	Offset    int
	Limit     int
}

// Repository defines data access for leads, their timeline, documents,
// and form templates. Begin opens a transaction and WithTx rebinds the
// repository to it, so the creation write path commits atomically.
type Repository interface {
	Begin(ctx context.Context) (Tx, error)
	WithTx(tx Tx) Repository

	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetLeadByID(ctx context.Context, id uuid.UUID) (Lead, error)
	ListLeads(ctx context.Context, params ListLeadsParams) ([]Lead, int, error)
	UpdateLead(ctx context.Context, params UpdateLeadParams) (Lead, error)
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error)
	AssignLead(ctx context.Context, id uuid.UUID, agentID uuid.UUID) (Lead, error)
	SetLeadPDF(ctx context.Context, id uuid.UUID, objectKey, url string) error
	DeleteDraftLead(ctx context.Context, id uuid.UUID) error
	CountLeadsInYear(ctx context.Context, year int) (int, error)
	CountLeadsByStatus(ctx context.Context, agentID *uuid.UUID) ([]StatusCount, error)

	CreateActivity(ctx context.Context, params CreateActivityParams) (LeadActivity, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]LeadActivity, error)

	CreateDocument(ctx context.Context, params CreateDocumentParams) (LeadDocument, error)
	ListDocuments(ctx context.Context, leadID uuid.UUID) ([]LeadDocument, error)

	CreateFormTemplate(ctx context.Context, params CreateFormTemplateParams) (FormTemplate, error)
	GetFormTemplateByID(ctx context.Context, id uuid.UUID) (FormTemplate, error)
	GetFormTemplateByToken(ctx context.Context, token string) (FormTemplate, error)
	ListFormTemplates(ctx context.Context, params ListFormTemplatesParams) ([]FormTemplate, int, error)
	UpdateFormTemplate(ctx context.Context, params UpdateFormTemplateParams) (FormTemplate, error)
}
