// Package transport defines the request and response shapes of the leads
// endpoints, including the public form surface.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest is an agent-portal lead submission. SaveAsDraft keeps
// the lead editable instead of submitting it right away.
type CreateLeadRequest struct {
	ProductID     uuid.UUID      `json:"productId" validate:"required"`
	CustomerName  string         `json:"customerName" validate:"required,max=255"`
	CustomerPhone string         `json:"customerPhone" validate:"required,max=32"`
	CustomerEmail string         `json:"customerEmail" validate:"omitempty,email,max=255"`
	FormData      map[string]any `json:"formData"`
	SaveAsDraft   bool           `json:"saveAsDraft"`
}

// PublicSubmissionRequest is a lead submitted through a shared form link.
// The product comes from the form template, never from the submitter.
type PublicSubmissionRequest struct {
	CustomerName  string         `json:"customerName" validate:"required,max=255"`
	CustomerPhone string         `json:"customerPhone" validate:"required,max=32"`
	CustomerEmail string         `json:"customerEmail" validate:"omitempty,email,max=255"`
	FormData      map[string]any `json:"formData"`
}

// UpdateLeadRequest edits a draft lead. Nil fields stay unchanged.
type UpdateLeadRequest struct {
	CustomerName  *string        `json:"customerName" validate:"omitempty,max=255"`
	CustomerPhone *string        `json:"customerPhone" validate:"omitempty,max=32"`
	CustomerEmail *string        `json:"customerEmail" validate:"omitempty,email,max=255"`
	FormData      map[string]any `json:"formData"`
}

// UpdateStatusRequest moves a lead to a new status. The optional note is
// recorded on the status-change activity.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft submitted in_progress approved rejected converted"`
	Note   string `json:"note" validate:"omitempty,max=2000"`
}

// AddNoteRequest appends a note to a lead's activity trail.
type AddNoteRequest struct {
	Note string `json:"note" validate:"required,min=1,max=4000"`
	Type string `json:"type" validate:"omitempty,oneof=note_added contacted"`
}

// AssignLeadRequest hands a lead to an agent.
type AssignLeadRequest struct {
	AgentID uuid.UUID `json:"agentId" validate:"required"`
}

// ListLeadsRequest carries the lead listing filters. Dates are inclusive
// calendar days.
type ListLeadsRequest struct {
	Status    string `form:"status" validate:"omitempty,oneof=draft submitted in_progress approved rejected converted"`
	ProductID string `form:"productId" validate:"omitempty,uuid"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// LeadResponse is the lead view shared by list and detail endpoints.
type LeadResponse struct {
	ID              uuid.UUID       `json:"id"`
	ReferenceNumber string          `json:"referenceNumber"`
	ProductID       uuid.UUID       `json:"productId"`
	AgentID         *uuid.UUID      `json:"agentId,omitempty"`
	ClientID        uuid.UUID       `json:"clientId"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	FormData        json.RawMessage `json:"formData"`
	Status          string          `json:"status"`
	Source          string          `json:"source"`
	PDFURL          *string         `json:"pdfUrl,omitempty"`
	ConvertedAt     *time.Time      `json:"convertedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// LeadProductInfo is the product snippet embedded in a lead detail.
type LeadProductInfo struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	SubCategory  string    `json:"subCategory"`
	ProviderName string    `json:"providerName"`
}

// LeadClientInfo is the client snippet embedded in a lead detail.
type LeadClientInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Email string    `json:"email"`
}

// LeadDetailResponse is a lead with its client and product context.
type LeadDetailResponse struct {
	LeadResponse
	Product *LeadProductInfo `json:"product,omitempty"`
	Client  *LeadClientInfo  `json:"client,omitempty"`
}

// LeadListResponse is a page of leads.
type LeadListResponse struct {
	Leads    []LeadResponse `json:"leads"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// LeadStatsResponse is the per-status breakdown for the caller's scope.
type LeadStatsResponse struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// ActivityResponse is one entry of a lead's activity trail.
type ActivityResponse struct {
	ID           uuid.UUID       `json:"id"`
	ActivityType string          `json:"activityType"`
	Description  string          `json:"description"`
	ActorUserID  *uuid.UUID      `json:"actorUserId,omitempty"`
	ActorName    string          `json:"actorName,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ActivityListResponse is a lead's activity trail, newest first.
type ActivityListResponse struct {
	Activities []ActivityResponse `json:"activities"`
}

// DocumentResponse is one stored lead document.
type DocumentResponse struct {
	ID          uuid.UUID  `json:"id"`
	FileName    string     `json:"fileName"`
	ContentType string     `json:"contentType"`
	SizeBytes   int64      `json:"sizeBytes"`
	UploadedBy  *uuid.UUID `json:"uploadedBy,omitempty"`
	DownloadURL *string    `json:"downloadUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// DocumentListResponse is a lead's documents, newest first.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

// CreateFormTemplateRequest creates a shareable public form.
type CreateFormTemplateRequest struct {
	ProductID   uuid.UUID      `json:"productId" validate:"required"`
	Title       string         `json:"title" validate:"required,max=255"`
	Description string         `json:"description" validate:"omitempty,max=2000"`
	Schema      map[string]any `json:"schema"`
	ExpiresAt   *time.Time     `json:"expiresAt"`
}

// UpdateFormTemplateRequest edits a form template. Nil fields stay
// unchanged; an explicit expiresAt of null clears the expiry.
type UpdateFormTemplateRequest struct {
	Title       *string        `json:"title" validate:"omitempty,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	Schema      map[string]any `json:"schema"`
	IsActive    *bool          `json:"isActive"`
	ExpiresAt   OptionalTime   `json:"expiresAt" validate:"-"`
}

// ListFormTemplatesRequest carries the form template listing filters.
type ListFormTemplatesRequest struct {
	ProductID string `form:"productId" validate:"omitempty,uuid"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}

// FormTemplateResponse is the admin view of a form template.
type FormTemplateResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	ShareToken  string          `json:"shareToken"`
	ShareURL    string          `json:"shareUrl"`
	IsActive    bool            `json:"isActive"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	CreatedBy   *uuid.UUID      `json:"createdBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FormTemplateListResponse is a page of form templates.
type FormTemplateListResponse struct {
	Forms    []FormTemplateResponse `json:"forms"`
	Total    int                    `json:"total"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"pageSize"`
}

// PublicFormResponse is what an anonymous visitor sees when opening a
// share link: enough to render the form, nothing internal.
type PublicFormResponse struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
	ProductName string          `json:"productName"`
}

// PublicSubmissionResponse acknowledges a public form submission.
type PublicSubmissionResponse struct {
	ReferenceNumber string `json:"referenceNumber"`
	Message         string `json:"message"`
}
