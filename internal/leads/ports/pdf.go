package ports

import (
	"context"
	"time"
)

// LeadSummaryData carries everything the summary document shows. Form
// fields arrive decoded so the renderer can lay them out as rows.
type LeadSummaryData struct {
	ReferenceNumber string
	ProductName     string
	SubCategoryName string
	ProviderName    string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	Source          string
	Status          string
	SubmittedAt     time.Time
	FormFields      map[string]any
}

// SummaryRenderer produces the lead summary PDF. Rendering happens
// after the lead is committed and is best-effort; a failure never
// affects the stored lead.
type SummaryRenderer interface {
	RenderLeadSummary(ctx context.Context, data LeadSummaryData) ([]byte, error)
}
