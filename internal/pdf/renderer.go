package pdf

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"bridge_backend/internal/leads/ports"
	"bridge_backend/platform/phone"
)

//go:embed templates/lead_summary.html
var templateFS embed.FS

// Renderer produces lead summary PDFs from an embedded HTML template.
type Renderer struct {
	client *GotenbergClient
	tmpl   *template.Template
}

// NewRenderer parses the embedded summary template and returns a renderer
// backed by the given Gotenberg client.
func NewRenderer(client *GotenbergClient) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/lead_summary.html")
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}
	return &Renderer{client: client, tmpl: tmpl}, nil
}

// RenderLeadSummary renders the summary HTML for a lead and converts it to PDF.
func (r *Renderer) RenderLeadSummary(ctx context.Context, data ports.LeadSummaryData) ([]byte, error) {
	data.CustomerPhone = phone.FormatDisplay(data.CustomerPhone)

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render summary template: %w", err)
	}
	return r.client.ConvertHTML(ctx, buf.Bytes(), SummaryOpts())
}

// Compile-time check that Renderer satisfies the leads port.
var _ ports.SummaryRenderer = (*Renderer)(nil)
