// Package service implements the lead lifecycle: creation with client
// resolution and reference numbering, status transitions, assignment,
// the activity trail, documents, and shareable public forms.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"bridge_backend/internal/adapters/storage"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	"bridge_backend/internal/leads/domain"
	"bridge_backend/internal/leads/ports"
	"bridge_backend/internal/leads/refgen"
	"bridge_backend/internal/leads/repository"
	"bridge_backend/internal/leads/transport"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

// ShareConfig supplies the frontend base URL form share links point at.
type ShareConfig interface {
	GetAppBaseURL() string
}

// Service provides business logic for leads.
type Service struct {
	repo       repository.Repository
	catalog    ports.ProductCatalog
	clients    ports.ClientResolver
	users      ports.UserProvider
	agents     ports.AgentDirectory
	renderer   ports.SummaryRenderer
	storage    storage.StorageService
	docsBucket string
	pdfBucket  string
	shareBase  string
	policy     *authz.Policy
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new leads service. Uploaded documents land in docsBucket,
// generated summary PDFs in pdfBucket.
func New(
	repo repository.Repository,
	catalog ports.ProductCatalog,
	clients ports.ClientResolver,
	users ports.UserProvider,
	agents ports.AgentDirectory,
	renderer ports.SummaryRenderer,
	storageSvc storage.StorageService,
	docsBucket string,
	pdfBucket string,
	shareCfg ShareConfig,
	policy *authz.Policy,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalog,
		clients:    clients,
		users:      users,
		agents:     agents,
		renderer:   renderer,
		storage:    storageSvc,
		docsBucket: docsBucket,
		pdfBucket:  pdfBucket,
		shareBase:  strings.TrimRight(shareCfg.GetAppBaseURL(), "/"),
		policy:     policy,
		bus:        bus,
		log:        log,
		now:        time.Now,
	}
}

// Create records an agent-portal submission. The lead starts submitted
// unless the agent saves it as a draft to finish later.
func (s *Service) Create(ctx context.Context, actor authz.Actor, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	if !s.policy.Can(actor, authz.ActionLeadCreate, authz.NoResource()) {
		return transport.LeadResponse{}, apperr.Forbidden("not allowed to create leads")
	}

	status := domain.StatusSubmitted
	if req.SaveAsDraft {
		status = domain.StatusDraft
	}

	lead, err := s.createLead(ctx, createLeadParams{
		productID:   req.ProductID,
		agentID:     actor.AgentID,
		actorUserID: &actor.UserID,
		name:        req.CustomerName,
		phone:       req.CustomerPhone,
		email:       req.CustomerEmail,
		formData:    req.FormData,
		status:      status,
		source:      domain.SourceAgentPortal,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// createLeadParams carries one submission through the creation pipeline,
// whichever surface it arrived on.
type createLeadParams struct {
	productID   uuid.UUID
	agentID     *uuid.UUID
	actorUserID *uuid.UUID
	name        string
	phone       string
	email       string
	formData    map[string]any
	status      string
	source      string
}

// createLead validates the product, then resolves the client, inserts the
// lead with its reference number, and records the creation activity in a
// single transaction. After commit it attaches the summary PDF
// best-effort and announces the lead on the bus.
func (s *Service) createLead(ctx context.Context, p createLeadParams) (repository.Lead, error) {
	product, err := s.catalog.GetProduct(ctx, p.productID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return repository.Lead{}, apperr.Validation("product does not exist")
		}
		return repository.Lead{}, err
	}
	if !product.IsActive {
		return repository.Lead{}, apperr.Validation("product is not active")
	}

	formData, err := marshalFormData(p.formData)
	if err != nil {
		return repository.Lead{}, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return repository.Lead{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	txRepo := s.repo.WithTx(tx)

	client, err := s.clients.Resolve(ctx, tx, p.name, p.phone, p.email)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("resolve client: %w", err)
	}

	counter := refgen.CounterFunc(func(ctx context.Context, year int) (int, error) {
		return txRepo.CountLeadsInYear(ctx, year)
	})
	reference, err := refgen.NextReference(ctx, counter, product.SubCategoryName, s.now().Year())
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := txRepo.CreateLead(ctx, repository.CreateLeadParams{
		ReferenceNumber: reference,
		ProductID:       product.ID,
		AgentID:         p.agentID,
		ClientID:        client.ID,
		CustomerName:    p.name,
		CustomerEmail:   p.email,
		CustomerPhone:   p.phone,
		FormData:        formData,
		Status:          p.status,
		Source:          p.source,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	if _, err := txRepo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityCreated,
		Description:  "Lead " + lead.ReferenceNumber + " created",
		ActorUserID:  p.actorUserID,
		Metadata:     map[string]any{"source": p.source, "status": p.status},
	}); err != nil {
		return repository.Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.Lead{}, fmt.Errorf("commit lead creation: %w", err)
	}

	s.log.Info("lead created",
		"lead_id", lead.ID, "reference", lead.ReferenceNumber, "source", lead.Source)

	if lead.Status == domain.StatusSubmitted {
		s.attachSummaryPDF(ctx, &lead, product)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		ReferenceNumber: lead.ReferenceNumber,
		ProductID:       product.ID,
		ProductName:     product.Name,
		AgentID:         lead.AgentID,
		ClientID:        lead.ClientID,
		CustomerName:    lead.CustomerName,
		CustomerEmail:   lead.CustomerEmail,
		CustomerPhone:   lead.CustomerPhone,
		Source:          lead.Source,
	})

	return lead, nil
}

// attachSummaryPDF renders the submission summary, stores it, and stamps
// the lead. It runs after commit; any failure here is logged and the
// committed lead stands without a document.
func (s *Service) attachSummaryPDF(ctx context.Context, lead *repository.Lead, product ports.ProductInfo) {
	fields := map[string]any{}
	if len(lead.FormData) > 0 {
		if err := json.Unmarshal(lead.FormData, &fields); err != nil {
			s.log.Warn("lead form data not renderable", "lead_id", lead.ID, "error", err)
			fields = map[string]any{}
		}
	}

	pdfBytes, err := s.renderer.RenderLeadSummary(ctx, ports.LeadSummaryData{
		ReferenceNumber: lead.ReferenceNumber,
		ProductName:     product.Name,
		SubCategoryName: product.SubCategoryName,
		ProviderName:    product.ProviderName,
		CustomerName:    lead.CustomerName,
		CustomerEmail:   lead.CustomerEmail,
		CustomerPhone:   lead.CustomerPhone,
		Source:          lead.Source,
		Status:          lead.Status,
		SubmittedAt:     lead.UpdatedAt,
		FormFields:      fields,
	})
	if err != nil {
		s.log.Warn("lead summary render failed", "lead_id", lead.ID, "error", err)
		return
	}

	fileName := summaryFileName(lead.ReferenceNumber, product.Slug, s.now())
	objectKey, err := s.storage.UploadFile(ctx, s.pdfBucket, leadFolder(lead.ID), fileName,
		"application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		s.log.Warn("lead summary upload failed", "lead_id", lead.ID, "error", err)
		return
	}

	var url string
	if presigned, err := s.storage.GenerateDownloadURL(ctx, s.pdfBucket, objectKey); err == nil {
		url = presigned.URL
	}

	if err := s.repo.SetLeadPDF(ctx, lead.ID, objectKey, url); err != nil {
		s.log.Warn("lead summary stamp failed", "lead_id", lead.ID, "error", err)
		return
	}
	lead.PDFObjectKey = &objectKey
	if url != "" {
		lead.PDFURL = &url
	}

	if _, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityDocumentUploaded,
		Description:  "Summary document " + fileName + " generated",
		Metadata:     map[string]any{"fileName": fileName, "objectKey": objectKey},
	}); err != nil {
		s.log.Warn("summary activity write failed", "lead_id", lead.ID, "error", err)
	}
}

// Get returns a lead with its client and product context. The stored
// summary link is re-presigned so it is valid at read time.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadView, id)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}

	detail := transport.LeadDetailResponse{LeadResponse: toLeadResponse(lead)}

	if product, err := s.catalog.GetProduct(ctx, lead.ProductID); err == nil {
		detail.Product = &transport.LeadProductInfo{
			ID:           product.ID,
			Name:         product.Name,
			SubCategory:  product.SubCategoryName,
			ProviderName: product.ProviderName,
		}
	} else {
		s.log.Warn("lead product lookup failed", "lead_id", lead.ID, "error", err)
	}

	if client, err := s.clients.GetClientByID(ctx, lead.ClientID); err == nil {
		detail.Client = &transport.LeadClientInfo{
			ID:    client.ID,
			Name:  client.Name,
			Phone: client.Phone,
			Email: client.Email,
		}
	} else {
		s.log.Warn("lead client lookup failed", "lead_id", lead.ID, "error", err)
	}

	if lead.PDFObjectKey != nil {
		if presigned, err := s.storage.GenerateDownloadURL(ctx, s.pdfBucket, *lead.PDFObjectKey); err == nil {
			detail.PDFURL = &presigned.URL
		}
	}

	return detail, nil
}

// List returns a page of leads. Agents see their own leads,
// administrators see every lead.
func (s *Service) List(ctx context.Context, actor authz.Actor, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	if !s.policy.Can(actor, authz.ActionLeadView, authz.NoResource()) {
		return transport.LeadListResponse{}, apperr.Forbidden("not allowed to view leads")
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	params := repository.ListLeadsParams{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}

	if !s.policy.Can(actor, authz.ActionLeadView, authz.LeadResource(nil)) {
		if actor.AgentID == nil {
			return transport.LeadListResponse{}, apperr.Forbidden("an agent profile is required to view leads")
		}
		params.AgentID = actor.AgentID
	}

	if req.Status != "" {
		params.Status = &req.Status
	}
	if req.ProductID != "" {
		productID, err := uuid.Parse(req.ProductID)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("productId is not a valid UUID")
		}
		params.ProductID = &productID
	}
	if req.From != "" {
		from, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("from must be formatted YYYY-MM-DD")
		}
		params.CreatedFrom = &from
	}
	if req.To != "" {
		to, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return transport.LeadListResponse{}, apperr.Validation("to must be formatted YYYY-MM-DD")
		}
		// Filter is created_at < CreatedTo, so move to the next day to
		// keep the named day inclusive.
		end := to.AddDate(0, 0, 1)
		params.CreatedTo = &end
	}

	leads, total, err := s.repo.ListLeads(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	return transport.LeadListResponse{
		Leads:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Update edits the contact fields and form data of a draft lead.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadUpdate, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.Status != domain.StatusDraft {
		return transport.LeadResponse{}, apperr.Conflict("only draft leads can be edited")
	}

	formData, err := marshalFormData(req.FormData)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	updated, err := s.repo.UpdateLead(ctx, repository.UpdateLeadParams{
		ID:            id,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		FormData:      formData,
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(updated), nil
}

// Submit moves a draft lead to submitted and attaches the summary
// document that a direct submission would have produced.
func (s *Service) Submit(ctx context.Context, actor authz.Actor, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadUpdate, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.Status != domain.StatusDraft {
		return transport.LeadResponse{}, apperr.Conflict("only draft leads can be submitted")
	}

	updated, err := s.transition(ctx, actor, lead, domain.StatusSubmitted, "")
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if product, err := s.catalog.GetProduct(ctx, updated.ProductID); err == nil {
		s.attachSummaryPDF(ctx, &updated, product)
	} else {
		s.log.Warn("product lookup for summary failed", "lead_id", updated.ID, "error", err)
	}

	return toLeadResponse(updated), nil
}

// UpdateStatus moves a lead to the requested status. The lifecycle
// permits any move; converted additionally stamps the conversion time.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, req transport.UpdateStatusRequest) (transport.LeadResponse, error) {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadUpdate, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if !domain.ValidStatus(req.Status) {
		return transport.LeadResponse{}, apperr.Validation("unknown status " + req.Status)
	}
	if lead.Status == req.Status {
		return toLeadResponse(lead), nil
	}

	updated, err := s.transition(ctx, actor, lead, req.Status, req.Note)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(updated), nil
}

// transition updates the status, records the change on the trail, and
// announces it on the bus.
func (s *Service) transition(ctx context.Context, actor authz.Actor, lead repository.Lead, newStatus, note string) (repository.Lead, error) {
	updated, err := s.repo.UpdateLeadStatus(ctx, lead.ID, newStatus)
	if err != nil {
		return repository.Lead{}, err
	}

	description := "Status changed from " + lead.Status + " to " + newStatus
	if note != "" {
		description += ": " + note
	}
	if _, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityStatusChange,
		Description:  description,
		ActorUserID:  &actor.UserID,
		Metadata:     map[string]any{"oldStatus": lead.Status, "newStatus": newStatus},
	}); err != nil {
		s.log.Error("status activity write failed", "lead_id", lead.ID, "error", err)
	}

	s.log.Info("lead status changed",
		"lead_id", lead.ID, "old_status", lead.Status, "new_status", newStatus)

	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		ReferenceNumber: lead.ReferenceNumber,
		AgentID:         lead.AgentID,
		OldStatus:       lead.Status,
		NewStatus:       newStatus,
		ActorUserID:     actor.UserID,
	})

	return updated, nil
}

// Delete removes a draft lead along with its trail and documents.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	lead, err := s.authorizeLead(ctx, actor, authz.ActionLeadDelete, id)
	if err != nil {
		return err
	}
	if lead.Status != domain.StatusDraft {
		return apperr.Conflict("only draft leads can be deleted")
	}

	if err := s.repo.DeleteDraftLead(ctx, id); err != nil {
		return err
	}
	s.log.Info("draft lead deleted", "lead_id", id, "reference", lead.ReferenceNumber)
	return nil
}

// Assign hands a lead to an agent after vetting the target.
func (s *Service) Assign(ctx context.Context, actor authz.Actor, id uuid.UUID, req transport.AssignLeadRequest) (transport.LeadResponse, error) {
	if !s.policy.Can(actor, authz.ActionLeadAssign, authz.NoResource()) {
		return transport.LeadResponse{}, apperr.Forbidden("not allowed to assign leads")
	}

	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	agent, err := s.agents.GetAgent(ctx, req.AgentID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.LeadResponse{}, apperr.Validation("agent does not exist")
		}
		return transport.LeadResponse{}, err
	}
	if agent.Status != "active" {
		return transport.LeadResponse{}, apperr.Validation("agent is not active")
	}

	updated, err := s.repo.AssignLead(ctx, id, req.AgentID)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if _, err := s.repo.CreateActivity(ctx, repository.CreateActivityParams{
		LeadID:       lead.ID,
		ActivityType: domain.ActivityAssigned,
		Description:  "Lead assigned to " + agent.AgentCode,
		ActorUserID:  &actor.UserID,
		Metadata:     map[string]any{"agentId": req.AgentID.String(), "agentCode": agent.AgentCode},
	}); err != nil {
		s.log.Error("assign activity write failed", "lead_id", lead.ID, "error", err)
	}

	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		ReferenceNumber: lead.ReferenceNumber,
		PreviousAgentID: lead.AgentID,
		NewAgentID:      req.AgentID,
		AssignedByID:    actor.UserID,
	})

	return toLeadResponse(updated), nil
}

// Stats returns the per-status lead counts for the caller's scope.
func (s *Service) Stats(ctx context.Context, actor authz.Actor) (transport.LeadStatsResponse, error) {
	if !s.policy.Can(actor, authz.ActionStatsView, authz.NoResource()) {
		return transport.LeadStatsResponse{}, apperr.Forbidden("not allowed to view lead statistics")
	}

	var agentID *uuid.UUID
	if !s.policy.Can(actor, authz.ActionLeadView, authz.LeadResource(nil)) {
		if actor.AgentID == nil {
			return transport.LeadStatsResponse{}, apperr.Forbidden("an agent profile is required to view lead statistics")
		}
		agentID = actor.AgentID
	}

	counts, err := s.repo.CountLeadsByStatus(ctx, agentID)
	if err != nil {
		return transport.LeadStatsResponse{}, err
	}

	byStatus := make(map[string]int, len(counts))
	total := 0
	for _, count := range counts {
		byStatus[count.Status] = count.Count
		total += count.Count
	}
	return transport.LeadStatsResponse{Total: total, ByStatus: byStatus}, nil
}

// authorizeLead loads a lead and checks the actor may act on it.
func (s *Service) authorizeLead(ctx context.Context, actor authz.Actor, action string, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetLeadByID(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	if !s.policy.Can(actor, action, authz.LeadResource(lead.AgentID)) {
		return repository.Lead{}, apperr.Forbidden("not allowed to access this lead")
	}
	return lead, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func marshalFormData(fields map[string]any) (json.RawMessage, error) {
	if fields == nil {
		return nil, nil
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "form data is not serializable", err)
	}
	return raw, nil
}

// summaryFileName builds reference_slug_date.pdf, with the slug capped
// so object keys stay short.
func summaryFileName(reference, slug string, at time.Time) string {
	slug = strings.ReplaceAll(slug, "/", "-")
	if len(slug) > 20 {
		slug = slug[:20]
	}
	if slug == "" {
		slug = "lead"
	}
	return fmt.Sprintf("%s_%s_%s.pdf", reference, slug, at.Format("20060102"))
}

func leadFolder(id uuid.UUID) string {
	return "leads/" + id.String()
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:              lead.ID,
		ReferenceNumber: lead.ReferenceNumber,
		ProductID:       lead.ProductID,
		AgentID:         lead.AgentID,
		ClientID:        lead.ClientID,
		CustomerName:    lead.CustomerName,
		CustomerEmail:   lead.CustomerEmail,
		CustomerPhone:   lead.CustomerPhone,
		FormData:        lead.FormData,
		Status:          lead.Status,
		Source:          lead.Source,
		PDFURL:          lead.PDFURL,
		ConvertedAt:     lead.ConvertedAt,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}
