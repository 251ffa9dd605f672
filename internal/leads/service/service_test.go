package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bridge_backend/internal/adapters/storage"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	"bridge_backend/internal/leads/domain"
	"bridge_backend/internal/leads/ports"
	"bridge_backend/internal/leads/repository"
	"bridge_backend/internal/leads/transport"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

type fakeTx struct {
	commits   int
	rollbacks int
}

func (t *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (t *fakeTx) Commit(context.Context) error                            { t.commits++; return nil }
func (t *fakeTx) Rollback(context.Context) error                          { t.rollbacks++; return nil }

// fakeLeadRepo keeps everything in memory. WithTx returns the repo
// itself; the recorded fakeTx only tracks commit and rollback calls.
type fakeLeadRepo struct {
	leads      map[uuid.UUID]repository.Lead
	activities []repository.LeadActivity
	documents  []repository.LeadDocument
	forms      map[uuid.UUID]repository.FormTemplate
	yearCounts map[int]int

	tx            *fakeTx
	beginCalls    int
	failActivity  error
	failFormsLeft int
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{
		leads:      make(map[uuid.UUID]repository.Lead),
		forms:      make(map[uuid.UUID]repository.FormTemplate),
		yearCounts: make(map[int]int),
	}
}

func (f *fakeLeadRepo) Begin(context.Context) (repository.Tx, error) {
	f.beginCalls++
	f.tx = &fakeTx{}
	return f.tx, nil
}

func (f *fakeLeadRepo) WithTx(repository.Tx) repository.Repository { return f }

func (f *fakeLeadRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	now := time.Now()
	lead := repository.Lead{
		ID:              uuid.New(),
		ReferenceNumber: params.ReferenceNumber,
		ProductID:       params.ProductID,
		AgentID:         params.AgentID,
		ClientID:        params.ClientID,
		CustomerName:    params.CustomerName,
		CustomerEmail:   params.CustomerEmail,
		CustomerPhone:   params.CustomerPhone,
		FormData:        params.FormData,
		Status:          params.Status,
		Source:          params.Source,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadRepo) GetLeadByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeadRepo) ListLeads(_ context.Context, params repository.ListLeadsParams) ([]repository.Lead, int, error) {
	var out []repository.Lead
	for _, lead := range f.leads {
		if params.AgentID != nil {
			if lead.AgentID == nil || *lead.AgentID != *params.AgentID {
				continue
			}
		}
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeLeadRepo) UpdateLead(_ context.Context, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[params.ID]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if params.CustomerName != nil {
		lead.CustomerName = *params.CustomerName
	}
	if params.CustomerEmail != nil {
		lead.CustomerEmail = *params.CustomerEmail
	}
	if params.CustomerPhone != nil {
		lead.CustomerPhone = *params.CustomerPhone
	}
	if params.FormData != nil {
		lead.FormData = params.FormData
	}
	lead.UpdatedAt = time.Now()
	f.leads[params.ID] = lead
	return lead, nil
}

func (f *fakeLeadRepo) UpdateLeadStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	lead.Status = status
	if status == domain.StatusConverted && lead.ConvertedAt == nil {
		now := time.Now()
		lead.ConvertedAt = &now
	}
	lead.UpdatedAt = time.Now()
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeLeadRepo) AssignLead(_ context.Context, id uuid.UUID, agentID uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	lead.AgentID = &agentID
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeLeadRepo) SetLeadPDF(_ context.Context, id uuid.UUID, objectKey, url string) error {
	lead, ok := f.leads[id]
	if !ok {
		return apperr.NotFound("lead not found")
	}
	lead.PDFObjectKey = &objectKey
	if url != "" {
		lead.PDFURL = &url
	}
	f.leads[id] = lead
	return nil
}

func (f *fakeLeadRepo) DeleteDraftLead(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return apperr.NotFound("lead not found")
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeLeadRepo) CountLeadsInYear(_ context.Context, year int) (int, error) {
	return f.yearCounts[year], nil
}

func (f *fakeLeadRepo) CountLeadsByStatus(_ context.Context, agentID *uuid.UUID) ([]repository.StatusCount, error) {
	counts := make(map[string]int)
	for _, lead := range f.leads {
		if agentID != nil {
			if lead.AgentID == nil || *lead.AgentID != *agentID {
				continue
			}
		}
		counts[lead.Status]++
	}
	out := make([]repository.StatusCount, 0, len(counts))
	for status, count := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (f *fakeLeadRepo) CreateActivity(_ context.Context, params repository.CreateActivityParams) (repository.LeadActivity, error) {
	if f.failActivity != nil {
		return repository.LeadActivity{}, f.failActivity
	}
	activity := repository.LeadActivity{
		ID:           uuid.New(),
		LeadID:       params.LeadID,
		ActivityType: params.ActivityType,
		Description:  params.Description,
		ActorUserID:  params.ActorUserID,
		CreatedAt:    time.Now(),
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

func (f *fakeLeadRepo) ListActivities(_ context.Context, leadID uuid.UUID) ([]repository.LeadActivity, error) {
	var out []repository.LeadActivity
	for i := len(f.activities) - 1; i >= 0; i-- {
		if f.activities[i].LeadID == leadID {
			out = append(out, f.activities[i])
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) CreateDocument(_ context.Context, params repository.CreateDocumentParams) (repository.LeadDocument, error) {
	doc := repository.LeadDocument{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		FileName:    params.FileName,
		ObjectKey:   params.ObjectKey,
		ContentType: params.ContentType,
		SizeBytes:   params.SizeBytes,
		UploadedBy:  params.UploadedBy,
		CreatedAt:   time.Now(),
	}
	f.documents = append(f.documents, doc)
	return doc, nil
}

func (f *fakeLeadRepo) ListDocuments(_ context.Context, leadID uuid.UUID) ([]repository.LeadDocument, error) {
	var out []repository.LeadDocument
	for i := len(f.documents) - 1; i >= 0; i-- {
		if f.documents[i].LeadID == leadID {
			out = append(out, f.documents[i])
		}
	}
	return out, nil
}

func (f *fakeLeadRepo) CreateFormTemplate(_ context.Context, params repository.CreateFormTemplateParams) (repository.FormTemplate, error) {
	if f.failFormsLeft > 0 {
		f.failFormsLeft--
		return repository.FormTemplate{}, apperr.Conflict("share token already exists")
	}
	now := time.Now()
	form := repository.FormTemplate{
		ID:          uuid.New(),
		ProductID:   params.ProductID,
		Title:       params.Title,
		Description: params.Description,
		Schema:      params.Schema,
		ShareToken:  params.ShareToken,
		IsActive:    true,
		ExpiresAt:   params.ExpiresAt,
		CreatedBy:   params.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.forms[form.ID] = form
	return form, nil
}

func (f *fakeLeadRepo) GetFormTemplateByID(_ context.Context, id uuid.UUID) (repository.FormTemplate, error) {
	form, ok := f.forms[id]
	if !ok {
		return repository.FormTemplate{}, apperr.NotFound("form template not found")
	}
	return form, nil
}

func (f *fakeLeadRepo) GetFormTemplateByToken(_ context.Context, token string) (repository.FormTemplate, error) {
	for _, form := range f.forms {
		if form.ShareToken == token {
			return form, nil
		}
	}
	return repository.FormTemplate{}, apperr.NotFound("form not found")
}

func (f *fakeLeadRepo) ListFormTemplates(_ context.Context, params repository.ListFormTemplatesParams) ([]repository.FormTemplate, int, error) {
	var out []repository.FormTemplate
	for _, form := range f.forms {
		if params.ProductID != nil && form.ProductID != *params.ProductID {
			continue
		}
		out = append(out, form)
	}
	return out, len(out), nil
}

func (f *fakeLeadRepo) UpdateFormTemplate(_ context.Context, params repository.UpdateFormTemplateParams) (repository.FormTemplate, error) {
	form, ok := f.forms[params.ID]
	if !ok {
		return repository.FormTemplate{}, apperr.NotFound("form template not found")
	}
	if params.Title != nil {
		form.Title = *params.Title
	}
	if params.Description != nil {
		form.Description = *params.Description
	}
	if params.Schema != nil {
		form.Schema = params.Schema
	}
	if params.IsActive != nil {
		form.IsActive = *params.IsActive
	}
	if params.ExpiresAtSet {
		form.ExpiresAt = params.ExpiresAt
	}
	form.UpdatedAt = time.Now()
	f.forms[params.ID] = form
	return form, nil
}

type fakeCatalog struct {
	products map[uuid.UUID]ports.ProductInfo
}

func (f fakeCatalog) GetProduct(_ context.Context, id uuid.UUID) (ports.ProductInfo, error) {
	product, ok := f.products[id]
	if !ok {
		return ports.ProductInfo{}, apperr.NotFound("product not found")
	}
	return product, nil
}

// fakeClients resolves by exact phone match, then exact email match,
// then creates, mirroring the clients context contract.
type fakeClients struct {
	records []ports.ClientRecord
	created int
}

func (f *fakeClients) Resolve(_ context.Context, _ ports.DBTX, name, phone, email string) (ports.ClientRecord, error) {
	for _, r := range f.records {
		if r.Phone == phone {
			return r, nil
		}
	}
	if email != "" {
		for _, r := range f.records {
			if r.Email == email {
				return r, nil
			}
		}
	}
	record := ports.ClientRecord{ID: uuid.New(), Name: name, Phone: phone, Email: email}
	f.records = append(f.records, record)
	f.created++
	return record, nil
}

func (f *fakeClients) GetClientByID(_ context.Context, id uuid.UUID) (ports.ClientRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return ports.ClientRecord{}, apperr.NotFound("client not found")
}

type fakeLeadUsers struct {
	byID map[uuid.UUID]ports.UserInfo
}

func (f fakeLeadUsers) GetUsersByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]ports.UserInfo, error) {
	out := make(map[uuid.UUID]ports.UserInfo)
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeAgentDirectory struct {
	agents map[uuid.UUID]ports.AgentInfo
}

func (f fakeAgentDirectory) GetAgent(_ context.Context, id uuid.UUID) (ports.AgentInfo, error) {
	agent, ok := f.agents[id]
	if !ok {
		return ports.AgentInfo{}, apperr.NotFound("agent not found")
	}
	return agent, nil
}

type fakeRenderer struct {
	calls int
	fail  error
}

func (f *fakeRenderer) RenderLeadSummary(context.Context, ports.LeadSummaryData) ([]byte, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	return []byte("%PDF-1.7 summary"), nil
}

type storedObject struct {
	bucket      string
	key         string
	contentType string
}

type fakeObjectStore struct {
	uploads    []storedObject
	failUpload error
}

func (f *fakeObjectStore) UploadFile(_ context.Context, bucket, folder, fileName, contentType string, _ io.Reader, _ int64) (string, error) {
	if f.failUpload != nil {
		return "", f.failUpload
	}
	key := folder + "/" + fileName
	f.uploads = append(f.uploads, storedObject{bucket: bucket, key: key, contentType: contentType})
	return key, nil
}

func (f *fakeObjectStore) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://files.test/" + bucket + "/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeObjectStore) DeleteObject(context.Context, string, string) error { return nil }
func (f *fakeObjectStore) EnsureBucketExists(context.Context, string) error   { return nil }
func (f *fakeObjectStore) ValidateContentType(string) error                   { return nil }
func (f *fakeObjectStore) ValidateFileSize(int64) error                       { return nil }
func (f *fakeObjectStore) GetMaxFileSize() int64                              { return 10 << 20 }
func (f *fakeObjectStore) Ping(context.Context) error                         { return nil }

var _ storage.StorageService = (*fakeObjectStore)(nil)

type fakeLeadBus struct {
	published []events.Event
}

func (b *fakeLeadBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeLeadBus) Subscribe(string, events.Handler) {}

func (b *fakeLeadBus) names() []string {
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type testShareConfig struct{}

func (testShareConfig) GetAppBaseURL() string { return "https://bridge.app" }

// fixture wires a service against in-memory fakes.
type fixture struct {
	svc      *Service
	repo     *fakeLeadRepo
	catalog  fakeCatalog
	clients  *fakeClients
	agents   fakeAgentDirectory
	renderer *fakeRenderer
	store    *fakeObjectStore
	bus      *fakeLeadBus

	productID uuid.UUID
	agentID   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:      newFakeLeadRepo(),
		clients:   &fakeClients{},
		renderer:  &fakeRenderer{},
		store:     &fakeObjectStore{},
		bus:       &fakeLeadBus{},
		productID: uuid.New(),
		agentID:   uuid.New(),
	}
	f.catalog = fakeCatalog{products: map[uuid.UUID]ports.ProductInfo{
		f.productID: {
			ID:              f.productID,
			Name:            "Family Health Shield",
			Slug:            "family-health-shield",
			SubCategoryName: "Health Insurance",
			ProviderName:    "Aegis Mutual",
			IsActive:        true,
		},
	}}
	f.agents = fakeAgentDirectory{agents: map[uuid.UUID]ports.AgentInfo{
		f.agentID: {ID: f.agentID, AgentCode: "AGT4821", DisplayName: "Asha Verma", Status: "active"},
	}}
	f.svc = New(
		f.repo, f.catalog, f.clients, fakeLeadUsers{byID: map[uuid.UUID]ports.UserInfo{}}, f.agents,
		f.renderer, f.store, "lead-documents", "lead-pdfs",
		testShareConfig{}, authz.NewPolicy(), f.bus, logger.New("development"),
	)
	return f
}

func (f *fixture) agentActor() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Roles: []string{authz.RoleAgent}, AgentID: &f.agentID}
}

func (f *fixture) adminActor() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Roles: []string{authz.RoleAdmin}}
}

func (f *fixture) createRequest() transport.CreateLeadRequest {
	return transport.CreateLeadRequest{
		ProductID:     f.productID,
		CustomerName:  "Ravi Patel",
		CustomerPhone: "+919876543210",
		CustomerEmail: "ravi@example.com",
		FormData:      map[string]any{"sumInsured": "500000"},
	}
}

func activityTypes(activities []repository.LeadActivity) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		out = append(out, a.ActivityType)
	}
	return out
}

func TestCreateSubmitsLeadWithSummary(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }

	resp, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if resp.ReferenceNumber != "HI-2026-1" {
		t.Fatalf("expected reference HI-2026-1, got %q", resp.ReferenceNumber)
	}
	if resp.Status != domain.StatusSubmitted {
		t.Fatalf("expected status submitted, got %q", resp.Status)
	}
	if resp.Source != domain.SourceAgentPortal {
		t.Fatalf("expected source agent_portal, got %q", resp.Source)
	}
	if resp.AgentID == nil || *resp.AgentID != f.agentID {
		t.Fatalf("expected lead bound to agent %s, got %v", f.agentID, resp.AgentID)
	}
	if f.repo.tx == nil || f.repo.tx.commits != 1 {
		t.Fatalf("expected one committed transaction, got %+v", f.repo.tx)
	}

	if f.renderer.calls != 1 {
		t.Fatalf("expected one summary render, got %d", f.renderer.calls)
	}
	if len(f.store.uploads) != 1 || f.store.uploads[0].bucket != "lead-pdfs" {
		t.Fatalf("expected summary upload into lead-pdfs, got %+v", f.store.uploads)
	}
	stored := f.repo.leads[resp.ID]
	if stored.PDFObjectKey == nil || !strings.HasSuffix(*stored.PDFObjectKey, ".pdf") {
		t.Fatalf("expected pdf object key stamped, got %v", stored.PDFObjectKey)
	}

	types := activityTypes(f.repo.activities)
	if len(types) != 2 || types[0] != domain.ActivityCreated || types[1] != domain.ActivityDocumentUploaded {
		t.Fatalf("expected created then document_uploaded activities, got %v", types)
	}
	if names := f.bus.names(); len(names) != 1 || names[0] != "leads.lead.created" {
		t.Fatalf("expected a lead created event, got %v", names)
	}
}

func TestCreateRejectsInactiveProduct(t *testing.T) {
	f := newFixture()
	inactive := uuid.New()
	f.catalog.products[inactive] = ports.ProductInfo{ID: inactive, SubCategoryName: "Term Life", IsActive: false}

	req := f.createRequest()
	req.ProductID = inactive
	_, err := f.svc.Create(context.Background(), f.agentActor(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}
	if f.repo.beginCalls != 0 || len(f.repo.leads) != 0 {
		t.Fatalf("expected no write for inactive product, got %d begins and %d leads", f.repo.beginCalls, len(f.repo.leads))
	}
}

func TestCreateRejectsUnknownProduct(t *testing.T) {
	f := newFixture()
	req := f.createRequest()
	req.ProductID = uuid.New()

	_, err := f.svc.Create(context.Background(), f.agentActor(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestCreateDraftSkipsSummary(t *testing.T) {
	f := newFixture()
	req := f.createRequest()
	req.SaveAsDraft = true

	resp, err := f.svc.Create(context.Background(), f.agentActor(), req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.Status != domain.StatusDraft {
		t.Fatalf("expected draft status, got %q", resp.Status)
	}
	if f.renderer.calls != 0 {
		t.Fatalf("expected no summary render for a draft, got %d", f.renderer.calls)
	}
	if stored := f.repo.leads[resp.ID]; stored.PDFObjectKey != nil {
		t.Fatalf("expected no pdf on a draft, got %v", *stored.PDFObjectKey)
	}
}

func TestCreateSurvivesSummaryFailure(t *testing.T) {
	f := newFixture()
	f.renderer.fail = errors.New("gotenberg unreachable")

	resp, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create should not surface render failures, got %v", err)
	}
	stored, ok := f.repo.leads[resp.ID]
	if !ok || stored.Status != domain.StatusSubmitted {
		t.Fatalf("expected committed submitted lead despite render failure, got %+v", stored)
	}
	if stored.PDFObjectKey != nil {
		t.Fatalf("expected no pdf stamp after render failure, got %v", *stored.PDFObjectKey)
	}
	types := activityTypes(f.repo.activities)
	if len(types) != 1 || types[0] != domain.ActivityCreated {
		t.Fatalf("expected only the created activity, got %v", types)
	}
	if names := f.bus.names(); len(names) != 1 || names[0] != "leads.lead.created" {
		t.Fatalf("expected the created event regardless of pdf, got %v", names)
	}
}

func TestCreateSurvivesUploadFailure(t *testing.T) {
	f := newFixture()
	f.store.failUpload = errors.New("minio offline")

	resp, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create should not surface upload failures, got %v", err)
	}
	if stored := f.repo.leads[resp.ID]; stored.PDFObjectKey != nil {
		t.Fatalf("expected no pdf stamp after upload failure, got %v", *stored.PDFObjectKey)
	}
}

func TestCreateAbortsWhenActivityWriteFails(t *testing.T) {
	f := newFixture()
	f.repo.failActivity = errors.New("activities table gone")

	_, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err == nil {
		t.Fatal("expected creation to fail when the trail write fails")
	}
	if f.repo.tx == nil || f.repo.tx.commits != 0 {
		t.Fatalf("expected the transaction to stay uncommitted, got %+v", f.repo.tx)
	}
	if len(f.bus.published) != 0 {
		t.Fatalf("expected no events for an aborted creation, got %v", f.bus.names())
	}
}

func TestCreateContinuesReferenceSequence(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC) }
	f.repo.yearCounts[2026] = 41

	resp, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.ReferenceNumber != "HI-2026-42" {
		t.Fatalf("expected reference HI-2026-42, got %q", resp.ReferenceNumber)
	}
}

func TestCreateReusesClientByExactPhone(t *testing.T) {
	f := newFixture()
	existing := ports.ClientRecord{ID: uuid.New(), Name: "Ravi P", Phone: "+919876543210", Email: "old@example.com"}
	f.clients.records = append(f.clients.records, existing)

	resp, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if resp.ClientID != existing.ID {
		t.Fatalf("expected lead attached to existing client %s, got %s", existing.ID, resp.ClientID)
	}
	if f.clients.created != 0 {
		t.Fatalf("expected no new client, got %d", f.clients.created)
	}
}

func TestCreateForbiddenWithoutGrant(t *testing.T) {
	f := newFixture()
	actor := authz.Actor{UserID: uuid.New(), Roles: []string{authz.RoleNewUser}}

	_, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for new_user role, got %v", err)
	}
}

func TestUpdateOnlyTouchesDrafts(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	req := f.createRequest()
	req.SaveAsDraft = true
	draft, err := f.svc.Create(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	newName := "Ravi B Patel"
	updated, err := f.svc.Update(context.Background(), actor, draft.ID, transport.UpdateLeadRequest{CustomerName: &newName})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.CustomerName != newName {
		t.Fatalf("expected updated name, got %q", updated.CustomerName)
	}

	submitted, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err = f.svc.Update(context.Background(), actor, submitted.ID, transport.UpdateLeadRequest{CustomerName: &newName})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict editing a submitted lead, got %v", err)
	}
}

func TestSubmitMovesDraftAndAttachesSummary(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	req := f.createRequest()
	req.SaveAsDraft = true
	draft, err := f.svc.Create(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if f.renderer.calls != 0 {
		t.Fatalf("expected no render before submit, got %d", f.renderer.calls)
	}

	resp, err := f.svc.Submit(context.Background(), actor, draft.ID)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if resp.Status != domain.StatusSubmitted {
		t.Fatalf("expected submitted status, got %q", resp.Status)
	}
	if f.renderer.calls != 1 {
		t.Fatalf("expected summary render on submit, got %d", f.renderer.calls)
	}

	if _, err := f.svc.Submit(context.Background(), actor, draft.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict submitting twice, got %v", err)
	}
}

func TestUpdateStatusRecordsTrailAndEvent(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	resp, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateStatusRequest{
		Status: domain.StatusInProgress,
		Note:   "called the customer",
	})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if resp.Status != domain.StatusInProgress {
		t.Fatalf("expected in_progress, got %q", resp.Status)
	}

	last := f.repo.activities[len(f.repo.activities)-1]
	if last.ActivityType != domain.ActivityStatusChange {
		t.Fatalf("expected a status_change activity, got %q", last.ActivityType)
	}
	if !strings.Contains(last.Description, "called the customer") {
		t.Fatalf("expected the note on the trail, got %q", last.Description)
	}

	names := f.bus.names()
	if names[len(names)-1] != "leads.lead.status_changed" {
		t.Fatalf("expected a status changed event, got %v", names)
	}
	event := f.bus.published[len(f.bus.published)-1].(events.LeadStatusChanged)
	if event.OldStatus != domain.StatusSubmitted || event.NewStatus != domain.StatusInProgress {
		t.Fatalf("unexpected transition %s -> %s", event.OldStatus, event.NewStatus)
	}
	if event.AgentID == nil || *event.AgentID != f.agentID {
		t.Fatalf("expected the lead's agent on the event, got %v", event.AgentID)
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	before := len(f.bus.published)

	resp, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateStatusRequest{Status: domain.StatusSubmitted})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if resp.Status != domain.StatusSubmitted {
		t.Fatalf("expected status unchanged, got %q", resp.Status)
	}
	if len(f.bus.published) != before {
		t.Fatalf("expected no event for a no-op transition, got %v", f.bus.names())
	}
}

func TestUpdateStatusConvertedStampsTime(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	resp, err := f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateStatusRequest{Status: domain.StatusConverted})
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if resp.ConvertedAt == nil {
		t.Fatal("expected converted_at stamped on conversion")
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err = f.svc.UpdateStatus(context.Background(), actor, lead.ID, transport.UpdateStatusRequest{Status: "archived"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestDeleteOnlyRemovesDrafts(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	req := f.createRequest()
	req.SaveAsDraft = true
	draft, err := f.svc.Create(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := f.svc.Delete(context.Background(), actor, draft.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := f.repo.leads[draft.ID]; ok {
		t.Fatal("expected draft removed from storage")
	}

	submitted, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := f.svc.Delete(context.Background(), actor, submitted.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict deleting a submitted lead, got %v", err)
	}
	if _, ok := f.repo.leads[submitted.ID]; !ok {
		t.Fatal("expected submitted lead untouched")
	}
}

func TestListScopesAgentsToTheirOwnLeads(t *testing.T) {
	f := newFixture()
	mine := f.agentActor()

	if _, err := f.svc.Create(context.Background(), mine, f.createRequest()); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	otherAgent := uuid.New()
	other := authz.Actor{UserID: uuid.New(), Roles: []string{authz.RoleAgent}, AgentID: &otherAgent}
	req := f.createRequest()
	req.CustomerPhone = "+919812345678"
	if _, err := f.svc.Create(context.Background(), other, req); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	page, err := f.svc.List(context.Background(), mine, transport.ListLeadsRequest{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Total != 1 || len(page.Leads) != 1 {
		t.Fatalf("expected the agent to see one lead, got %d", page.Total)
	}
	if page.Leads[0].AgentID == nil || *page.Leads[0].AgentID != f.agentID {
		t.Fatalf("expected own lead only, got %v", page.Leads[0].AgentID)
	}

	all, err := f.svc.List(context.Background(), f.adminActor(), transport.ListLeadsRequest{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if all.Total != 2 {
		t.Fatalf("expected the admin to see both leads, got %d", all.Total)
	}
}

func TestGetDeniesForeignLead(t *testing.T) {
	f := newFixture()

	lead, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	otherAgent := uuid.New()
	stranger := authz.Actor{UserID: uuid.New(), Roles: []string{authz.RoleAgent}, AgentID: &otherAgent}
	if _, err := f.svc.Get(context.Background(), stranger, lead.ID); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for another agent's lead, got %v", err)
	}

	detail, err := f.svc.Get(context.Background(), f.adminActor(), lead.ID)
	if err != nil {
		t.Fatalf("admin Get returned error: %v", err)
	}
	if detail.Product == nil || detail.Product.Name != "Family Health Shield" {
		t.Fatalf("expected product context on detail, got %+v", detail.Product)
	}
	if detail.Client == nil || detail.Client.Phone != "+919876543210" {
		t.Fatalf("expected client context on detail, got %+v", detail.Client)
	}
}

func TestAssignVetsTargetAgent(t *testing.T) {
	f := newFixture()
	admin := f.adminActor()

	lead, err := f.svc.Create(context.Background(), f.agentActor(), f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	suspended := uuid.New()
	f.agents.agents[suspended] = ports.AgentInfo{ID: suspended, AgentCode: "AGT9001", Status: "suspended"}
	_, err = f.svc.Assign(context.Background(), admin, lead.ID, transport.AssignLeadRequest{AgentID: suspended})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error assigning to a suspended agent, got %v", err)
	}

	_, err = f.svc.Assign(context.Background(), admin, lead.ID, transport.AssignLeadRequest{AgentID: uuid.New()})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error assigning to an unknown agent, got %v", err)
	}

	resp, err := f.svc.Assign(context.Background(), admin, lead.ID, transport.AssignLeadRequest{AgentID: f.agentID})
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if resp.AgentID == nil || *resp.AgentID != f.agentID {
		t.Fatalf("expected lead handed to %s, got %v", f.agentID, resp.AgentID)
	}

	names := f.bus.names()
	if names[len(names)-1] != "leads.lead.assigned" {
		t.Fatalf("expected an assigned event, got %v", names)
	}
	last := f.repo.activities[len(f.repo.activities)-1]
	if last.ActivityType != domain.ActivityAssigned || !strings.Contains(last.Description, "AGT4821") {
		t.Fatalf("expected an assignment trail entry naming the agent code, got %+v", last)
	}
}

func TestAssignRequiresGrant(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err = f.svc.Assign(context.Background(), actor, lead.ID, transport.AssignLeadRequest{AgentID: f.agentID})
	if !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("expected forbidden for agent-initiated assignment, got %v", err)
	}
}

func TestStatsCountByStatusWithinScope(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	if _, err := f.svc.Create(context.Background(), actor, f.createRequest()); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	req := f.createRequest()
	req.SaveAsDraft = true
	req.CustomerPhone = "+919812345678"
	if _, err := f.svc.Create(context.Background(), actor, req); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	stats, err := f.svc.Stats(context.Background(), actor)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.Total != 2 {
		t.Fatalf("expected two leads in scope, got %d", stats.Total)
	}
	if stats.ByStatus[domain.StatusSubmitted] != 1 || stats.ByStatus[domain.StatusDraft] != 1 {
		t.Fatalf("unexpected per-status counts: %v", stats.ByStatus)
	}
}

func TestAddNoteRejectsEmptyAfterSanitizing(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err = f.svc.AddNote(context.Background(), actor, lead.ID, transport.AddNoteRequest{Note: "<p></p>"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for an empty note, got %v", err)
	}

	resp, err := f.svc.AddNote(context.Background(), actor, lead.ID, transport.AddNoteRequest{Note: "Prefers evening calls"})
	if err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}
	if resp.ActivityType != domain.ActivityNoteAdded {
		t.Fatalf("expected note_added, got %q", resp.ActivityType)
	}
}

func TestListActivitiesNewestFirst(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := f.svc.AddNote(context.Background(), actor, lead.ID, transport.AddNoteRequest{Note: "first note"}); err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}
	if _, err := f.svc.AddNote(context.Background(), actor, lead.ID, transport.AddNoteRequest{Note: "second note"}); err != nil {
		t.Fatalf("AddNote returned error: %v", err)
	}

	trail, err := f.svc.ListActivities(context.Background(), actor, lead.ID)
	if err != nil {
		t.Fatalf("ListActivities returned error: %v", err)
	}
	if len(trail.Activities) < 3 {
		t.Fatalf("expected at least three entries, got %d", len(trail.Activities))
	}
	if trail.Activities[0].Description != "second note" {
		t.Fatalf("expected newest entry first, got %q", trail.Activities[0].Description)
	}
	if last := trail.Activities[len(trail.Activities)-1]; last.ActivityType != domain.ActivityCreated {
		t.Fatalf("expected the created entry last, got %q", last.ActivityType)
	}
}

func TestUploadDocumentStoresAndRecords(t *testing.T) {
	f := newFixture()
	actor := f.agentActor()

	lead, err := f.svc.Create(context.Background(), actor, f.createRequest())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	doc, err := f.svc.UploadDocument(context.Background(), actor, lead.ID, DocumentUpload{
		FileName:    "policy-scan.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		Reader:      strings.NewReader("%PDF-1.7 scan"),
	})
	if err != nil {
		t.Fatalf("UploadDocument returned error: %v", err)
	}
	if doc.DownloadURL == nil {
		t.Fatal("expected a presigned download link")
	}

	var docUpload storedObject
	for _, u := range f.store.uploads {
		if u.bucket == "lead-documents" {
			docUpload = u
		}
	}
	if docUpload.bucket != "lead-documents" {
		t.Fatalf("expected upload into lead-documents, got %+v", f.store.uploads)
	}
	if !strings.HasPrefix(docUpload.key, "leads/"+lead.ID.String()+"/") {
		t.Fatalf("expected object key under the lead folder, got %q", docUpload.key)
	}

	list, err := f.svc.ListDocuments(context.Background(), actor, lead.ID)
	if err != nil {
		t.Fatalf("ListDocuments returned error: %v", err)
	}
	if len(list.Documents) != 1 || list.Documents[0].FileName != "policy-scan.pdf" {
		t.Fatalf("expected the stored document listed, got %+v", list.Documents)
	}
}
