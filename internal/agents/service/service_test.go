package service

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"bridge_backend/internal/agents/codegen"
	"bridge_backend/internal/agents/ports"
	"bridge_backend/internal/agents/repository"
	"bridge_backend/internal/agents/transport"
	"bridge_backend/internal/events"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
)

type fakeAgentRepo struct {
	byUser map[uuid.UUID]repository.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{byUser: make(map[uuid.UUID]repository.Agent)}
}

func (f *fakeAgentRepo) CreateAgent(_ context.Context, params repository.CreateAgentParams) (repository.Agent, error) {
	if _, exists := f.byUser[params.UserID]; exists {
		return repository.Agent{}, apperr.Conflict("user already has an agent profile")
	}
	rate := 5.0
	if params.CommissionRate != nil {
		rate = *params.CommissionRate
	}
	agent := repository.Agent{
		ID:             uuid.New(),
		UserID:         params.UserID,
		AgentCode:      params.AgentCode,
		CommissionRate: rate,
		Status:         "pending",
		Phone:          params.Phone,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	f.byUser[params.UserID] = agent
	return agent, nil
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	for _, a := range f.byUser {
		if a.ID == id {
			return a, nil
		}
	}
	return repository.Agent{}, apperr.NotFound("agent not found")
}

func (f *fakeAgentRepo) GetByUserID(_ context.Context, userID uuid.UUID) (repository.Agent, error) {
	a, ok := f.byUser[userID]
	if !ok {
		return repository.Agent{}, apperr.NotFound("agent not found")
	}
	return a, nil
}

func (f *fakeAgentRepo) AgentIDForUser(_ context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	if a, ok := f.byUser[userID]; ok {
		id := a.ID
		return &id, nil
	}
	return nil, nil
}

func (f *fakeAgentRepo) CodeExists(_ context.Context, code string) (bool, error) {
	for _, a := range f.byUser {
		if a.AgentCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAgentRepo) UpdateSelf(_ context.Context, params repository.UpdateSelfParams) (repository.Agent, error) {
	for userID, a := range f.byUser {
		if a.ID == params.AgentID {
			if params.Phone != nil {
				a.Phone = params.Phone
			}
			if params.KycDocumentType != nil {
				a.KycDocumentType = params.KycDocumentType
			}
			if params.KycDocumentNumber != nil {
				a.KycDocumentNumber = params.KycDocumentNumber
			}
			f.byUser[userID] = a
			return a, nil
		}
	}
	return repository.Agent{}, apperr.NotFound("agent not found")
}

func (f *fakeAgentRepo) AdminUpdate(_ context.Context, params repository.AdminUpdateParams) (repository.Agent, error) {
	for userID, a := range f.byUser {
		if a.ID == params.AgentID {
			if params.CommissionRate != nil {
				a.CommissionRate = *params.CommissionRate
			}
			if params.Status != nil {
				a.Status = *params.Status
			}
			if params.KycVerified != nil {
				a.KycVerified = *params.KycVerified
			}
			f.byUser[userID] = a
			return a, nil
		}
	}
	return repository.Agent{}, apperr.NotFound("agent not found")
}

func (f *fakeAgentRepo) List(_ context.Context, _ repository.ListAgentsParams) ([]repository.Agent, int, error) {
	var out []repository.Agent
	for _, a := range f.byUser {
		out = append(out, a)
	}
	return out, len(out), nil
}

type fakeUsers struct {
	byID map[uuid.UUID]ports.UserInfo
}

func (f fakeUsers) GetUserByID(_ context.Context, userID uuid.UUID) (ports.UserInfo, error) {
	u, ok := f.byID[userID]
	if !ok {
		return ports.UserInfo{}, apperr.NotFound("user not found")
	}
	return u, nil
}

func (f fakeUsers) GetUsersByIDs(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]ports.UserInfo, error) {
	out := make(map[uuid.UUID]ports.UserInfo)
	for _, id := range userIDs {
		if u, ok := f.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type fakeRoles struct {
	granted []string
}

func (f *fakeRoles) GrantRole(_ context.Context, _ uuid.UUID, role string) error {
	f.granted = append(f.granted, role)
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

type testReferralConfig struct{}

func (testReferralConfig) GetReferralBaseURL() string { return "https://bridge.app" }

func newTestService(repo repository.Repository, users ports.UserProvider, roles ports.RoleGranter, bus events.Bus) *Service {
	return New(repo, codegen.New(repo), users, roles, bus, testReferralConfig{}, logger.New("development"))
}

func activeUser() (uuid.UUID, fakeUsers) {
	userID := uuid.New()
	return userID, fakeUsers{byID: map[uuid.UUID]ports.UserInfo{
		userID: {ID: userID, Email: "agent@example.com", DisplayName: "Asha Verma", IsActive: true},
	}}
}

func TestPromoteAssignsCodeAndGrantsRole(t *testing.T) {
	repo := newFakeAgentRepo()
	userID, users := activeUser()
	roles := &fakeRoles{}
	bus := &fakeBus{}
	svc := newTestService(repo, users, roles, bus)

	resp, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID})
	if err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}

	if !regexp.MustCompile(`^AGT\d{4}$`).MatchString(resp.AgentCode) {
		t.Fatalf("agent code %q does not match AGT + four digits", resp.AgentCode)
	}
	if resp.ReferralLink != "https://bridge.app/ref/"+resp.AgentCode {
		t.Fatalf("unexpected referral link %q", resp.ReferralLink)
	}
	if resp.CommissionRate != 5.0 {
		t.Fatalf("expected default commission rate 5.0, got %v", resp.CommissionRate)
	}
	if len(roles.granted) != 1 || roles.granted[0] != "agent" {
		t.Fatalf("expected the agent role to be granted, got %v", roles.granted)
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "agents.agent.promoted" {
		t.Fatalf("expected a promoted event, got %v", bus.published)
	}
}

func TestPromoteRejectsUnknownUser(t *testing.T) {
	repo := newFakeAgentRepo()
	_, users := activeUser()
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	_, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: uuid.New()})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
}

func TestPromoteRejectsDeactivatedUser(t *testing.T) {
	repo := newFakeAgentRepo()
	userID := uuid.New()
	users := fakeUsers{byID: map[uuid.UUID]ports.UserInfo{
		userID: {ID: userID, Email: "off@example.com", IsActive: false},
	}}
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	_, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for deactivated user, got %v", err)
	}
}

func TestPromoteRejectsSecondProfile(t *testing.T) {
	repo := newFakeAgentRepo()
	userID, users := activeUser()
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	if _, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID}); err != nil {
		t.Fatalf("first promotion failed: %v", err)
	}
	_, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict for second promotion, got %v", err)
	}
}

func TestPromoteRejectsImplausiblePhone(t *testing.T) {
	repo := newFakeAgentRepo()
	userID, users := activeUser()
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	bad := "12345"
	_, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID, Phone: &bad})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for implausible phone, got %v", err)
	}
}

func TestUpdateMyProfileRoundTrip(t *testing.T) {
	repo := newFakeAgentRepo()
	userID, users := activeUser()
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	if _, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID}); err != nil {
		t.Fatalf("promotion failed: %v", err)
	}

	docType := "pan"
	docNumber := "ABCDE1234F"
	validPhone := "+919876543210"
	resp, err := svc.UpdateMyProfile(context.Background(), userID, transport.UpdateMyProfileRequest{
		Phone:             &validPhone,
		KycDocumentType:   &docType,
		KycDocumentNumber: &docNumber,
	})
	if err != nil {
		t.Fatalf("UpdateMyProfile returned error: %v", err)
	}
	if resp.KycDocumentType == nil || *resp.KycDocumentType != "pan" {
		t.Fatalf("expected kyc document type to round-trip, got %v", resp.KycDocumentType)
	}
	if resp.Phone == nil || !strings.HasPrefix(*resp.Phone, "+91") {
		t.Fatalf("expected phone in international display format, got %v", resp.Phone)
	}
}

func TestReferralQRProducesPNG(t *testing.T) {
	repo := newFakeAgentRepo()
	userID, users := activeUser()
	svc := newTestService(repo, users, &fakeRoles{}, &fakeBus{})

	if _, err := svc.Promote(context.Background(), transport.PromoteAgentRequest{UserID: userID}); err != nil {
		t.Fatalf("promotion failed: %v", err)
	}

	png, err := svc.ReferralQR(context.Background(), userID, 256)
	if err != nil {
		t.Fatalf("ReferralQR returned error: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected PNG output, got leading bytes %v", png[:4])
	}
}
