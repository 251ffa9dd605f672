// Package service implements agent lifecycle operations: promotion, profile
// management, and referral material.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"bridge_backend/internal/agents/codegen"
	"bridge_backend/internal/agents/ports"
	"bridge_backend/internal/agents/repository"
	"bridge_backend/internal/agents/transport"
	"bridge_backend/internal/authz"
	"bridge_backend/internal/events"
	"bridge_backend/platform/apperr"
	"bridge_backend/platform/logger"
	"bridge_backend/platform/phone"
)

// ReferralConfig supplies the public base URL referral links are built on.
type ReferralConfig interface {
	GetReferralBaseURL() string
}

// Contact is the agent contact view used by notification flows.
type Contact struct {
	UserID      uuid.UUID
	AgentCode   string
	Email       string
	DisplayName string
}

// Service provides business logic for agents.
type Service struct {
	repo    repository.Repository
	codes   *codegen.Generator
	users   ports.UserProvider
	roles   ports.RoleGranter
	bus     events.Bus
	log     *logger.Logger
	refBase string
}

// New creates a new agents service.
func New(repo repository.Repository, codes *codegen.Generator, users ports.UserProvider, roles ports.RoleGranter, bus events.Bus, cfg ReferralConfig, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		codes:   codes,
		users:   users,
		roles:   roles,
		bus:     bus,
		log:     log,
		refBase: strings.TrimRight(cfg.GetReferralBaseURL(), "/"),
	}
}

// Promote turns an existing user into an agent: a code is assigned, the
// agent role granted, and the promotion announced on the bus.
func (s *Service) Promote(ctx context.Context, req transport.PromoteAgentRequest) (transport.AgentResponse, error) {
	user, err := s.users.GetUserByID(ctx, req.UserID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	if !user.IsActive {
		return transport.AgentResponse{}, apperr.Validation("cannot promote a deactivated user")
	}

	existing, err := s.repo.AgentIDForUser(ctx, req.UserID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	if existing != nil {
		return transport.AgentResponse{}, apperr.Conflict("user already has an agent profile")
	}

	if req.Phone != nil && *req.Phone != "" && !phone.IsPlausible(*req.Phone) {
		return transport.AgentResponse{}, apperr.Validation("phone number is not plausible")
	}

	code, err := s.codes.NextCode(ctx)
	if err != nil {
		return transport.AgentResponse{}, err
	}

	agent, err := s.repo.CreateAgent(ctx, repository.CreateAgentParams{
		UserID:         req.UserID,
		AgentCode:      code,
		CommissionRate: req.CommissionRate,
		Phone:          req.Phone,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	if err := s.roles.GrantRole(ctx, req.UserID, authz.RoleAgent); err != nil {
		// The profile exists; the grant can be repaired via role management.
		s.log.Error("grant agent role failed", "user_id", req.UserID, "error", err)
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent promoted", "agent_id", agent.ID, "agent_code", agent.AgentCode)
	s.bus.Publish(ctx, events.AgentPromoted{
		BaseEvent: events.NewBaseEvent(),
		AgentID:   agent.ID,
		UserID:    agent.UserID,
		AgentCode: agent.AgentCode,
	})

	return s.toResponse(agent, user), nil
}

// GetMyProfile returns the calling agent's own profile.
func (s *Service) GetMyProfile(ctx context.Context, userID uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return s.toResponse(agent, user), nil
}

// UpdateMyProfile updates the agent-editable fields of the caller's profile.
func (s *Service) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req transport.UpdateMyProfileRequest) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return transport.AgentResponse{}, err
	}

	if req.Phone != nil && *req.Phone != "" && !phone.IsPlausible(*req.Phone) {
		return transport.AgentResponse{}, apperr.Validation("phone number is not plausible")
	}

	updated, err := s.repo.UpdateSelf(ctx, repository.UpdateSelfParams{
		AgentID:           agent.ID,
		Phone:             req.Phone,
		KycDocumentType:   req.KycDocumentType,
		KycDocumentNumber: req.KycDocumentNumber,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return s.toResponse(updated, user), nil
}

// ReferralQR renders the caller's referral link as a PNG QR code.
func (s *Service) ReferralQR(ctx context.Context, userID uuid.UUID, size int) ([]byte, error) {
	agent, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if size < 128 {
		size = 128
	}
	if size > 1024 {
		size = 1024
	}

	png, err := qrcode.Encode(s.referralLink(agent.AgentCode), qrcode.Medium, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "render referral qr", err)
	}
	return png, nil
}

// AdminGet returns any agent's profile for the admin console.
func (s *Service) AdminGet(ctx context.Context, agentID uuid.UUID) (transport.AgentResponse, error) {
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	user, err := s.users.GetUserByID(ctx, agent.UserID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return s.toResponse(agent, user), nil
}

// AdminUpdate changes the admin-controlled fields of an agent.
func (s *Service) AdminUpdate(ctx context.Context, agentID uuid.UUID, req transport.AdminUpdateAgentRequest) (transport.AgentResponse, error) {
	agent, err := s.repo.AdminUpdate(ctx, repository.AdminUpdateParams{
		AgentID:        agentID,
		CommissionRate: req.CommissionRate,
		Status:         req.Status,
		KycVerified:    req.KycVerified,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}
	user, err := s.users.GetUserByID(ctx, agent.UserID)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	return s.toResponse(agent, user), nil
}

// List returns a page of agents for the admin console.
func (s *Service) List(ctx context.Context, req transport.ListAgentsRequest) (transport.AgentListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	agents, total, err := s.repo.List(ctx, repository.ListAgentsParams{
		Status: req.Status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return transport.AgentListResponse{}, err
	}

	userIDs := make([]uuid.UUID, 0, len(agents))
	for _, a := range agents {
		userIDs = append(userIDs, a.UserID)
	}
	users, err := s.users.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return transport.AgentListResponse{}, err
	}

	items := make([]transport.AgentResponse, 0, len(agents))
	for _, a := range agents {
		items = append(items, s.toResponse(a, users[a.UserID]))
	}
	return transport.AgentListResponse{
		Agents:   items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// AgentIDForUser resolves the agent profile ID for a user. It satisfies the
// lookup interface the auth middleware uses to attach agent scope.
func (s *Service) AgentIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	return s.repo.AgentIDForUser(ctx, userID)
}

// GetContact returns the contact details for an agent, used by
// notification flows.
func (s *Service) GetContact(ctx context.Context, agentID uuid.UUID) (Contact, error) {
	agent, err := s.repo.GetByID(ctx, agentID)
	if err != nil {
		return Contact{}, err
	}
	user, err := s.users.GetUserByID(ctx, agent.UserID)
	if err != nil {
		return Contact{}, err
	}
	return Contact{
		UserID:      agent.UserID,
		AgentCode:   agent.AgentCode,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, nil
}

func (s *Service) referralLink(code string) string {
	return s.refBase + "/ref/" + code
}

func (s *Service) toResponse(agent repository.Agent, user ports.UserInfo) transport.AgentResponse {
	resp := transport.AgentResponse{
		ID:                agent.ID,
		UserID:            agent.UserID,
		AgentCode:         agent.AgentCode,
		ReferralLink:      s.referralLink(agent.AgentCode),
		CommissionRate:    agent.CommissionRate,
		Status:            agent.Status,
		KycVerified:       agent.KycVerified,
		KycDocumentType:   agent.KycDocumentType,
		KycDocumentNumber: agent.KycDocumentNumber,
		Email:             user.Email,
		DisplayName:       user.DisplayName,
		CreatedAt:         agent.CreatedAt,
	}
	if agent.Phone != nil {
		formatted := phone.FormatDisplay(*agent.Phone)
		resp.Phone = &formatted
	}
	return resp
}
