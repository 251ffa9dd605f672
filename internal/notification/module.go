// Package notification provides event handlers for sending email in
// response to domain events. The module subscribes to events and inverts
// the dependency: domain modules never know about mail transport or
// templates. Everything here is best-effort; a failed send is logged and
// never surfaces to the flow that raised the event.
package notification

import (
	"context"
	"strings"

	"github.com/google/uuid"

	agentsvc "bridge_backend/internal/agents/service"
	"bridge_backend/internal/email"
	"bridge_backend/internal/events"
	"bridge_backend/platform/logger"
)

// AgentContacts resolves the delivery details for an agent.
type AgentContacts interface {
	GetContact(ctx context.Context, agentID uuid.UUID) (agentsvc.Contact, error)
}

// Config supplies the addresses and URLs emails are built with.
type Config interface {
	GetAppBaseURL() string
	GetOpsNotifyAddress() string
}

// Module handles all notification-related event subscriptions.
type Module struct {
	sender   email.Sender
	contacts AgentContacts
	cfg      Config
	log      *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, contacts AgentContacts, cfg Config, log *logger.Logger) *Module {
	return &Module{sender: sender, contacts: contacts, cfg: cfg, log: log}
}

// RegisterHandlers subscribes the module to the events it emails about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	handler := events.HandlerFunc(m.Handle)
	bus.Subscribe(events.LeadCreated{}.EventName(), handler)
	bus.Subscribe(events.LeadStatusChanged{}.EventName(), handler)
	bus.Subscribe(events.LeadAssigned{}.EventName(), handler)
	bus.Subscribe(events.AgentPromoted{}.EventName(), handler)
}

// Handle dispatches one event to its mail flow. It always returns nil:
// the bus retries nothing and delivery is best-effort by contract.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadCreated:
		m.handleLeadCreated(ctx, e)
	case events.LeadStatusChanged:
		m.handleLeadStatusChanged(ctx, e)
	case events.LeadAssigned:
		m.handleLeadAssigned(ctx, e)
	case events.AgentPromoted:
		m.handleAgentPromoted(ctx, e)
	}
	return nil
}

func (m *Module) handleLeadCreated(ctx context.Context, e events.LeadCreated) {
	url := m.leadURL(e.LeadID)

	if e.AgentID != nil {
		contact, err := m.contacts.GetContact(ctx, *e.AgentID)
		if err != nil {
			m.log.Error("agent contact lookup failed", "error", err, "agent_id", *e.AgentID)
			return
		}
		if err := m.sender.SendLeadSubmittedEmail(ctx, contact.Email, contact.DisplayName, e.ReferenceNumber, e.ProductName, e.CustomerName, url); err != nil {
			m.log.Error("lead submitted email failed", "error", err, "reference", e.ReferenceNumber)
		}
		return
	}

	// Public submissions have no agent yet; alert the operations inbox
	// so someone picks the lead up.
	ops := m.cfg.GetOpsNotifyAddress()
	if ops == "" {
		return
	}
	if err := m.sender.SendLeadSubmittedEmail(ctx, ops, "Operations", e.ReferenceNumber, e.ProductName, e.CustomerName, url); err != nil {
		m.log.Error("lead submitted email failed", "error", err, "reference", e.ReferenceNumber)
	}
}

func (m *Module) handleLeadStatusChanged(ctx context.Context, e events.LeadStatusChanged) {
	if e.AgentID == nil {
		return
	}
	contact, err := m.contacts.GetContact(ctx, *e.AgentID)
	if err != nil {
		m.log.Error("agent contact lookup failed", "error", err, "agent_id", *e.AgentID)
		return
	}
	// Agents changing their own lead do not need mail about it.
	if contact.UserID == e.ActorUserID {
		return
	}
	if err := m.sender.SendLeadStatusEmail(ctx, contact.Email, contact.DisplayName, e.ReferenceNumber, e.OldStatus, e.NewStatus, m.leadURL(e.LeadID)); err != nil {
		m.log.Error("lead status email failed", "error", err, "reference", e.ReferenceNumber)
	}
}

func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) {
	contact, err := m.contacts.GetContact(ctx, e.NewAgentID)
	if err != nil {
		m.log.Error("agent contact lookup failed", "error", err, "agent_id", e.NewAgentID)
		return
	}
	if err := m.sender.SendLeadAssignedEmail(ctx, contact.Email, contact.DisplayName, e.ReferenceNumber, m.leadURL(e.LeadID)); err != nil {
		m.log.Error("lead assigned email failed", "error", err, "reference", e.ReferenceNumber)
	}
}

func (m *Module) handleAgentPromoted(ctx context.Context, e events.AgentPromoted) {
	contact, err := m.contacts.GetContact(ctx, e.AgentID)
	if err != nil {
		m.log.Error("agent contact lookup failed", "error", err, "agent_id", e.AgentID)
		return
	}
	if err := m.sender.SendAgentWelcomeEmail(ctx, contact.Email, contact.DisplayName, e.AgentCode, m.cfg.GetAppBaseURL()); err != nil {
		m.log.Error("agent welcome email failed", "error", err, "agent_code", e.AgentCode)
	}
}

func (m *Module) leadURL(id uuid.UUID) string {
	return strings.TrimRight(m.cfg.GetAppBaseURL(), "/") + "/leads/" + id.String()
}
