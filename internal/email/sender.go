// Package email renders and delivers transactional mail. Delivery goes
// through the Sender interface so callers never depend on a concrete
// transport; SMTPSender is the production implementation and NoopSender
// stands in when email is disabled.
package email

import (
	"context"

	"bridge_backend/platform/config"
)

type Sender interface {
	SendLeadSubmittedEmail(ctx context.Context, toEmail, recipientName, reference, productName, customerName, leadURL string) error
	SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, reference, leadURL string) error
	SendLeadStatusEmail(ctx context.Context, toEmail, recipientName, reference, oldStatus, newStatus, leadURL string) error
	SendAgentWelcomeEmail(ctx context.Context, toEmail, agentName, agentCode, portalURL string) error
}

// NewSender picks the sender implementation for the configuration:
// SMTP when email is enabled, a no-op otherwise.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

// NoopSender discards all mail. Used when no SMTP host is configured.
type NoopSender struct{}

func (NoopSender) SendLeadSubmittedEmail(ctx context.Context, toEmail, recipientName, reference, productName, customerName, leadURL string) error {
	return nil
}

func (NoopSender) SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, reference, leadURL string) error {
	return nil
}

func (NoopSender) SendLeadStatusEmail(ctx context.Context, toEmail, recipientName, reference, oldStatus, newStatus, leadURL string) error {
	return nil
}

func (NoopSender) SendAgentWelcomeEmail(ctx context.Context, toEmail, agentName, agentCode, portalURL string) error {
	return nil
}

var _ Sender = NoopSender{}
