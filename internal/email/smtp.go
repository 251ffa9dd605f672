package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP
// connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendLeadSubmittedEmail(ctx context.Context, toEmail, recipientName, reference, productName, customerName, leadURL string) error {
	content, err := renderEmailTemplate("lead_submitted.html", leadSubmittedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Application received",
			Heading:  "Application received",
			CTALabel: "View lead",
			CTAURL:   leadURL,
		},
		RecipientName:   recipientName,
		ReferenceNumber: reference,
		ProductName:     productName,
		CustomerName:    customerName,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadSubmittedFmt, reference), content)
}

func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, agentName, reference, leadURL string) error {
	content, err := renderEmailTemplate("lead_assigned.html", leadAssignedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Lead assigned to you",
			Heading:  "Lead assigned to you",
			CTALabel: "Open lead",
			CTAURL:   leadURL,
		},
		AgentName:       agentName,
		ReferenceNumber: reference,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadAssignedFmt, reference), content)
}

func (s *SMTPSender) SendLeadStatusEmail(ctx context.Context, toEmail, recipientName, reference, oldStatus, newStatus, leadURL string) error {
	content, err := renderEmailTemplate("lead_status.html", leadStatusEmailData{
		baseEmailData: baseEmailData{
			Title:    "Lead status updated",
			Heading:  "Lead status updated",
			CTALabel: "View lead",
			CTAURL:   leadURL,
		},
		RecipientName:   recipientName,
		ReferenceNumber: reference,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadStatusFmt, reference, newStatus), content)
}

func (s *SMTPSender) SendAgentWelcomeEmail(ctx context.Context, toEmail, agentName, agentCode, portalURL string) error {
	content, err := renderEmailTemplate("agent_welcome.html", agentWelcomeEmailData{
		baseEmailData: baseEmailData{
			Title:    "Welcome to Bridge",
			Heading:  "Welcome to Bridge",
			CTALabel: "Go to your portal",
			CTAURL:   portalURL,
		},
		AgentName: agentName,
		AgentCode: agentCode,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectAgentWelcome, content)
}

var _ Sender = (*SMTPSender)(nil)
