package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

const maxBodyPreview = 2048

// SMTPNotifier mails reviewers about approval_required and escalate
// outcomes. Sends are synchronous here; the engine calls the notifier
// fire-and-forget.
type SMTPNotifier struct {
	addr                 string
	username             string
	password             string
	from                 string
	fromName             string
	useTLS               bool
	approvalRecipients   []string
	escalationRecipients []string
	text                 *utils.TextProcessor
	logger               *zap.Logger
}

// SMTPConfig carries the notifier's connection and recipient settings.
type SMTPConfig struct {
	Host                 string
	Port                 int
	Username             string
	Password             string
	FromAddress          string
	FromName             string
	UseTLS               bool
	ApprovalRecipients   []string
	EscalationRecipients []string
}

// NewSMTPNotifier creates a notifier from the given settings.
func NewSMTPNotifier(cfg SMTPConfig, text *utils.TextProcessor, logger *zap.Logger) (*SMTPNotifier, error) {
	if cfg.Host == "" || cfg.FromAddress == "" {
		return nil, fmt.Errorf("smtp notifier requires host and from address")
	}
	return &SMTPNotifier{
		addr:                 fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		username:             cfg.Username,
		password:             cfg.Password,
		from:                 cfg.FromAddress,
		fromName:             cfg.FromName,
		useTLS:               cfg.UseTLS,
		approvalRecipients:   cfg.ApprovalRecipients,
		escalationRecipients: cfg.EscalationRecipients,
		text:                 text,
		logger:               logger,
	}, nil
}

// NotifyApprovalRequired mails the approval recipients with the decision
// context and request expiry.
func (n *SMTPNotifier) NotifyApprovalRequired(ctx context.Context, cand *core.Candidate, d *core.Decision, req *core.ApprovalRequest) error {
	if len(n.approvalRecipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Approval required: quarantined email %s", cand.EmailID)
	body := fmt.Sprintf(
		"A quarantined email needs review.\r\n\r\n"+
			"Email ID:    %s\r\n"+
			"Sender:      %s\r\n"+
			"Subject:     %s\r\n"+
			"Score:       %.4f (risk %s)\r\n"+
			"Reason:      %s\r\n"+
			"Request ID:  %s\r\n"+
			"Expires:     %s\r\n\r\n"+
			"Body preview:\r\n%s\r\n",
		cand.EmailID, cand.Sender, n.text.SanitizeUTF8(cand.Subject),
		d.OverallScore, d.Risk, d.Reason,
		req.ID.String(), req.ExpiresAt.Format(time.RFC3339),
		n.text.ProcessText(cand.Body, maxBodyPreview),
	)
	return n.send(n.approvalRecipients, subject, body)
}

// NotifyEscalation mails the escalation recipients.
func (n *SMTPNotifier) NotifyEscalation(ctx context.Context, emailID string, d *core.Decision) error {
	if len(n.escalationRecipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("Escalated: quarantined email %s", emailID)
	body := fmt.Sprintf(
		"A quarantined email was escalated.\r\n\r\n"+
			"Email ID:  %s\r\n"+
			"Score:     %.4f (risk %s)\r\n"+
			"Reason:    %s\r\n"+
			"Hold extension: %d days\r\n",
		emailID, d.OverallScore, d.Risk, d.Reason, d.HoldExtensionDays,
	)
	return n.send(n.escalationRecipients, subject, body)
}

func (n *SMTPNotifier) send(recipients []string, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", n.fromName, n.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	var auth sasl.Client
	if n.username != "" {
		auth = sasl.NewPlainClient("", n.username, n.password)
	}

	// UseTLS selects implicit TLS (port 465); otherwise the connection is
	// upgraded via STARTTLS.
	var err error
	if n.useTLS {
		err = smtp.SendMailTLS(n.addr, auth, n.from, recipients, strings.NewReader(msg.String()))
	} else {
		err = smtp.SendMail(n.addr, auth, n.from, recipients, strings.NewReader(msg.String()))
	}
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	n.logger.Debug("Notification sent",
		zap.String("subject", subject),
		zap.Strings("recipients", recipients))
	return nil
}
