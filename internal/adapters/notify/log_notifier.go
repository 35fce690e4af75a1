package notify

import (
	"context"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of sending mail.
// Used by the CLI and in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyApprovalRequired(ctx context.Context, cand *core.Candidate, d *core.Decision, req *core.ApprovalRequest) error {
	n.logger.Info("Approval required",
		zap.String("email_id", cand.EmailID),
		zap.String("sender", cand.Sender),
		zap.Float64("score", d.OverallScore),
		zap.String("request_id", req.ID.String()),
		zap.Time("expires_at", req.ExpiresAt))
	return nil
}

func (n *LogNotifier) NotifyEscalation(ctx context.Context, emailID string, d *core.Decision) error {
	n.logger.Warn("Escalation",
		zap.String("email_id", emailID),
		zap.Float64("score", d.OverallScore),
		zap.String("risk", string(d.Risk)),
		zap.String("reason", d.Reason))
	return nil
}
