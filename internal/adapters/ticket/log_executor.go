package ticket

import (
	"context"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// LogExecutor records what would have been done without touching any
// ticketing system. Used by the CLI and in development.
type LogExecutor struct {
	logger *zap.Logger
}

// NewLogExecutor creates a log-only executor.
func NewLogExecutor(logger *zap.Logger) *LogExecutor {
	return &LogExecutor{logger: logger}
}

func (e *LogExecutor) Execute(ctx context.Context, cand *core.Candidate, d *core.Decision) (*core.ActionResult, error) {
	action := core.ActionFor(d.Type)
	e.logger.Info("Ticket action (dry run)",
		zap.String("email_id", cand.EmailID),
		zap.String("action", string(action)),
		zap.String("reason", d.Reason),
		zap.Int("hold_extension_days", d.HoldExtensionDays))
	return &core.ActionResult{
		Action:     action,
		Success:    true,
		Detail:     "dry run",
		ExecutedAt: time.Now(),
	}, nil
}
