package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mikey/email-triage/internal/core"
	"github.com/mikey/email-triage/internal/utils"
	"go.uber.org/zap"
)

const maxNoteSize = 4096

// HTTPExecutor drives the ticketing system's REST API: releasing a held
// ticket, keeping it quarantined with an extended hold, and attaching the
// decision reason as a note.
type HTTPExecutor struct {
	baseURL        string
	apiKey         string
	releasedStatus string
	onHoldStatus   string
	client         *http.Client
	text           *utils.TextProcessor
	logger         *zap.Logger
}

// Config carries the ticketing API settings.
type Config struct {
	BaseURL        string
	APIKey         string
	ReleasedStatus string
	OnHoldStatus   string
	Timeout        time.Duration
}

// NewHTTPExecutor creates an executor for the given ticketing endpoint.
func NewHTTPExecutor(cfg Config, text *utils.TextProcessor, logger *zap.Logger) (*HTTPExecutor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ticket executor requires a base URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPExecutor{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		releasedStatus: cfg.ReleasedStatus,
		onHoldStatus:   cfg.OnHoldStatus,
		client:         &http.Client{Timeout: timeout},
		text:           text,
		logger:         logger,
	}, nil
}

// Execute performs the ticket action the decision calls for and reports
// the outcome. A failed call returns an error; the engine records the
// failure in the audit but never reverses the decision.
func (e *HTTPExecutor) Execute(ctx context.Context, cand *core.Candidate, d *core.Decision) (*core.ActionResult, error) {
	action := core.ActionFor(d.Type)

	var err error
	switch d.Type {
	case core.DecisionAutoRelease:
		err = e.setStatus(ctx, cand.EmailID, e.releasedStatus, 0)
	case core.DecisionApprovalRequired:
		err = e.addNote(ctx, cand.EmailID, fmt.Sprintf("Held for approval: %s", d.Reason))
		if err == nil {
			err = e.setStatus(ctx, cand.EmailID, e.onHoldStatus, d.HoldExtensionDays)
		}
	default:
		err = e.addNote(ctx, cand.EmailID, fmt.Sprintf("Escalated: %s", d.Reason))
		if err == nil {
			err = e.setStatus(ctx, cand.EmailID, e.onHoldStatus, d.HoldExtensionDays)
		}
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Ticket action executed",
		zap.String("email_id", cand.EmailID),
		zap.String("action", string(action)))
	return &core.ActionResult{
		Action:     action,
		Success:    true,
		ExecutedAt: time.Now(),
	}, nil
}

func (e *HTTPExecutor) setStatus(ctx context.Context, emailID, status string, holdDays int) error {
	payload := map[string]any{"status": status}
	if holdDays > 0 {
		payload["hold_until"] = time.Now().AddDate(0, 0, holdDays).Format(time.RFC3339)
	}
	return e.call(ctx, http.MethodPut, fmt.Sprintf("/requests/%s/status", emailID), payload)
}

func (e *HTTPExecutor) addNote(ctx context.Context, emailID, note string) error {
	payload := map[string]any{"note": e.text.ProcessText(note, maxNoteSize)}
	return e.call(ctx, http.MethodPost, fmt.Sprintf("/requests/%s/notes", emailID), payload)
}

func (e *HTTPExecutor) call(ctx context.Context, method, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build ticket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authtoken", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ticket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ticket API returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
