package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	auditRetryAttempts = 5
	auditRetryBase     = 2 * time.Second
)

// TriageService drives one quarantined email through the full decision
// path: list resolution and policy evaluation first (either can
// short-circuit scoring), then signal collection, aggregation, risk
// classification and threshold routing, then the requested action,
// history append, and finally the audit record. The audit always runs,
// whichever path produced the decision.
type TriageService struct {
	producers    map[Component]SignalProducer
	snapshots    *SnapshotHolder
	approvals    *ApprovalManager
	executor     ActionExecutor
	notifier     NotificationSender
	audits       AuditStore
	history      HistoryStore
	weights      ScoringWeights
	thresholds   Thresholds
	volumeWindow time.Duration
	approver     string
	logger       *zap.Logger
}

// NewTriageService validates the configuration and the producer set.
// Exactly one producer per required component must be supplied; weights
// and thresholds failing validation are a startup error.
func NewTriageService(
	producers []SignalProducer,
	snapshots *SnapshotHolder,
	approvals *ApprovalManager,
	executor ActionExecutor,
	notifier NotificationSender,
	audits AuditStore,
	history HistoryStore,
	weights ScoringWeights,
	thresholds Thresholds,
	volumeWindow time.Duration,
	approver string,
	logger *zap.Logger,
) (*TriageService, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	byComponent := make(map[Component]SignalProducer, len(producers))
	for _, p := range producers {
		if _, dup := byComponent[p.Component()]; dup {
			return nil, &ConfigError{Field: "producers", Reason: fmt.Sprintf("duplicate producer for component %s", p.Component())}
		}
		byComponent[p.Component()] = p
	}
	for _, c := range RequiredComponents {
		if _, ok := byComponent[c]; !ok {
			return nil, &ConfigError{Field: "producers", Reason: fmt.Sprintf("no producer for component %s", c)}
		}
	}
	return &TriageService{
		producers:    byComponent,
		snapshots:    snapshots,
		approvals:    approvals,
		executor:     executor,
		notifier:     notifier,
		audits:       audits,
		history:      history,
		weights:      weights,
		thresholds:   thresholds,
		volumeWindow: volumeWindow,
		approver:     approver,
		logger:       logger,
	}, nil
}

// Process triages one email. Every valid candidate yields a Decision; a
// malformed candidate yields an InputError. Failures past the decision
// point (action, notification, history, audit) are logged but never
// reverse the decision.
func (s *TriageService) Process(ctx context.Context, cand *Candidate) (*Decision, error) {
	started := time.Now()

	if cand.EmailID == "" {
		return nil, &InputError{Reason: "candidate has no email id"}
	}
	if cand.Sender == "" {
		return nil, &InputError{EmailID: cand.EmailID, Reason: "candidate has no sender"}
	}

	snap := s.snapshots.Current()
	s.fillRecentVolume(ctx, snap, cand)

	verdict, entry := snap.Resolve(cand.Sender, cand.Domain(), cand.SenderIP)
	if entry != nil {
		s.logger.Debug("Sender matched a list entry",
			zap.String("email_id", cand.EmailID),
			zap.String("verdict", string(verdict)),
			zap.String("entry_type", string(entry.Type)),
			zap.String("entry_value", entry.Value))
	}

	var outcome *PolicyOutcome
	if verdict != VerdictDeny {
		outcome = EvaluatePolicies(snap, cand, started)
	}

	var (
		input    ValidationInput
		decision Decision
	)
	if verdict == VerdictDeny || outcome != nil {
		// Override path: scoring is bypassed entirely.
		decision = Route(0, RiskMedium, verdict, outcome, s.thresholds)
	} else {
		collected, err := s.collectSignals(ctx, cand)
		input = collected
		if err == nil {
			var overall float64
			overall, err = Aggregate(input, s.weights)
			if err == nil {
				risk := Classify(overall, s.thresholds)
				decision = Route(overall, risk, verdict, outcome, s.thresholds)
			}
		}
		if err != nil {
			if verdict == VerdictAllow {
				// The whitelist override outranks the statistical path; a
				// broken producer must not block it. The audit score stays 0.
				s.logger.Warn("Signal collection failed for whitelisted sender",
					zap.String("email_id", cand.EmailID),
					zap.Error(err))
				decision = Route(0, RiskLow, verdict, nil, s.thresholds)
			} else {
				// Degrading silently risks a false auto-release; escalate.
				s.logger.Error("Signal collection failed, escalating",
					zap.String("email_id", cand.EmailID),
					zap.Error(err))
				decision = Decision{
					Type:              DecisionEscalate,
					Risk:              RiskHigh,
					Reason:            fmt.Sprintf("validation failed: %v", err),
					ListVerdict:       verdict,
					HoldExtensionDays: HoldExtensionDays(RiskHigh, s.thresholds),
				}
			}
		}
	}

	s.logger.Info("Decision made",
		zap.String("email_id", cand.EmailID),
		zap.String("decision", string(decision.Type)),
		zap.String("risk", string(decision.Risk)),
		zap.Float64("score", decision.OverallScore),
		zap.String("reason", decision.Reason))

	actionResult := s.executeAction(ctx, cand, &decision)

	if decision.Type == DecisionApprovalRequired {
		req, err := s.approvals.Create(ctx, cand, decision.OverallScore, s.approver)
		if err != nil {
			s.logger.Error("Failed to create approval request",
				zap.String("email_id", cand.EmailID),
				zap.Error(err))
		} else if s.notifier != nil {
			if err := s.notifier.NotifyApprovalRequired(ctx, cand, &decision, req); err != nil {
				s.logger.Error("Failed to send approval notification",
					zap.String("email_id", cand.EmailID),
					zap.Error(err))
			}
		}
	} else if decision.Type == DecisionEscalate && s.notifier != nil {
		if err := s.notifier.NotifyEscalation(ctx, cand.EmailID, &decision); err != nil {
			s.logger.Error("Failed to send escalation notification",
				zap.String("email_id", cand.EmailID),
				zap.Error(err))
		}
	}

	s.appendHistory(ctx, cand, &decision)
	s.recordAudit(cand, input, decision, actionResult, time.Since(started))

	return &decision, nil
}

// collectSignals invokes all four producers. Any producer failure or
// out-of-range score fails the whole collection; the caller decides
// whether that escalates the email.
func (s *TriageService) collectSignals(ctx context.Context, cand *Candidate) (ValidationInput, error) {
	input := make(ValidationInput, len(RequiredComponents))
	for _, c := range RequiredComponents {
		result, err := s.producers[c].Evaluate(ctx, cand)
		if err != nil {
			return input, &InputError{EmailID: cand.EmailID, Component: c, Reason: err.Error()}
		}
		if result.Score < 0 || result.Score > 1 {
			return input, &InputError{EmailID: cand.EmailID, Component: c, Reason: fmt.Sprintf("score %f outside [0,1]", result.Score)}
		}
		input[c] = *result
	}
	return input, nil
}

func (s *TriageService) fillRecentVolume(ctx context.Context, snap *Snapshot, cand *Candidate) {
	if s.history == nil {
		return
	}
	needed := false
	for _, p := range snap.Policies() {
		if p.Enabled && p.Type == RuleVolume {
			needed = true
			break
		}
	}
	if !needed {
		return
	}
	count, err := s.history.CountHistorySince(ctx, cand.Sender, time.Now().Add(-s.volumeWindow))
	if err != nil {
		s.logger.Warn("Failed to read sender volume, treating as zero",
			zap.String("email_id", cand.EmailID),
			zap.String("sender", cand.Sender),
			zap.Error(err))
		return
	}
	cand.RecentVolume = count
}

func (s *TriageService) executeAction(ctx context.Context, cand *Candidate, d *Decision) *ActionResult {
	if s.executor == nil {
		return nil
	}
	result, err := s.executor.Execute(ctx, cand, d)
	if err != nil {
		s.logger.Error("Action execution failed",
			zap.String("email_id", cand.EmailID),
			zap.String("action", string(ActionFor(d.Type))),
			zap.Error(err))
		return &ActionResult{
			Action:     ActionFor(d.Type),
			Success:    false,
			Detail:     err.Error(),
			ExecutedAt: time.Now(),
		}
	}
	return result
}

func (s *TriageService) appendHistory(ctx context.Context, cand *Candidate, d *Decision) {
	if s.history == nil {
		return
	}
	entry := &HistoryEntry{
		Sender:          cand.Sender,
		SenderDomain:    cand.Domain(),
		Recipient:       cand.Recipient,
		Timestamp:       time.Now(),
		WasReleased:     d.Type == DecisionAutoRelease,
		ConfidenceScore: d.OverallScore,
	}
	if err := s.history.AppendHistory(ctx, entry); err != nil {
		s.logger.Warn("Failed to append sender history",
			zap.String("email_id", cand.EmailID),
			zap.Error(err))
	}
}

// recordAudit assembles and persists the audit record. A persistence
// failure is logged and retried in the background; it never blocks or
// reverses the decision already taken.
func (s *TriageService) recordAudit(cand *Candidate, input ValidationInput, d Decision, action *ActionResult, duration time.Duration) {
	rec := &AuditRecord{
		ID:           uuid.New(),
		EmailID:      cand.EmailID,
		Timestamp:    time.Now(),
		Subject:      cand.Subject,
		Sender:       cand.Sender,
		Recipient:    cand.Recipient,
		SenderDomain: cand.Domain(),
		SenderIP:     cand.SenderIP,
		Input:        input,
		Decision:     d,
		Action:       action,
		Duration:     duration,
	}
	if err := s.audits.AppendAudit(context.Background(), rec); err != nil {
		s.logger.Error("Failed to persist audit record, retrying in background",
			zap.String("email_id", cand.EmailID),
			zap.Error(err))
		go s.retryAudit(rec)
	}
}

func (s *TriageService) retryAudit(rec *AuditRecord) {
	delay := auditRetryBase
	for attempt := 1; attempt <= auditRetryAttempts; attempt++ {
		time.Sleep(delay)
		if err := s.audits.AppendAudit(context.Background(), rec); err == nil {
			s.logger.Info("Audit record persisted after retry",
				zap.String("email_id", rec.EmailID),
				zap.Int("attempt", attempt))
			return
		}
		delay *= 2
	}
	s.logger.Error("Giving up on audit record after retries",
		zap.String("email_id", rec.EmailID),
		zap.Int("attempts", auditRetryAttempts))
}
