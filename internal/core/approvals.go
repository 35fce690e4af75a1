package core

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const lockShards = 64

// ApprovalManager owns the approval request lifecycle: creation for
// approval_required decisions, the single approve/reject transition, and
// the periodic sweep that turns expired pending requests into implicit
// escalations. Transitions are serialized per email id through a sharded
// lock table, and the store applies an optimistic status check on top, so
// a reviewer and the sweep can never double-process the same request.
type ApprovalManager struct {
	store     ApprovalStore
	notifier  NotificationSender
	logger    *zap.Logger
	ttl       time.Duration
	sweepFreq time.Duration
	locks     [lockShards]sync.Mutex
	stopCh    chan struct{}
}

// NewApprovalManager creates a manager; Start launches the expiry sweep.
func NewApprovalManager(store ApprovalStore, notifier NotificationSender, logger *zap.Logger, ttl, sweepFreq time.Duration) *ApprovalManager {
	return &ApprovalManager{
		store:     store,
		notifier:  notifier,
		logger:    logger,
		ttl:       ttl,
		sweepFreq: sweepFreq,
		stopCh:    make(chan struct{}),
	}
}

func (m *ApprovalManager) lockFor(emailID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(emailID))
	return &m.locks[h.Sum32()%lockShards]
}

// Create opens a pending request for the candidate. The request expires,
// and is treated as an implicit escalation, after the configured TTL.
func (m *ApprovalManager) Create(ctx context.Context, cand *Candidate, score float64, approver string) (*ApprovalRequest, error) {
	now := time.Now()
	req := &ApprovalRequest{
		ID:              uuid.New(),
		EmailID:         cand.EmailID,
		Status:          ApprovalPending,
		Approver:        approver,
		ConfidenceScore: score,
		CreatedAt:       now,
		ExpiresAt:       now.Add(m.ttl),
	}
	if err := m.store.CreateApproval(ctx, req); err != nil {
		return nil, &StoreError{Op: "create approval", EmailID: cand.EmailID, Err: err}
	}
	m.logger.Info("Created approval request",
		zap.String("email_id", cand.EmailID),
		zap.String("request_id", req.ID.String()),
		zap.Time("expires_at", req.ExpiresAt))
	return req, nil
}

// Approve resolves a pending request as approved. Returns ErrConflict if
// the request was already reviewed or has expired.
func (m *ApprovalManager) Approve(ctx context.Context, id uuid.UUID, approver, notes string) error {
	return m.review(ctx, id, ApprovalApproved, approver, notes)
}

// Reject resolves a pending request as rejected. Returns ErrConflict if
// the request was already reviewed or has expired.
func (m *ApprovalManager) Reject(ctx context.Context, id uuid.UUID, approver, notes string) error {
	return m.review(ctx, id, ApprovalRejected, approver, notes)
}

func (m *ApprovalManager) review(ctx context.Context, id uuid.UUID, to ApprovalStatus, approver, notes string) error {
	req, err := m.store.GetApproval(ctx, id)
	if err != nil {
		return err
	}

	lock := m.lockFor(req.EmailID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	if req.Status != ApprovalPending || now.After(req.ExpiresAt) {
		// Past expiry the sweep owns this request; a reviewer action loses.
		return ErrConflict
	}
	if err := m.store.UpdateApprovalStatus(ctx, id, ApprovalPending, to, approver, notes, now); err != nil {
		return err
	}
	m.logger.Info("Approval request reviewed",
		zap.String("email_id", req.EmailID),
		zap.String("request_id", id.String()),
		zap.String("status", string(to)),
		zap.String("approver", approver))
	return nil
}

// SweepExpired marks every pending request past its expiry as expired,
// exactly once each, and notifies escalation. Re-running the sweep on
// already-expired or reviewed requests is a no-op, so the sweep is
// idempotent.
func (m *ApprovalManager) SweepExpired(ctx context.Context) (int, error) {
	now := time.Now()
	expired, err := m.store.ListExpiredApprovals(ctx, now)
	if err != nil {
		return 0, &StoreError{Op: "list expired approvals", Err: err}
	}

	swept := 0
	for _, req := range expired {
		lock := m.lockFor(req.EmailID)
		lock.Lock()
		err := m.store.UpdateApprovalStatus(ctx, req.ID, ApprovalPending, ApprovalExpired, "", "expired without review", now)
		lock.Unlock()

		if err != nil {
			// A concurrent review or earlier sweep already resolved it.
			if err == ErrConflict {
				continue
			}
			m.logger.Error("Failed to expire approval request",
				zap.String("email_id", req.EmailID),
				zap.String("request_id", req.ID.String()),
				zap.Error(err))
			continue
		}
		swept++

		m.logger.Warn("Approval request expired, escalating",
			zap.String("email_id", req.EmailID),
			zap.String("request_id", req.ID.String()))
		if m.notifier != nil {
			d := Decision{
				Type:         DecisionEscalate,
				Risk:         RiskMedium,
				OverallScore: req.ConfidenceScore,
				Reason:       "approval request expired without review",
				ListVerdict:  VerdictNone,
			}
			if err := m.notifier.NotifyEscalation(ctx, req.EmailID, &d); err != nil {
				m.logger.Error("Failed to send expiry escalation notification",
					zap.String("email_id", req.EmailID),
					zap.Error(err))
			}
		}
	}
	return swept, nil
}

// Start launches the periodic expiry sweep.
func (m *ApprovalManager) Start() {
	go func() {
		ticker := time.NewTicker(m.sweepFreq)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := m.SweepExpired(context.Background()); err != nil {
					m.logger.Error("Approval expiry sweep failed", zap.Error(err))
				}
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop ends the periodic sweep.
func (m *ApprovalManager) Stop() {
	close(m.stopCh)
}
