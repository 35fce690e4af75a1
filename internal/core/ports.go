package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SignalProducer computes one opaque validation score for a candidate.
// The engine treats producers as black boxes and tolerates each failing
// independently.
type SignalProducer interface {
	// Component identifies which of the four signals this producer feeds.
	Component() Component

	// Evaluate returns the component's score and supporting details.
	Evaluate(ctx context.Context, cand *Candidate) (*ComponentResult, error)
}

// ListPolicyStore reads list and policy data as a whole snapshot and
// accepts admin-driven mutations. Snapshot reads happen on a fixed
// interval, never per email.
type ListPolicyStore interface {
	// LoadSnapshot reads the complete whitelist, blacklist, and enabled
	// policy set in one consistent view.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// AddListEntry upserts an entry; (type, value) is unique per list.
	AddListEntry(ctx context.Context, kind ListKind, entry *ListEntry) error

	// RemoveListEntry deletes an entry by its unique key.
	RemoveListEntry(ctx context.Context, kind ListKind, entryType ListEntryType, value string) error

	// SavePolicy upserts a policy by rule id.
	SavePolicy(ctx context.Context, p *Policy) error
}

// AuditStore persists immutable audit records, append-only.
type AuditStore interface {
	AppendAudit(ctx context.Context, rec *AuditRecord) error
}

// ApprovalStore persists approval requests. UpdateStatus applies an
// optimistic status check: it must return ErrConflict when the request is
// no longer in the expected state, so concurrent reviews and the expiry
// sweep cannot double-process a request.
type ApprovalStore interface {
	CreateApproval(ctx context.Context, req *ApprovalRequest) error
	GetApproval(ctx context.Context, id uuid.UUID) (*ApprovalRequest, error)
	UpdateApprovalStatus(ctx context.Context, id uuid.UUID, from, to ApprovalStatus, approver, notes string, reviewedAt time.Time) error
	ListExpiredApprovals(ctx context.Context, now time.Time) ([]*ApprovalRequest, error)
}

// HistoryStore persists the per-sender reputation ledger.
type HistoryStore interface {
	AppendHistory(ctx context.Context, entry *HistoryEntry) error
	CountHistorySince(ctx context.Context, sender string, since time.Time) (int, error)
}

// Stores bundles every persistence concern a store adapter provides.
type Stores interface {
	ListPolicyStore
	AuditStore
	ApprovalStore
	HistoryStore
}

// ActionExecutor performs the decided action against the ticketing
// system.
type ActionExecutor interface {
	Execute(ctx context.Context, cand *Candidate, d *Decision) (*ActionResult, error)
}

// NotificationSender informs reviewers about approval_required and
// escalate outcomes. Fire-and-forget from the engine's perspective.
type NotificationSender interface {
	NotifyApprovalRequired(ctx context.Context, cand *Candidate, d *Decision, req *ApprovalRequest) error
	NotifyEscalation(ctx context.Context, emailID string, d *Decision) error
}
