package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of every persistence port,
// intended for development, the CLI, and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	logger    *zap.Logger
	whitelist map[listKey]*core.ListEntry
	blacklist map[listKey]*core.ListEntry
	policies  map[string]*core.Policy
	audits    []*core.AuditRecord
	approvals map[uuid.UUID]*core.ApprovalRequest
	history   []*core.HistoryEntry
}

type listKey struct {
	entryType core.ListEntryType
	value     string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:    logger,
		whitelist: make(map[listKey]*core.ListEntry),
		blacklist: make(map[listKey]*core.ListEntry),
		policies:  make(map[string]*core.Policy),
		approvals: make(map[uuid.UUID]*core.ApprovalRequest),
	}
}

func (s *MemoryStore) listFor(kind core.ListKind) map[listKey]*core.ListEntry {
	if kind == core.KindBlacklist {
		return s.blacklist
	}
	return s.whitelist
}

// LoadSnapshot builds a consistent snapshot of both lists and all
// policies.
func (s *MemoryStore) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wl := make([]*core.ListEntry, 0, len(s.whitelist))
	for _, e := range s.whitelist {
		wl = append(wl, e)
	}
	bl := make([]*core.ListEntry, 0, len(s.blacklist))
	for _, e := range s.blacklist {
		bl = append(bl, e)
	}
	pols := make([]*core.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		pols = append(pols, p)
	}
	return core.NewSnapshot(wl, bl, pols), nil
}

// AddListEntry upserts an entry keyed by (type, value).
func (s *MemoryStore) AddListEntry(ctx context.Context, kind core.ListKind, entry *core.ListEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	s.listFor(kind)[listKey{entryType: e.Type, value: e.Value}] = &e
	return nil
}

// RemoveListEntry deletes an entry by its unique key.
func (s *MemoryStore) RemoveListEntry(ctx context.Context, kind core.ListKind, entryType core.ListEntryType, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.listFor(kind), listKey{entryType: entryType, value: value})
	return nil
}

// SavePolicy upserts a policy by rule id.
func (s *MemoryStore) SavePolicy(ctx context.Context, p *core.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.policies[p.RuleID] = &cp
	return nil
}

// AppendAudit stores an audit record, append-only.
func (s *MemoryStore) AppendAudit(ctx context.Context, rec *core.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, rec)
	return nil
}

// Audits returns all stored audit records, for tests and the CLI.
func (s *MemoryStore) Audits() []*core.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.AuditRecord, len(s.audits))
	copy(out, s.audits)
	return out
}

// CreateApproval stores a new approval request.
func (s *MemoryStore) CreateApproval(ctx context.Context, req *core.ApprovalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	s.approvals[req.ID] = &cp
	return nil
}

// GetApproval fetches an approval request by id.
func (s *MemoryStore) GetApproval(ctx context.Context, id uuid.UUID) (*core.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.approvals[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

// UpdateApprovalStatus applies the transition only when the request is
// still in the expected state, returning core.ErrConflict otherwise.
func (s *MemoryStore) UpdateApprovalStatus(ctx context.Context, id uuid.UUID, from, to core.ApprovalStatus, approver, notes string, reviewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.approvals[id]
	if !ok {
		return core.ErrNotFound
	}
	if req.Status != from {
		return core.ErrConflict
	}
	req.Status = to
	if approver != "" {
		req.Approver = approver
	}
	req.ReviewNotes = notes
	t := reviewedAt
	req.ReviewedAt = &t
	return nil
}

// ListExpiredApprovals returns pending requests past their expiry.
func (s *MemoryStore) ListExpiredApprovals(ctx context.Context, now time.Time) ([]*core.ApprovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*core.ApprovalRequest
	for _, req := range s.approvals {
		if req.Status == core.ApprovalPending && now.After(req.ExpiresAt) {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

// AppendHistory appends one reputation ledger row.
func (s *MemoryStore) AppendHistory(ctx context.Context, entry *core.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.history = append(s.history, &cp)
	return nil
}

// CountHistorySince counts a sender's ledger rows newer than the cutoff.
func (s *MemoryStore) CountHistorySince(ctx context.Context, sender string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.history {
		if e.Sender == sender && e.Timestamp.After(since) {
			count++
		}
	}
	return count, nil
}
