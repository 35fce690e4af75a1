package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/email-triage/internal/core"
	"go.uber.org/zap"
)

// SQLStore implements every persistence port on top of database/sql. The
// SQLite and MySQL constructors differ only in driver and schema DDL; all
// statements here use portable placeholders.
type SQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func newSQLStore(db *sql.DB, logger *zap.Logger, schema []string) (*SQLStore, error) {
	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func listTable(kind core.ListKind) string {
	if kind == core.KindBlacklist {
		return "blacklists"
	}
	return "whitelists"
}

// LoadSnapshot reads both lists and all policies in one consistent view.
func (s *SQLStore) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	wl, err := s.readList(ctx, tx, "whitelists")
	if err != nil {
		return nil, err
	}
	bl, err := s.readList(ctx, tx, "blacklists")
	if err != nil {
		return nil, err
	}
	policies, err := s.readPolicies(ctx, tx)
	if err != nil {
		return nil, err
	}
	return core.NewSnapshot(wl, bl, policies), nil
}

func (s *SQLStore) readList(ctx context.Context, tx *sql.Tx, table string) ([]*core.ListEntry, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT entry_type, value, reason, added_by, added_at FROM %s
	`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var entries []*core.ListEntry
	for rows.Next() {
		var e core.ListEntry
		var entryType string
		if err := rows.Scan(&entryType, &e.Value, &e.Reason, &e.AddedBy, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		e.Type = core.ListEntryType(entryType)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *SQLStore) readPolicies(ctx context.Context, tx *sql.Tx) ([]*core.Policy, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT rule_id, name, description, priority, rule_type, ` + "`condition`" + `, action, enabled
		FROM policies
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read policies: %w", err)
	}
	defer rows.Close()

	var policies []*core.Policy
	for rows.Next() {
		var (
			p             core.Policy
			ruleType, act string
			condJSON      []byte
		)
		if err := rows.Scan(&p.RuleID, &p.Name, &p.Description, &p.Priority, &ruleType, &condJSON, &act, &p.Enabled); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		p.Type = core.RuleType(ruleType)
		p.Action = core.PolicyAct(act)
		if len(condJSON) > 0 {
			if err := json.Unmarshal(condJSON, &p.Condition); err != nil {
				s.logger.Warn("Skipping policy with malformed condition",
					zap.String("rule_id", p.RuleID),
					zap.Error(err))
				continue
			}
		}
		policies = append(policies, &p)
	}
	return policies, rows.Err()
}

// AddListEntry upserts on the (entry_type, value) unique key.
func (s *SQLStore) AddListEntry(ctx context.Context, kind core.ListKind, entry *core.ListEntry) error {
	addedAt := entry.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		REPLACE INTO %s (entry_type, value, reason, added_by, added_at)
		VALUES (?, ?, ?, ?, ?)
	`, listTable(kind)), string(entry.Type), entry.Value, entry.Reason, entry.AddedBy, addedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert %s entry: %w", kind, err)
	}
	return nil
}

// RemoveListEntry deletes an entry by its unique key.
func (s *SQLStore) RemoveListEntry(ctx context.Context, kind core.ListKind, entryType core.ListEntryType, value string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE entry_type = ? AND value = ?
	`, listTable(kind)), string(entryType), value)
	if err != nil {
		return fmt.Errorf("failed to delete %s entry: %w", kind, err)
	}
	return nil
}

// SavePolicy upserts a policy by rule id.
func (s *SQLStore) SavePolicy(ctx context.Context, p *core.Policy) error {
	condJSON, err := json.Marshal(p.Condition)
	if err != nil {
		return fmt.Errorf("failed to marshal policy condition: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		REPLACE INTO policies (rule_id, name, description, priority, rule_type, ` + "`condition`" + `, action, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.RuleID, p.Name, p.Description, p.Priority, string(p.Type), condJSON, string(p.Action), p.Enabled)
	if err != nil {
		return fmt.Errorf("failed to upsert policy %s: %w", p.RuleID, err)
	}
	return nil
}

// AppendAudit inserts one immutable audit row. Rows are never updated;
// corrections are new rows for the same email id.
func (s *SQLStore) AppendAudit(ctx context.Context, rec *core.AuditRecord) error {
	inputJSON, err := json.Marshal(rec.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal validation input: %w", err)
	}
	var (
		actionTaken   sql.NullString
		actionSuccess sql.NullBool
		actionDetail  sql.NullString
		actionAt      sql.NullTime
	)
	if rec.Action != nil {
		actionTaken = sql.NullString{String: string(rec.Action.Action), Valid: true}
		actionSuccess = sql.NullBool{Bool: rec.Action.Success, Valid: true}
		actionDetail = sql.NullString{String: rec.Action.Detail, Valid: true}
		actionAt = sql.NullTime{Time: rec.Action.ExecutedAt, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, email_id, ts, email_subject, sender, recipient, sender_domain, sender_ip,
			validation_input, decision, risk_level, overall_score, decision_reason,
			matched_policy, list_verdict, action_taken, action_success, action_detail,
			action_at, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID.String(), rec.EmailID, rec.Timestamp, rec.Subject, rec.Sender, rec.Recipient,
		rec.SenderDomain, rec.SenderIP, inputJSON, string(rec.Decision.Type),
		string(rec.Decision.Risk), rec.Decision.OverallScore, rec.Decision.Reason,
		rec.Decision.MatchedPolicy, string(rec.Decision.ListVerdict),
		actionTaken, actionSuccess, actionDetail, actionAt,
		rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// CreateApproval inserts a new approval request.
func (s *SQLStore) CreateApproval(ctx context.Context, req *core.ApprovalRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (
			id, email_id, status, approver_email, confidence_score,
			created_at, expires_at, reviewed_at, review_notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`, req.ID.String(), req.EmailID, string(req.Status), req.Approver,
		req.ConfidenceScore, req.CreatedAt, req.ExpiresAt, req.ReviewNotes)
	if err != nil {
		return fmt.Errorf("failed to create approval request: %w", err)
	}
	return nil
}

// GetApproval fetches one approval request by id.
func (s *SQLStore) GetApproval(ctx context.Context, id uuid.UUID) (*core.ApprovalRequest, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email_id, status, approver_email, confidence_score,
		       created_at, expires_at, reviewed_at, review_notes
		FROM approval_requests WHERE id = ?
	`, id.String())
	return scanApproval(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(row rowScanner) (*core.ApprovalRequest, error) {
	var (
		req        core.ApprovalRequest
		idStr      string
		status     string
		reviewedAt sql.NullTime
	)
	err := row.Scan(&idStr, &req.EmailID, &status, &req.Approver, &req.ConfidenceScore,
		&req.CreatedAt, &req.ExpiresAt, &reviewedAt, &req.ReviewNotes)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan approval request: %w", err)
	}
	req.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse approval request id: %w", err)
	}
	req.Status = core.ApprovalStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		req.ReviewedAt = &t
	}
	return &req, nil
}

// UpdateApprovalStatus applies the transition only while the request is
// still in the expected state; a lost race yields core.ErrConflict.
func (s *SQLStore) UpdateApprovalStatus(ctx context.Context, id uuid.UUID, from, to core.ApprovalStatus, approver, notes string, reviewedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE approval_requests
		SET status = ?,
		    approver_email = CASE WHEN ? = '' THEN approver_email ELSE ? END,
		    review_notes = ?,
		    reviewed_at = ?
		WHERE id = ? AND status = ?
	`, string(to), approver, approver, notes, reviewedAt, id.String(), string(from))
	if err != nil {
		return fmt.Errorf("failed to update approval request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		if _, err := s.GetApproval(ctx, id); err != nil {
			return err
		}
		return core.ErrConflict
	}
	return nil
}

// ListExpiredApprovals returns pending requests past their expiry.
func (s *SQLStore) ListExpiredApprovals(ctx context.Context, now time.Time) ([]*core.ApprovalRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email_id, status, approver_email, confidence_score,
		       created_at, expires_at, reviewed_at, review_notes
		FROM approval_requests
		WHERE status = ? AND expires_at < ?
	`, string(core.ApprovalPending), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired approvals: %w", err)
	}
	defer rows.Close()

	var out []*core.ApprovalRequest
	for rows.Next() {
		req, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// AppendHistory appends one reputation ledger row.
func (s *SQLStore) AppendHistory(ctx context.Context, entry *core.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_history (sender, sender_domain, recipient, ts, was_released, confidence_score)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Sender, entry.SenderDomain, entry.Recipient, entry.Timestamp, entry.WasReleased, entry.ConfidenceScore)
	if err != nil {
		return fmt.Errorf("failed to append email history: %w", err)
	}
	return nil
}

// CountHistorySince counts a sender's ledger rows newer than the cutoff.
func (s *SQLStore) CountHistorySince(ctx context.Context, sender string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_history WHERE sender = ? AND ts > ?
	`, sender, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count email history: %w", err)
	}
	return count, nil
}
