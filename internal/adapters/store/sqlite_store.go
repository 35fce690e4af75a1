package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS whitelists (
		entry_type VARCHAR(20) NOT NULL,
		value VARCHAR(255) NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		added_by VARCHAR(255) NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		PRIMARY KEY (entry_type, value)
	)`,
	`CREATE TABLE IF NOT EXISTS blacklists (
		entry_type VARCHAR(20) NOT NULL,
		value VARCHAR(255) NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		added_by VARCHAR(255) NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		PRIMARY KEY (entry_type, value)
	)`,
	`CREATE TABLE IF NOT EXISTS policies (
		rule_id VARCHAR(50) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL,
		rule_type VARCHAR(50) NOT NULL,
		condition TEXT NOT NULL,
		action VARCHAR(50) NOT NULL,
		enabled BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_priority_enabled ON policies(priority, enabled)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id VARCHAR(36) PRIMARY KEY,
		email_id VARCHAR(255) NOT NULL,
		ts DATETIME NOT NULL,
		email_subject TEXT,
		sender VARCHAR(255),
		recipient VARCHAR(255),
		sender_domain VARCHAR(255),
		sender_ip VARCHAR(45),
		validation_input TEXT,
		decision VARCHAR(50) NOT NULL,
		risk_level VARCHAR(20),
		overall_score DOUBLE NOT NULL,
		decision_reason TEXT,
		matched_policy VARCHAR(50),
		list_verdict VARCHAR(10),
		action_taken VARCHAR(50),
		action_success BOOLEAN,
		action_detail TEXT,
		action_at DATETIME,
		duration_ms BIGINT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_email_id ON audit_logs(email_id)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_ts_decision ON audit_logs(ts, decision)`,
	`CREATE TABLE IF NOT EXISTS approval_requests (
		id VARCHAR(36) PRIMARY KEY,
		email_id VARCHAR(255) NOT NULL,
		status VARCHAR(50) NOT NULL,
		approver_email VARCHAR(255) NOT NULL DEFAULT '',
		confidence_score DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		reviewed_at DATETIME,
		review_notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_approval_status_expires ON approval_requests(status, expires_at)`,
	`CREATE TABLE IF NOT EXISTS email_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender VARCHAR(255) NOT NULL,
		sender_domain VARCHAR(255) NOT NULL,
		recipient VARCHAR(255),
		ts DATETIME NOT NULL,
		was_released BOOLEAN NOT NULL,
		confidence_score DOUBLE NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_history_sender_ts ON email_history(sender, ts)`,
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path
// and ensures the schema exists.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return newSQLStore(db, logger, sqliteSchema)
}
