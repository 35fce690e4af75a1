package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS whitelists (
		entry_type VARCHAR(20) NOT NULL,
		value VARCHAR(255) NOT NULL,
		reason TEXT,
		added_by VARCHAR(255) NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		PRIMARY KEY (entry_type, value)
	)`,
	`CREATE TABLE IF NOT EXISTS blacklists (
		entry_type VARCHAR(20) NOT NULL,
		value VARCHAR(255) NOT NULL,
		reason TEXT,
		added_by VARCHAR(255) NOT NULL DEFAULT '',
		added_at DATETIME NOT NULL,
		PRIMARY KEY (entry_type, value)
	)`,
	"CREATE TABLE IF NOT EXISTS policies (\n" +
		"rule_id VARCHAR(50) PRIMARY KEY,\n" +
		"name VARCHAR(255) NOT NULL,\n" +
		"description TEXT,\n" +
		"priority INT NOT NULL,\n" +
		"rule_type VARCHAR(50) NOT NULL,\n" +
		"`condition` TEXT NOT NULL,\n" +
		"action VARCHAR(50) NOT NULL,\n" +
		"enabled BOOLEAN NOT NULL DEFAULT TRUE,\n" +
		"INDEX idx_policy_priority_enabled (priority, enabled)\n" +
		")",
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
		duration_ms BIGINT,
		INDEX idx_audit_email_id (email_id),
		INDEX idx_audit_ts_decision (ts, decision)
	)`,
	`CREATE TABLE IF NOT EXISTS approval_requests (
		id VARCHAR(36) PRIMARY KEY,
		email_id VARCHAR(255) NOT NULL,
		status VARCHAR(50) NOT NULL,
		approver_email VARCHAR(255) NOT NULL DEFAULT '',
		confidence_score DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		reviewed_at DATETIME,
		review_notes TEXT,
		INDEX idx_approval_status_expires (status, expires_at)
	)`,
	`CREATE TABLE IF NOT EXISTS email_history (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		sender VARCHAR(255) NOT NULL,
		sender_domain VARCHAR(255) NOT NULL,
		recipient VARCHAR(255),
		ts DATETIME NOT NULL,
		was_released BOOLEAN NOT NULL,
		confidence_score DOUBLE NOT NULL,
		INDEX idx_history_sender_ts (sender, ts)
	)`,
}

// NewMySQLStore connects to MySQL and ensures the schema exists. The DSN
// gets parseTime enabled so DATETIME columns scan into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger) (*SQLStore, error) {
	if !strings.Contains(dsn, "parseTime") {
		if strings.Contains(dsn, "?") {
			dsn += "&parseTime=true"
		} else {
			dsn += "?parseTime=true"
		}
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}
	return newSQLStore(db, logger, mysqlSchema)
}
