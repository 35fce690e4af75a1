package config

import (
	"time"

	"github.com/mikey/email-triage/internal/core"
)

// StoreConfig represents the persistence configuration
type StoreConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// SMTPConfig represents the notification mail configuration
type SMTPConfig struct {
	Host                 string
	Port                 int
	Username             string
	Password             string
	FromAddress          string
	FromName             string
	UseTLS               bool
	ApprovalRecipients   []string
	EscalationRecipients []string
}

// TicketConfig represents the ticketing system configuration
type TicketConfig struct {
	Type           string
	BaseURL        string
	APIKey         string
	OnHoldStatus   string
	ReleasedStatus string
	Timeout        time.Duration
}

// ApprovalConfig represents the approval lifecycle configuration
type ApprovalConfig struct {
	TTL             time.Duration
	SweepFrequency  time.Duration
	DefaultApprover string
}

// EngineConfig represents the engine's background task configuration
type EngineConfig struct {
	SnapshotRefresh time.Duration
	VolumeWindow    time.Duration
}

// GetWeights returns the configured scoring weights. Validation happens
// in core when the service is constructed.
func (c *Config) GetWeights() core.ScoringWeights {
	w := make(core.ScoringWeights, len(core.RequiredComponents))
	for _, component := range core.RequiredComponents {
		w[component] = c.GetFloat64("scoring.weights." + string(component))
	}
	return w
}

// GetThresholds returns the configured decision thresholds
func (c *Config) GetThresholds() core.Thresholds {
	return core.Thresholds{
		AutoReleaseMin:        c.GetFloat64("thresholds.auto_release_min"),
		ApprovalMin:           c.GetFloat64("thresholds.approval_min"),
		EscalateMax:           c.GetFloat64("thresholds.escalate_max"),
		HoldExtensionDefault:  c.GetInt("thresholds.hold_extension_default"),
		HoldExtensionHighRisk: c.GetInt("thresholds.hold_extension_high_risk"),
	}
}

// GetStaticScores returns the fixed component scores for the static
// signal producers
func (c *Config) GetStaticScores() map[core.Component]float64 {
	scores := make(map[core.Component]float64, len(core.RequiredComponents))
	for _, component := range core.RequiredComponents {
		scores[component] = c.GetFloat64("signals.static." + string(component))
	}
	return scores
}

// GetStore returns the persistence configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetSMTP returns the notification mail configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Host:                 c.GetString("smtp.host"),
		Port:                 c.GetInt("smtp.port"),
		Username:             c.GetString("smtp.username"),
		Password:             c.GetString("smtp.password"),
		FromAddress:          c.GetString("smtp.from_address"),
		FromName:             c.GetString("smtp.from_name"),
		UseTLS:               c.GetBool("smtp.use_tls"),
		ApprovalRecipients:   c.GetStringSlice("smtp.approval_recipients"),
		EscalationRecipients: c.GetStringSlice("smtp.escalation_recipients"),
	}
}

// GetTicket returns the ticketing system configuration
func (c *Config) GetTicket() (TicketConfig, error) {
	timeout, err := c.GetDuration("ticket.timeout")
	if err != nil {
		return TicketConfig{}, &core.ConfigError{Field: "ticket.timeout", Reason: err.Error()}
	}
	return TicketConfig{
		Type:           c.GetString("ticket.type"),
		BaseURL:        c.GetString("ticket.base_url"),
		APIKey:         c.GetString("ticket.api_key"),
		OnHoldStatus:   c.GetString("ticket.on_hold_status"),
		ReleasedStatus: c.GetString("ticket.released_status"),
		Timeout:        timeout,
	}, nil
}

// GetApproval returns the approval lifecycle configuration
func (c *Config) GetApproval() (ApprovalConfig, error) {
	ttl, err := c.GetDuration("approval.ttl")
	if err != nil {
		return ApprovalConfig{}, &core.ConfigError{Field: "approval.ttl", Reason: err.Error()}
	}
	sweep, err := c.GetDuration("approval.sweep_frequency")
	if err != nil {
		return ApprovalConfig{}, &core.ConfigError{Field: "approval.sweep_frequency", Reason: err.Error()}
	}
	return ApprovalConfig{
		TTL:             ttl,
		SweepFrequency:  sweep,
		DefaultApprover: c.GetString("approval.default_approver"),
	}, nil
}

// GetEngine returns the engine's background task configuration
func (c *Config) GetEngine() (EngineConfig, error) {
	refresh, err := c.GetDuration("engine.snapshot_refresh")
	if err != nil {
		return EngineConfig{}, &core.ConfigError{Field: "engine.snapshot_refresh", Reason: err.Error()}
	}
	window, err := c.GetDuration("engine.volume_window")
	if err != nil {
		return EngineConfig{}, &core.ConfigError{Field: "engine.volume_window", Reason: err.Error()}
	}
	return EngineConfig{
		SnapshotRefresh: refresh,
		VolumeWindow:    window,
	}, nil
}

// Validate rejects invalid weights and thresholds at startup so a
// misconfiguration can never surface on the per-email path.
func (c *Config) Validate() error {
	if err := c.GetWeights().Validate(); err != nil {
		return err
	}
	if err := c.GetThresholds().Validate(); err != nil {
		return err
	}
	return nil
}
