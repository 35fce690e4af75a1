package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DecisionType is the final outcome of triaging a quarantined email.
type DecisionType string

const (
	DecisionAutoRelease      DecisionType = "auto_release"
	DecisionApprovalRequired DecisionType = "approval_required"
	DecisionEscalate         DecisionType = "escalate"
)

// RiskLevel classifies how risky an email looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ApprovalStatus tracks the lifecycle of an approval request.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	ApprovalExpired  ApprovalStatus = "expired"
)

// ActionType is what the action executor is asked to do with the ticket.
type ActionType string

const (
	ActionRelease        ActionType = "release"
	ActionKeepQuarantine ActionType = "keep_quarantined"
	ActionCreateApproval ActionType = "create_approval"
	ActionAddNote        ActionType = "add_note"
)

// ListVerdict is the result of resolving a sender against both lists.
type ListVerdict string

const (
	VerdictAllow ListVerdict = "allow"
	VerdictDeny  ListVerdict = "deny"
	VerdictNone  ListVerdict = "none"
)

// ListKind names one of the two sender lists.
type ListKind string

const (
	KindWhitelist ListKind = "whitelist"
	KindBlacklist ListKind = "blacklist"
)

// ListEntryType is the attribute a list entry matches on.
type ListEntryType string

const (
	EntryDomain ListEntryType = "domain"
	EntryEmail  ListEntryType = "email"
	EntryIP     ListEntryType = "ip"
)

// RuleType is the kind of condition a custom policy carries.
type RuleType string

const (
	RuleContent    RuleType = "content"
	RuleSender     RuleType = "sender"
	RuleAttachment RuleType = "attachment"
	RuleTimeBased  RuleType = "time_based"
	RuleVolume     RuleType = "volume"
)

// PolicyAct is the effect of a matching policy. Each maps directly to a
// decision type, bypassing score aggregation.
type PolicyAct string

const (
	PolicyRelease         PolicyAct = "release"
	PolicyEscalate        PolicyAct = "escalate"
	PolicyRequireApproval PolicyAct = "require_approval"
)

// Component names one of the four validation signals.
type Component string

const (
	ComponentDomain  Component = "domain_validation"
	ComponentContent Component = "content_analysis"
	ComponentSender  Component = "sender_check"
	ComponentRules   Component = "rules_evaluation"
)

// RequiredComponents lists the signals every email must be scored on.
var RequiredComponents = []Component{
	ComponentDomain,
	ComponentContent,
	ComponentSender,
	ComponentRules,
}

// ComponentResult is one signal producer's opaque output.
type ComponentResult struct {
	Score   float64        `json:"score"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidationInput holds the component results for one email.
type ValidationInput map[Component]ComponentResult

// ScoringWeights maps each component to its share of the overall score.
type ScoringWeights map[Component]float64

// Candidate is the quarantined email under triage.
type Candidate struct {
	EmailID      string    `json:"email_id"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	Sender       string    `json:"sender"`
	SenderDomain string    `json:"sender_domain,omitempty"`
	SenderIP     string    `json:"sender_ip,omitempty"`
	Recipient    string    `json:"recipient,omitempty"`
	Attachments  []string  `json:"attachments,omitempty"`
	ReceivedAt   time.Time `json:"received_at,omitempty"`

	// RecentVolume is the sender's email count within the configured
	// window, filled from the history store before policy evaluation.
	RecentVolume int `json:"-"`
}

// Domain returns the candidate's sender domain, deriving it from the
// sender address when not set explicitly.
func (c *Candidate) Domain() string {
	if c.SenderDomain != "" {
		return strings.ToLower(c.SenderDomain)
	}
	if at := strings.LastIndex(c.Sender, "@"); at >= 0 && at < len(c.Sender)-1 {
		return strings.ToLower(c.Sender[at+1:])
	}
	return ""
}

// ListEntry is one whitelist or blacklist row.
type ListEntry struct {
	Type    ListEntryType
	Value   string
	Reason  string
	AddedBy string
	AddedAt time.Time
}

// PolicyCondition is the structured predicate of a custom rule. Which
// fields are meaningful depends on the rule type.
type PolicyCondition struct {
	// content: keywords matched (case-folded) against the listed fields,
	// "subject" and/or "body"; both when Fields is empty.
	Keywords []string `json:"keywords,omitempty"`
	Fields   []string `json:"fields,omitempty"`

	// sender: exact addresses or bare domains.
	Patterns []string `json:"patterns,omitempty"`

	// attachment: filename extensions such as ".exe".
	Extensions []string `json:"extensions,omitempty"`

	// time_based: the allowed delivery window [AfterHour, BeforeHour) in
	// local time; the condition matches emails arriving outside it or on
	// one of the listed weekdays (0=Sunday).
	AfterHour  int   `json:"after_hour,omitempty"`
	BeforeHour int   `json:"before_hour,omitempty"`
	Weekdays   []int `json:"weekdays,omitempty"`

	// volume: matches when the sender's recent count exceeds MaxCount.
	MaxCount int `json:"max_count,omitempty"`
}

// Policy is an administrator-defined rule. The engine evaluates policies
// read-only and never mutates them.
type Policy struct {
	RuleID      string
	Name        string
	Description string
	Priority    int
	Type        RuleType
	Condition   PolicyCondition
	Action      PolicyAct
	Enabled     bool
}

// PolicyOutcome is the single matching policy's effect, if any.
type PolicyOutcome struct {
	RuleID      string
	Action      PolicyAct
	Description string
}

// Decision is the engine's sole output for one email. Immutable once
// produced.
type Decision struct {
	Type              DecisionType `json:"decision_type"`
	Risk              RiskLevel    `json:"risk_level"`
	OverallScore      float64      `json:"overall_score"`
	Reason            string       `json:"reason"`
	MatchedPolicy     string       `json:"matched_policy,omitempty"`
	ListVerdict       ListVerdict  `json:"list_verdict"`
	HoldExtensionDays int          `json:"hold_extension_days,omitempty"`
}

// ActionResult is what the action executor reports back.
type ActionResult struct {
	Action     ActionType `json:"action"`
	Success    bool       `json:"success"`
	Detail     string     `json:"detail,omitempty"`
	ExecutedAt time.Time  `json:"executed_at"`
}

// ApprovalRequest is created for approval_required decisions and reviewed
// exactly once, or expires into an implicit escalation.
type ApprovalRequest struct {
	ID              uuid.UUID
	EmailID         string
	Status          ApprovalStatus
	Approver        string
	ConfidenceScore float64
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ReviewedAt      *time.Time
	ReviewNotes     string
}

// AuditRecord is the immutable per-email record of everything the engine
// saw and did. Corrections are new records referencing the same email id.
type AuditRecord struct {
	ID           uuid.UUID
	EmailID      string
	Timestamp    time.Time
	Subject      string
	Sender       string
	Recipient    string
	SenderDomain string
	SenderIP     string
	Input        ValidationInput
	Decision     Decision
	Action       *ActionResult
	Duration     time.Duration
}

// HistoryEntry is one row of the per-sender reputation ledger.
type HistoryEntry struct {
	Sender          string
	SenderDomain    string
	Recipient       string
	Timestamp       time.Time
	WasReleased     bool
	ConfidenceScore float64
}

// Thresholds carries the confidence cut-offs and hold extensions. All
// values are validated once at configuration load.
type Thresholds struct {
	AutoReleaseMin        float64
	ApprovalMin           float64
	EscalateMax           float64
	HoldExtensionDefault  int
	HoldExtensionHighRisk int
}
