package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteBlacklistOutranksEverything(t *testing.T) {
	th := defaultThresholds()
	outcome := &PolicyOutcome{RuleID: "p-1", Action: PolicyRelease}

	d := Route(0.99, RiskLow, VerdictDeny, outcome, th)
	assert.Equal(t, DecisionEscalate, d.Type)
	assert.Equal(t, RiskHigh, d.Risk)
	assert.Equal(t, "blacklisted sender", d.Reason)
	assert.Empty(t, d.MatchedPolicy)
	assert.Equal(t, 30, d.HoldExtensionDays)
}

func TestRoutePolicyOutranksAllowAndScore(t *testing.T) {
	th := defaultThresholds()

	d := Route(0.99, RiskLow, VerdictAllow, &PolicyOutcome{RuleID: "p-esc", Action: PolicyEscalate, Description: "blocked attachment"}, th)
	assert.Equal(t, DecisionEscalate, d.Type)
	assert.Equal(t, "p-esc", d.MatchedPolicy)
	assert.Contains(t, d.Reason, "p-esc")
	assert.Contains(t, d.Reason, "blocked attachment")

	d = Route(0.1, RiskHigh, VerdictNone, &PolicyOutcome{RuleID: "p-rel", Action: PolicyRelease}, th)
	assert.Equal(t, DecisionAutoRelease, d.Type)
	assert.Equal(t, RiskLow, d.Risk)
	assert.Zero(t, d.HoldExtensionDays)

	d = Route(0.99, RiskLow, VerdictNone, &PolicyOutcome{RuleID: "p-app", Action: PolicyRequireApproval}, th)
	assert.Equal(t, DecisionApprovalRequired, d.Type)
	assert.Equal(t, RiskMedium, d.Risk)
}

func TestRouteWhitelistAllow(t *testing.T) {
	th := defaultThresholds()

	d := Route(0.42, RiskHigh, VerdictAllow, nil, th)
	assert.Equal(t, DecisionAutoRelease, d.Type)
	assert.Equal(t, "whitelisted sender", d.Reason)
	// The score stays on the decision for the audit trail.
	assert.InDelta(t, 0.42, d.OverallScore, 1e-9)
}

func TestRouteThresholdBoundaries(t *testing.T) {
	th := defaultThresholds()
	tests := []struct {
		score float64
		want  DecisionType
	}{
		{0.85, DecisionAutoRelease},
		{0.849999, DecisionApprovalRequired},
		{0.60, DecisionApprovalRequired},
		{0.599999, DecisionEscalate},
	}
	for _, tt := range tests {
		risk := Classify(tt.score, th)
		d := Route(tt.score, risk, VerdictNone, nil, th)
		assert.Equal(t, tt.want, d.Type, "score %f", tt.score)
	}
}

func TestRouteIdempotent(t *testing.T) {
	th := defaultThresholds()
	first := Route(0.785, RiskMedium, VerdictNone, nil, th)
	second := Route(0.785, RiskMedium, VerdictNone, nil, th)
	assert.Equal(t, first, second)
}

func TestRouteHoldExtensionByRisk(t *testing.T) {
	th := defaultThresholds()

	d := Route(0.3, Classify(0.3, th), VerdictNone, nil, th)
	assert.Equal(t, DecisionEscalate, d.Type)
	assert.Equal(t, 30, d.HoldExtensionDays)

	d = Route(0.7, Classify(0.7, th), VerdictNone, nil, th)
	assert.Equal(t, DecisionApprovalRequired, d.Type)
	assert.Equal(t, 7, d.HoldExtensionDays)

	d = Route(0.9, Classify(0.9, th), VerdictNone, nil, th)
	assert.Equal(t, DecisionAutoRelease, d.Type)
	assert.Zero(t, d.HoldExtensionDays)
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, ActionRelease, ActionFor(DecisionAutoRelease))
	assert.Equal(t, ActionCreateApproval, ActionFor(DecisionApprovalRequired))
	assert.Equal(t, ActionKeepQuarantine, ActionFor(DecisionEscalate))
}
