package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contentPolicy(ruleID string, priority int, action PolicyAct, keywords ...string) *Policy {
	return &Policy{
		RuleID:    ruleID,
		Priority:  priority,
		Type:      RuleContent,
		Condition: PolicyCondition{Keywords: keywords},
		Action:    action,
		Enabled:   true,
	}
}

func TestEvaluatePoliciesFirstMatchWins(t *testing.T) {
	snap := NewSnapshot(nil, nil, []*Policy{
		contentPolicy("p-2", 2, PolicyEscalate, "invoice"),
		contentPolicy("p-1", 1, PolicyRelease, "invoice"),
	})
	cand := &Candidate{Subject: "Your invoice is attached"}

	outcome := EvaluatePolicies(snap, cand, time.Now())
	require.NotNil(t, outcome)
	assert.Equal(t, "p-1", outcome.RuleID)
	assert.Equal(t, PolicyRelease, outcome.Action)
}

func TestEvaluatePoliciesPriorityTieBrokenByRuleID(t *testing.T) {
	snap := NewSnapshot(nil, nil, []*Policy{
		contentPolicy("p-b", 1, PolicyEscalate, "invoice"),
		contentPolicy("p-a", 1, PolicyRequireApproval, "invoice"),
	})

	outcome := EvaluatePolicies(snap, &Candidate{Subject: "invoice"}, time.Now())
	require.NotNil(t, outcome)
	assert.Equal(t, "p-a", outcome.RuleID)
}

func TestEvaluatePoliciesSkipsDisabled(t *testing.T) {
	disabled := contentPolicy("p-1", 1, PolicyRelease, "invoice")
	disabled.Enabled = false
	snap := NewSnapshot(nil, nil, []*Policy{
		disabled,
		contentPolicy("p-2", 2, PolicyEscalate, "invoice"),
	})

	outcome := EvaluatePolicies(snap, &Candidate{Subject: "invoice"}, time.Now())
	require.NotNil(t, outcome)
	assert.Equal(t, "p-2", outcome.RuleID)
}

func TestEvaluatePoliciesNoMatch(t *testing.T) {
	snap := NewSnapshot(nil, nil, []*Policy{
		contentPolicy("p-1", 1, PolicyRelease, "invoice"),
	})
	assert.Nil(t, EvaluatePolicies(snap, &Candidate{Subject: "hello"}, time.Now()))
}

func TestContentMatchCaseFolded(t *testing.T) {
	p := contentPolicy("p-1", 1, PolicyEscalate, "URGENT wire transfer")
	cand := &Candidate{Body: "please handle this urgent WIRE transfer today"}
	assert.True(t, p.Matches(cand, time.Now()))
}

func TestContentMatchRestrictedToSubject(t *testing.T) {
	p := contentPolicy("p-1", 1, PolicyEscalate, "lottery")
	p.Condition.Fields = []string{"subject"}

	assert.True(t, p.Matches(&Candidate{Subject: "You won the lottery"}, time.Now()))
	assert.False(t, p.Matches(&Candidate{Body: "lottery"}, time.Now()))
}

func TestSenderMatch(t *testing.T) {
	p := &Policy{
		RuleID:   "p-1",
		Type:     RuleSender,
		Enabled:  true,
		Action:   PolicyEscalate,
		Condition: PolicyCondition{Patterns: []string{"ceo@corp.example", "spammy.example"}},
	}

	assert.True(t, p.Matches(&Candidate{Sender: "CEO@corp.example"}, time.Now()))
	assert.True(t, p.Matches(&Candidate{Sender: "x@spammy.example"}, time.Now()))
	assert.False(t, p.Matches(&Candidate{Sender: "other@corp.example"}, time.Now()))
}

func TestAttachmentMatch(t *testing.T) {
	p := &Policy{
		RuleID:    "p-1",
		Type:      RuleAttachment,
		Enabled:   true,
		Action:    PolicyEscalate,
		Condition: PolicyCondition{Extensions: []string{".exe", "js"}},
	}

	assert.True(t, p.Matches(&Candidate{Attachments: []string{"report.pdf", "setup.EXE"}}, time.Now()))
	assert.True(t, p.Matches(&Candidate{Attachments: []string{"payload.js"}}, time.Now()))
	assert.False(t, p.Matches(&Candidate{Attachments: []string{"report.pdf"}}, time.Now()))
	assert.False(t, p.Matches(&Candidate{}, time.Now()))
}

func TestTimeBasedMatch(t *testing.T) {
	p := &Policy{
		RuleID:    "p-1",
		Type:      RuleTimeBased,
		Enabled:   true,
		Action:    PolicyRequireApproval,
		Condition: PolicyCondition{AfterHour: 8, BeforeHour: 18},
	}

	inside := time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)
	outside := time.Date(2026, 3, 4, 23, 0, 0, 0, time.Local)

	assert.False(t, p.Matches(&Candidate{ReceivedAt: inside}, time.Now()))
	assert.True(t, p.Matches(&Candidate{ReceivedAt: outside}, time.Now()))
}

func TestTimeBasedWeekdayMatch(t *testing.T) {
	p := &Policy{
		RuleID:    "p-1",
		Type:      RuleTimeBased,
		Enabled:   true,
		Action:    PolicyRequireApproval,
		Condition: PolicyCondition{Weekdays: []int{0, 6}},
	}

	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.Local)
	wednesday := time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

	assert.True(t, p.Matches(&Candidate{ReceivedAt: saturday}, time.Now()))
	assert.False(t, p.Matches(&Candidate{ReceivedAt: wednesday}, time.Now()))
}

func TestVolumeMatch(t *testing.T) {
	p := &Policy{
		RuleID:    "p-1",
		Type:      RuleVolume,
		Enabled:   true,
		Action:    PolicyRequireApproval,
		Condition: PolicyCondition{MaxCount: 10},
	}

	assert.True(t, p.Matches(&Candidate{RecentVolume: 11}, time.Now()))
	assert.False(t, p.Matches(&Candidate{RecentVolume: 10}, time.Now()))
}
