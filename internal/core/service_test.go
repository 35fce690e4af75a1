package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/email-triage/internal/adapters/signal"
	"github.com/mikey/email-triage/internal/adapters/store"
	"github.com/mikey/email-triage/internal/core"
)

func testWeights() core.ScoringWeights {
	return core.ScoringWeights{
		core.ComponentDomain:  0.30,
		core.ComponentContent: 0.35,
		core.ComponentSender:  0.25,
		core.ComponentRules:   0.10,
	}
}

func testThresholds() core.Thresholds {
	return core.Thresholds{
		AutoReleaseMin:        0.85,
		ApprovalMin:           0.60,
		EscalateMax:           0.60,
		HoldExtensionDefault:  7,
		HoldExtensionHighRisk: 30,
	}
}

type failingProducer struct {
	component core.Component
}

func (p failingProducer) Component() core.Component {
	return p.component
}

func (p failingProducer) Evaluate(ctx context.Context, cand *core.Candidate) (*core.ComponentResult, error) {
	return nil, errors.New("reputation lookup timed out")
}

type triageEnv struct {
	store     *store.MemoryStore
	svc       *core.TriageService
	approvals *core.ApprovalManager
}

func newTriageEnv(t *testing.T, producers []core.SignalProducer, seed func(ctx context.Context, s *store.MemoryStore)) *triageEnv {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	memStore := store.NewMemoryStore(logger)
	if seed != nil {
		seed(ctx, memStore)
	}

	holder, err := core.NewSnapshotHolder(ctx, memStore, logger, time.Hour)
	require.NoError(t, err)

	approvals := core.NewApprovalManager(memStore, nil, logger, 72*time.Hour, time.Hour)

	svc, err := core.NewTriageService(
		producers, holder, approvals, nil, nil,
		memStore, memStore,
		testWeights(), testThresholds(),
		24*time.Hour, "reviewer@corp.example", logger,
	)
	require.NoError(t, err)

	return &triageEnv{store: memStore, svc: svc, approvals: approvals}
}

func staticScores(domain, content, sender, rules float64) []core.SignalProducer {
	return signal.NewStaticProducers(map[core.Component]float64{
		core.ComponentDomain:  domain,
		core.ComponentContent: content,
		core.ComponentSender:  sender,
		core.ComponentRules:   rules,
	})
}

func testCandidate(id string) *core.Candidate {
	return &core.Candidate{
		EmailID:   id,
		Sender:    "someone@example.org",
		Recipient: "helpdesk@corp.example",
		Subject:   "Quarterly report",
		Body:      "Please find the report attached.",
	}
}

// pendingApprovals lists still-pending requests by probing far past any
// realistic expiry.
func pendingApprovals(t *testing.T, s *store.MemoryStore) []*core.ApprovalRequest {
	t.Helper()
	reqs, err := s.ListExpiredApprovals(context.Background(), time.Now().Add(1000*time.Hour))
	require.NoError(t, err)
	return reqs
}

func TestProcessEndToEnd(t *testing.T) {
	env := newTriageEnv(t, staticScores(0.9, 0.8, 0.7, 0.6), nil)

	d, err := env.svc.Process(context.Background(), testCandidate("mail-1"))
	require.NoError(t, err)

	assert.Equal(t, core.DecisionApprovalRequired, d.Type)
	assert.Equal(t, core.RiskMedium, d.Risk)
	assert.InDelta(t, 0.785, d.OverallScore, 1e-9)
	assert.Equal(t, core.VerdictNone, d.ListVerdict)

	// An approval request was opened and the audit recorded.
	reqs := pendingApprovals(t, env.store)
	require.Len(t, reqs, 1)
	assert.Equal(t, "mail-1", reqs[0].EmailID)
	assert.InDelta(t, 0.785, reqs[0].ConfidenceScore, 1e-9)

	audits := env.store.Audits()
	require.Len(t, audits, 1)
	assert.Equal(t, "mail-1", audits[0].EmailID)
	assert.Equal(t, core.DecisionApprovalRequired, audits[0].Decision.Type)
	assert.Len(t, audits[0].Input, 4)
}

func TestProcessAutoRelease(t *testing.T) {
	env := newTriageEnv(t, staticScores(0.95, 0.9, 0.9, 0.9), nil)

	d, err := env.svc.Process(context.Background(), testCandidate("mail-2"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionAutoRelease, d.Type)
	assert.Equal(t, core.RiskLow, d.Risk)
	assert.Empty(t, pendingApprovals(t, env.store))
}

func TestProcessBlacklistedSenderEscalates(t *testing.T) {
	env := newTriageEnv(t, staticScores(1, 1, 1, 1), func(ctx context.Context, s *store.MemoryStore) {
		require.NoError(t, s.AddListEntry(ctx, core.KindBlacklist, &core.ListEntry{
			Type: core.EntryEmail, Value: "someone@example.org",
		}))
	})

	d, err := env.svc.Process(context.Background(), testCandidate("mail-3"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionEscalate, d.Type)
	assert.Equal(t, "blacklisted sender", d.Reason)
	assert.Equal(t, core.VerdictDeny, d.ListVerdict)
	// Scoring was bypassed entirely.
	assert.Zero(t, d.OverallScore)

	audits := env.store.Audits()
	require.Len(t, audits, 1)
	assert.Empty(t, audits[0].Input)
}

func TestProcessDenyBeatsWhitelistedDomain(t *testing.T) {
	env := newTriageEnv(t, staticScores(1, 1, 1, 1), func(ctx context.Context, s *store.MemoryStore) {
		require.NoError(t, s.AddListEntry(ctx, core.KindWhitelist, &core.ListEntry{
			Type: core.EntryDomain, Value: "example.org",
		}))
		require.NoError(t, s.AddListEntry(ctx, core.KindBlacklist, &core.ListEntry{
			Type: core.EntryEmail, Value: "someone@example.org",
		}))
	})

	d, err := env.svc.Process(context.Background(), testCandidate("mail-4"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionEscalate, d.Type)
	assert.Equal(t, "blacklisted sender", d.Reason)
}

func TestProcessWhitelistedSenderReleases(t *testing.T) {
	env := newTriageEnv(t, staticScores(0.1, 0.1, 0.1, 0.1), func(ctx context.Context, s *store.MemoryStore) {
		require.NoError(t, s.AddListEntry(ctx, core.KindWhitelist, &core.ListEntry{
			Type: core.EntryDomain, Value: "example.org",
		}))
	})

	d, err := env.svc.Process(context.Background(), testCandidate("mail-5"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionAutoRelease, d.Type)
	assert.Equal(t, "whitelisted sender", d.Reason)
	// The low score is still recorded for the audit.
	assert.InDelta(t, 0.1, d.OverallScore, 1e-9)
}

func TestProcessPolicyShortCircuit(t *testing.T) {
	env := newTriageEnv(t, staticScores(1, 1, 1, 1), func(ctx context.Context, s *store.MemoryStore) {
		require.NoError(t, s.SavePolicy(ctx, &core.Policy{
			RuleID: "p-1", Priority: 1, Type: core.RuleContent,
			Condition: core.PolicyCondition{Keywords: []string{"report"}},
			Action:    core.PolicyRelease, Enabled: true,
		}))
		require.NoError(t, s.SavePolicy(ctx, &core.Policy{
			RuleID: "p-2", Priority: 2, Type: core.RuleContent,
			Condition: core.PolicyCondition{Keywords: []string{"report"}},
			Action:    core.PolicyEscalate, Enabled: true,
		}))
	})

	d, err := env.svc.Process(context.Background(), testCandidate("mail-6"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionAutoRelease, d.Type)
	assert.Equal(t, "p-1", d.MatchedPolicy)
}

func TestProcessFailedProducerEscalates(t *testing.T) {
	producers := staticScores(0.9, 0.9, 0.9, 0.9)
	// Replace the sender check with one that fails.
	for i, p := range producers {
		if p.Component() == core.ComponentSender {
			producers[i] = failingProducer{component: core.ComponentSender}
		}
	}
	env := newTriageEnv(t, producers, nil)

	d, err := env.svc.Process(context.Background(), testCandidate("mail-7"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionEscalate, d.Type)
	assert.Equal(t, core.RiskHigh, d.Risk)
	assert.Contains(t, d.Reason, string(core.ComponentSender))

	// The audit still lands even on the failure path.
	require.Len(t, env.store.Audits(), 1)
}

func TestProcessMalformedCandidate(t *testing.T) {
	env := newTriageEnv(t, staticScores(1, 1, 1, 1), nil)

	_, err := env.svc.Process(context.Background(), &core.Candidate{Sender: "x@y.example"})
	var inputErr *core.InputError
	require.ErrorAs(t, err, &inputErr)

	_, err = env.svc.Process(context.Background(), &core.Candidate{EmailID: "mail-8"})
	require.ErrorAs(t, err, &inputErr)
}

func TestProcessAppendsHistory(t *testing.T) {
	env := newTriageEnv(t, staticScores(0.95, 0.9, 0.9, 0.9), nil)

	_, err := env.svc.Process(context.Background(), testCandidate("mail-9"))
	require.NoError(t, err)

	count, err := env.store.CountHistorySince(context.Background(), "someone@example.org", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessVolumePolicyUsesHistory(t *testing.T) {
	env := newTriageEnv(t, staticScores(1, 1, 1, 1), func(ctx context.Context, s *store.MemoryStore) {
		require.NoError(t, s.SavePolicy(ctx, &core.Policy{
			RuleID: "p-vol", Priority: 1, Type: core.RuleVolume,
			Condition: core.PolicyCondition{MaxCount: 2},
			Action:    core.PolicyRequireApproval, Enabled: true,
		}))
		for i := 0; i < 3; i++ {
			require.NoError(t, s.AppendHistory(ctx, &core.HistoryEntry{
				Sender:    "someone@example.org",
				Timestamp: time.Now(),
			}))
		}
	})

	d, err := env.svc.Process(context.Background(), testCandidate("mail-10"))
	require.NoError(t, err)
	assert.Equal(t, core.DecisionApprovalRequired, d.Type)
	assert.Equal(t, "p-vol", d.MatchedPolicy)
}

func TestNewTriageServiceRejectsBadConfig(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	memStore := store.NewMemoryStore(logger)
	holder, err := core.NewSnapshotHolder(ctx, memStore, logger, time.Hour)
	require.NoError(t, err)

	badWeights := testWeights()
	badWeights[core.ComponentRules] = 0.5

	_, err = core.NewTriageService(
		staticScores(1, 1, 1, 1), holder, nil, nil, nil,
		memStore, memStore, badWeights, testThresholds(),
		time.Hour, "", logger,
	)
	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	// A missing producer is also a startup error.
	_, err = core.NewTriageService(
		staticScores(1, 1, 1, 1)[:3], holder, nil, nil, nil,
		memStore, memStore, testWeights(), testThresholds(),
		time.Hour, "", logger,
	)
	require.ErrorAs(t, err, &cfgErr)
}
