package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikey/email-triage/internal/core"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	require.NoError(t, cfg.Validate())

	w := cfg.GetWeights()
	require.NoError(t, w.Validate())
	assert.InDelta(t, 0.35, w[core.ComponentContent], 1e-9)

	th := cfg.GetThresholds()
	assert.InDelta(t, 0.85, th.AutoReleaseMin, 1e-9)
	assert.Equal(t, 30, th.HoldExtensionHighRisk)

	approval, err := cfg.GetApproval()
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, approval.TTL)
	assert.Equal(t, 15*time.Minute, approval.SweepFrequency)

	engine, err := cfg.GetEngine()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, engine.SnapshotRefresh)
	assert.Equal(t, 24*time.Hour, engine.VolumeWindow)

	assert.Equal(t, "sqlite", cfg.GetStore().Type)
	assert.Equal(t, "log", cfg.GetString("notifier.type"))
}

func TestValidateRejectsBadWeights(t *testing.T) {
	v := NewEmptyViper()
	v.Set("scoring.weights.domain_validation", 0.9)
	cfg := NewFromViper(v)

	var cfgErr *core.ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	v := NewEmptyViper()
	v.Set("thresholds.approval_min", 0.95)
	cfg := NewFromViper(v)

	var cfgErr *core.ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
}

func TestMalformedDurationSurfacesAsConfigError(t *testing.T) {
	v := NewEmptyViper()
	v.Set("approval.ttl", "three days")
	cfg := NewFromViper(v)

	_, err := cfg.GetApproval()
	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "approval.ttl", cfgErr.Field)
}

func TestStaticScoresDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	scores := cfg.GetStaticScores()
	require.Len(t, scores, len(core.RequiredComponents))
	for _, component := range core.RequiredComponents {
		assert.InDelta(t, 0.5, scores[component], 1e-9, string(component))
	}
}
