package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultThresholds() Thresholds {
	return Thresholds{
		AutoReleaseMin:        0.85,
		ApprovalMin:           0.60,
		EscalateMax:           0.60,
		HoldExtensionDefault:  7,
		HoldExtensionHighRisk: 30,
	}
}

func TestClassifyBands(t *testing.T) {
	th := defaultThresholds()
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{1.0, RiskLow},
		{0.85, RiskLow},
		{0.849999, RiskMedium},
		{0.70, RiskMedium},
		{0.60, RiskMedium},
		{0.599999, RiskHigh},
		{0.0, RiskHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, th), "score %f", tt.score)
	}
}

func TestClassifyEmptyMediumBand(t *testing.T) {
	// approval_min == escalate_max leaves the medium band mathematically
	// empty for strict inequalities; the boundary itself is still medium.
	th := defaultThresholds()
	assert.Equal(t, RiskMedium, Classify(th.ApprovalMin, th))
}

func TestHoldExtensionDays(t *testing.T) {
	th := defaultThresholds()
	assert.Equal(t, 30, HoldExtensionDays(RiskHigh, th))
	assert.Equal(t, 7, HoldExtensionDays(RiskMedium, th))
	assert.Equal(t, 7, HoldExtensionDays(RiskLow, th))
}

func TestThresholdsValidation(t *testing.T) {
	valid := defaultThresholds()
	require.NoError(t, valid.Validate())

	outOfRange := valid
	outOfRange.AutoReleaseMin = 1.5
	var cfgErr *ConfigError
	require.ErrorAs(t, outOfRange.Validate(), &cfgErr)

	// approval_min below escalate_max would create an unreachable band
	inverted := valid
	inverted.EscalateMax = 0.70
	require.ErrorAs(t, inverted.Validate(), &cfgErr)

	crossed := valid
	crossed.ApprovalMin = 0.90
	require.ErrorAs(t, crossed.Validate(), &cfgErr)
}
