package core

import "fmt"

// Validate rejects threshold configurations that would create an
// unreachable decision band. The ordering escalate_max <= approval_min <=
// auto_release_min is enforced here, at load time, never per email.
func (t Thresholds) Validate() error {
	for field, v := range map[string]float64{
		"thresholds.auto_release_min": t.AutoReleaseMin,
		"thresholds.approval_min":     t.ApprovalMin,
		"thresholds.escalate_max":     t.EscalateMax,
	} {
		if v < 0 || v > 1 {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("value %f outside [0,1]", v)}
		}
	}
	if t.EscalateMax > t.ApprovalMin {
		return &ConfigError{Field: "thresholds.escalate_max", Reason: "must not exceed approval_min"}
	}
	if t.ApprovalMin > t.AutoReleaseMin {
		return &ConfigError{Field: "thresholds.approval_min", Reason: "must not exceed auto_release_min"}
	}
	if t.HoldExtensionDefault < 0 || t.HoldExtensionHighRisk < 0 {
		return &ConfigError{Field: "thresholds.hold_extension", Reason: "hold extensions must be non-negative"}
	}
	return nil
}

// Classify maps the overall confidence score to a risk level. Scores at
// or above auto_release_min are low risk, scores below escalate_max are
// high, and anything else is medium by definition. The medium band may
// legitimately be empty when approval_min equals escalate_max.
func Classify(overall float64, t Thresholds) RiskLevel {
	switch {
	case overall >= t.AutoReleaseMin:
		return RiskLow
	case overall < t.EscalateMax:
		return RiskHigh
	default:
		return RiskMedium
	}
}

// HoldExtensionDays returns how many extra days a non-released email stays
// quarantined, sized by risk.
func HoldExtensionDays(risk RiskLevel, t Thresholds) int {
	if risk == RiskHigh {
		return t.HoldExtensionHighRisk
	}
	return t.HoldExtensionDefault
}
