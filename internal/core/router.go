package core

import "fmt"

// Route turns everything known about an email into the final decision.
// The precedence is total, highest first: blacklist deny, then a matched
// policy, then whitelist allow, then the score thresholds. Exactly one
// branch fires, so every decision is explainable by citing which rule in
// the order produced it. Route is pure: identical inputs always yield the
// identical decision.
func Route(overall float64, risk RiskLevel, verdict ListVerdict, outcome *PolicyOutcome, t Thresholds) Decision {
	d := Decision{
		OverallScore: overall,
		ListVerdict:  verdict,
	}

	switch {
	case verdict == VerdictDeny:
		d.Type = DecisionEscalate
		d.Risk = RiskHigh
		d.Reason = "blacklisted sender"

	case outcome != nil:
		d.MatchedPolicy = outcome.RuleID
		d.Reason = fmt.Sprintf("policy %s matched", outcome.RuleID)
		if outcome.Description != "" {
			d.Reason = fmt.Sprintf("policy %s matched: %s", outcome.RuleID, outcome.Description)
		}
		switch outcome.Action {
		case PolicyRelease:
			d.Type = DecisionAutoRelease
			d.Risk = RiskLow
		case PolicyRequireApproval:
			d.Type = DecisionApprovalRequired
			d.Risk = RiskMedium
		default:
			d.Type = DecisionEscalate
			d.Risk = RiskHigh
		}

	case verdict == VerdictAllow:
		d.Type = DecisionAutoRelease
		d.Risk = RiskLow
		d.Reason = "whitelisted sender"

	case overall >= t.AutoReleaseMin:
		d.Type = DecisionAutoRelease
		d.Risk = risk
		d.Reason = fmt.Sprintf("confidence score %.4f at or above auto-release threshold %.2f", overall, t.AutoReleaseMin)

	case overall >= t.ApprovalMin:
		d.Type = DecisionApprovalRequired
		d.Risk = risk
		d.Reason = fmt.Sprintf("confidence score %.4f requires human approval (threshold %.2f)", overall, t.ApprovalMin)

	default:
		d.Type = DecisionEscalate
		d.Risk = risk
		d.Reason = fmt.Sprintf("confidence score %.4f below approval threshold %.2f", overall, t.ApprovalMin)
	}

	if d.Type != DecisionAutoRelease {
		d.HoldExtensionDays = HoldExtensionDays(d.Risk, t)
	}
	return d
}

// ActionFor maps a decision type to the ticket action requested from the
// executor.
func ActionFor(dt DecisionType) ActionType {
	switch dt {
	case DecisionAutoRelease:
		return ActionRelease
	case DecisionApprovalRequired:
		return ActionCreateApproval
	default:
		return ActionKeepQuarantine
	}
}
