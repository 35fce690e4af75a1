package core

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// EvaluatePolicies walks the snapshot's enabled policies strictly in
// ascending (priority, rule_id) order and returns the first matching
// policy's outcome. Later policies never run once one matches; a nil
// return means no policy fired and scoring proceeds normally.
func EvaluatePolicies(snap *Snapshot, cand *Candidate, now time.Time) *PolicyOutcome {
	for _, p := range snap.Policies() {
		if !p.Enabled {
			continue
		}
		if p.Matches(cand, now) {
			return &PolicyOutcome{
				RuleID:      p.RuleID,
				Action:      p.Action,
				Description: p.Description,
			}
		}
	}
	return nil
}

// Matches evaluates the policy's condition against the candidate. The
// engine never mutates the policy or the candidate here.
func (p *Policy) Matches(cand *Candidate, now time.Time) bool {
	switch p.Type {
	case RuleContent:
		return p.Condition.matchesContent(cand)
	case RuleSender:
		return p.Condition.matchesSender(cand)
	case RuleAttachment:
		return p.Condition.matchesAttachment(cand)
	case RuleTimeBased:
		return p.Condition.matchesTime(cand, now)
	case RuleVolume:
		return p.Condition.MaxCount > 0 && cand.RecentVolume > p.Condition.MaxCount
	default:
		return false
	}
}

func (c *PolicyCondition) matchesContent(cand *Candidate) bool {
	if len(c.Keywords) == 0 {
		return false
	}
	var haystacks []string
	fields := c.Fields
	if len(fields) == 0 {
		fields = []string{"subject", "body"}
	}
	for _, f := range fields {
		switch f {
		case "subject":
			haystacks = append(haystacks, fold.String(cand.Subject))
		case "body":
			haystacks = append(haystacks, fold.String(cand.Body))
		}
	}
	for _, kw := range c.Keywords {
		needle := fold.String(kw)
		if needle == "" {
			continue
		}
		for _, h := range haystacks {
			if strings.Contains(h, needle) {
				return true
			}
		}
	}
	return false
}

func (c *PolicyCondition) matchesSender(cand *Candidate) bool {
	sender := strings.ToLower(strings.TrimSpace(cand.Sender))
	domain := cand.Domain()
	for _, pattern := range c.Patterns {
		p := strings.ToLower(strings.TrimSpace(pattern))
		if p == "" {
			continue
		}
		if strings.Contains(p, "@") {
			if sender == p {
				return true
			}
		} else if domain == p {
			return true
		}
	}
	return false
}

func (c *PolicyCondition) matchesAttachment(cand *Candidate) bool {
	for _, name := range cand.Attachments {
		ext := strings.ToLower(filepath.Ext(name))
		for _, blocked := range c.Extensions {
			b := strings.ToLower(strings.TrimSpace(blocked))
			if b != "" && !strings.HasPrefix(b, ".") {
				b = "." + b
			}
			if ext != "" && ext == b {
				return true
			}
		}
	}
	return false
}

// matchesTime fires for emails arriving outside the allowed
// [AfterHour, BeforeHour) window or on one of the listed weekdays. An
// unset window (both hours zero) disables the hour check.
func (c *PolicyCondition) matchesTime(cand *Candidate, now time.Time) bool {
	arrived := cand.ReceivedAt
	if arrived.IsZero() {
		arrived = now
	}
	for _, wd := range c.Weekdays {
		if int(arrived.Weekday()) == wd {
			return true
		}
	}
	if c.AfterHour == 0 && c.BeforeHour == 0 {
		return false
	}
	hour := arrived.Hour()
	return hour < c.AfterHour || hour >= c.BeforeHour
}
