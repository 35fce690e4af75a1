package signal

import (
	"context"

	"github.com/mikey/email-triage/internal/core"
)

// StaticProducer returns a fixed score for its component. Real
// deployments inject their own producers; this one backs the CLI, smoke
// configurations, and tests.
type StaticProducer struct {
	component core.Component
	score     float64
}

// NewStaticProducer creates a producer that always reports the given
// score.
func NewStaticProducer(component core.Component, score float64) *StaticProducer {
	return &StaticProducer{component: component, score: score}
}

// NewStaticProducers creates one fixed-score producer per entry.
func NewStaticProducers(scores map[core.Component]float64) []core.SignalProducer {
	out := make([]core.SignalProducer, 0, len(scores))
	for c, s := range scores {
		out = append(out, NewStaticProducer(c, s))
	}
	return out
}

func (p *StaticProducer) Component() core.Component {
	return p.component
}

func (p *StaticProducer) Evaluate(ctx context.Context, cand *core.Candidate) (*core.ComponentResult, error) {
	return &core.ComponentResult{
		Score:   p.score,
		Details: map[string]any{"producer": "static"},
	}, nil
}
