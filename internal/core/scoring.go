package core

import (
	"fmt"
	"math"
)

// weightTolerance is how far the weight sum may drift from 1.0 before the
// configuration is rejected.
const weightTolerance = 1e-6

// Validate checks that every required component has a non-negative weight
// and that the weights sum to 1.0 within tolerance.
func (w ScoringWeights) Validate() error {
	sum := 0.0
	for _, c := range RequiredComponents {
		weight, ok := w[c]
		if !ok {
			return &ConfigError{Field: "scoring.weights", Reason: fmt.Sprintf("missing weight for component %s", c)}
		}
		if weight < 0 {
			return &ConfigError{Field: "scoring.weights", Reason: fmt.Sprintf("negative weight %f for component %s", weight, c)}
		}
		sum += weight
	}
	if len(w) != len(RequiredComponents) {
		return &ConfigError{Field: "scoring.weights", Reason: fmt.Sprintf("expected exactly %d weights, got %d", len(RequiredComponents), len(w))}
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return &ConfigError{Field: "scoring.weights", Reason: fmt.Sprintf("weights sum to %f, want 1.0", sum)}
	}
	return nil
}

// Aggregate combines the four component scores into the overall
// confidence score as a weighted sum. It is a pure function: no state, no
// I/O, same input always yields the same output.
func Aggregate(input ValidationInput, weights ScoringWeights) (float64, error) {
	if err := weights.Validate(); err != nil {
		return 0, err
	}
	overall := 0.0
	for _, c := range RequiredComponents {
		result, ok := input[c]
		if !ok {
			return 0, &InputError{Component: c, Reason: "component result missing"}
		}
		if result.Score < 0 || result.Score > 1 {
			return 0, &InputError{Component: c, Reason: fmt.Sprintf("score %f outside [0,1]", result.Score)}
		}
		overall += weights[c] * result.Score
	}
	return overall, nil
}
