package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultWeights() ScoringWeights {
	return ScoringWeights{
		ComponentDomain:  0.30,
		ComponentContent: 0.35,
		ComponentSender:  0.25,
		ComponentRules:   0.10,
	}
}

func makeInput(domain, content, sender, rules float64) ValidationInput {
	return ValidationInput{
		ComponentDomain:  {Score: domain},
		ComponentContent: {Score: content},
		ComponentSender:  {Score: sender},
		ComponentRules:   {Score: rules},
	}
}

func TestAggregateWeightedSum(t *testing.T) {
	overall, err := Aggregate(makeInput(0.9, 0.8, 0.7, 0.6), defaultWeights())
	require.NoError(t, err)
	assert.InDelta(t, 0.785, overall, 1e-9)
}

func TestAggregateStaysInRange(t *testing.T) {
	cases := []ValidationInput{
		makeInput(0, 0, 0, 0),
		makeInput(1, 1, 1, 1),
		makeInput(0.123, 0.456, 0.789, 0.999),
	}
	for _, input := range cases {
		overall, err := Aggregate(input, defaultWeights())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, overall, 0.0)
		assert.LessOrEqual(t, overall, 1.0)
	}
}

func TestAggregateLinearInEachComponent(t *testing.T) {
	weights := defaultWeights()
	base, err := Aggregate(makeInput(0.5, 0.5, 0.5, 0.5), weights)
	require.NoError(t, err)

	bumped, err := Aggregate(makeInput(0.7, 0.5, 0.5, 0.5), weights)
	require.NoError(t, err)
	assert.InDelta(t, weights[ComponentDomain]*0.2, bumped-base, 1e-9)
}

func TestAggregateMonotonic(t *testing.T) {
	weights := defaultWeights()
	low, err := Aggregate(makeInput(0.2, 0.4, 0.6, 0.8), weights)
	require.NoError(t, err)

	for _, raised := range []ValidationInput{
		makeInput(0.3, 0.4, 0.6, 0.8),
		makeInput(0.2, 0.5, 0.6, 0.8),
		makeInput(0.2, 0.4, 0.7, 0.8),
		makeInput(0.2, 0.4, 0.6, 0.9),
	} {
		high, err := Aggregate(raised, weights)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, high, low)
	}
}

func TestAggregateMissingComponent(t *testing.T) {
	input := makeInput(0.9, 0.8, 0.7, 0.6)
	delete(input, ComponentSender)

	_, err := Aggregate(input, defaultWeights())
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, ComponentSender, inputErr.Component)
}

func TestAggregateOutOfRangeScore(t *testing.T) {
	input := makeInput(0.9, 1.2, 0.7, 0.6)
	_, err := Aggregate(input, defaultWeights())
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, ComponentContent, inputErr.Component)

	input = makeInput(-0.1, 0.8, 0.7, 0.6)
	_, err = Aggregate(input, defaultWeights())
	require.ErrorAs(t, err, &inputErr)
}

func TestWeightsValidation(t *testing.T) {
	tests := []struct {
		name    string
		weights ScoringWeights
		wantErr bool
	}{
		{"valid", defaultWeights(), false},
		{"within tolerance", ScoringWeights{
			ComponentDomain: 0.25, ComponentContent: 0.25,
			ComponentSender: 0.25, ComponentRules: 0.2500000001,
		}, false},
		{"sum too high", ScoringWeights{
			ComponentDomain: 0.5, ComponentContent: 0.5,
			ComponentSender: 0.5, ComponentRules: 0.5,
		}, true},
		{"negative weight", ScoringWeights{
			ComponentDomain: -0.1, ComponentContent: 0.5,
			ComponentSender: 0.4, ComponentRules: 0.2,
		}, true},
		{"missing component", ScoringWeights{
			ComponentDomain: 0.5, ComponentContent: 0.5,
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
