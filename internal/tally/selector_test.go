package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredConsensus(t *testing.T) {
	assert.Equal(t, 60.0, RequiredConsensus(0))
	assert.Equal(t, 60.0, RequiredConsensus(9))
	assert.Equal(t, 70.0, RequiredConsensus(10))
	assert.Equal(t, 70.0, RequiredConsensus(100))
}

func TestSelectCandidate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, ok := SelectCandidate(nil)
		assert.False(t, ok)
	})

	t.Run("highest score", func(t *testing.T) {
		best, ok := SelectCandidate([]Candidate{
			{Method: MethodMedian, CombinedScore: 89.5},
			{Method: MethodTimeWeightedAverage, CombinedScore: 91},
			{Method: MethodVolatilityAdjusted, CombinedScore: 50},
		})
		require.True(t, ok)
		assert.Equal(t, MethodTimeWeightedAverage, best.Method)
	})

	t.Run("tie goes to the more robust method", func(t *testing.T) {
		best, _ := SelectCandidate([]Candidate{
			{Method: MethodMedian, CombinedScore: 100},
			{Method: MethodAdaptiveRobust, CombinedScore: 100},
			{Method: MethodHodgesLehmann, CombinedScore: 100},
		})
		assert.Equal(t, MethodHodgesLehmann, best.Method)

		best, _ = SelectCandidate([]Candidate{
			{Method: MethodVolatilityAdjusted, CombinedScore: 70},
			{Method: MethodWeightedConsensus, CombinedScore: 70},
			{Method: MethodTimeWeightedAverage, CombinedScore: 70},
			{Method: MethodTrimmedMean, CombinedScore: 70},
		})
		assert.Equal(t, MethodTrimmedMean, best.Method)
	})

	t.Run("independent of candidate order", func(t *testing.T) {
		candidates := []Candidate{
			{Method: MethodAdaptiveRobust, CombinedScore: 100},
			{Method: MethodHodgesLehmann, CombinedScore: 100},
		}
		a, _ := SelectCandidate(candidates)
		b, _ := SelectCandidate([]Candidate{candidates[1], candidates[0]})
		assert.Equal(t, a, b)
	})
}
