package tally

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleBonus(t *testing.T) {
	tests := []struct {
		n        int
		expected int
	}{
		{0, 0}, {1, 0}, {2, 0}, {3, 5}, {5, 5}, {6, 10}, {10, 10}, {11, 15}, {200, 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SampleBonus(tt.n), "n=%d", tt.n)
	}
}

func TestConsensusPercent(t *testing.T) {
	prices := []uint64{100_000_000, 104_000_000, 105_000_000, 106_000_000}

	// tolerance is 5_000_000 around 100_000_000
	assert.InDelta(t, 75.0, ConsensusPercent(prices, 100_000_000), 1e-9)
	assert.InDelta(t, 100.0, ConsensusPercent(clusterPrices, 28_551_500), 1e-9)
	assert.Zero(t, ConsensusPercent(nil, 100_000_000))
	assert.Zero(t, ConsensusPercent([]uint64{10_000_000, 40_000_000}, 25_000_000))
}

func TestCombinedScore(t *testing.T) {
	assert.Equal(t, 100.0, CombinedScore(100, 100))
	assert.InDelta(t, 89.5, CombinedScore(85, 100), 1e-9)
	assert.InDelta(t, 63.0, CombinedScore(90, 0), 1e-9)
}

func TestCandidateConfidenceCapped(t *testing.T) {
	c := scoreCandidate(MethodAdaptiveRobust, 28_551_667, clusterPrices)
	assert.Equal(t, 95, c.BaseConfidence)
	assert.Equal(t, 10, c.SampleBonus)
	assert.Equal(t, 100, c.Confidence())
	assert.Equal(t, 100.0, c.CombinedScore)
}

func TestTemporalConsistency(t *testing.T) {
	assert.Equal(t, 100.0, TemporalConsistency([]uint64{150_250_000}, 150_250_000))
	assert.Equal(t, 100.0, TemporalConsistency([]uint64{150_250_000, 150_250_000, 150_250_000}, 150_250_000))
	assert.InDelta(t, 80.198, TemporalConsistency([]uint64{100_000_000, 102_000_000}, 101_000_000), 1e-3)
	assert.Zero(t, TemporalConsistency([]uint64{10_000_000, 20_000_000, 30_000_000, 40_000_000}, 25_000_000))
}

func TestCrossValidationScore(t *testing.T) {
	assert.Equal(t, 100.0, CrossValidationScore(MethodMedian, []uint64{150_250_000}, 150_250_000))
	assert.Equal(t, 100.0, CrossValidationScore(MethodHodgesLehmann, []uint64{7_000_000, 7_000_000, 7_000_000}, 7_000_000))
	assert.InDelta(t, 80.198, CrossValidationScore(MethodHodgesLehmann, []uint64{100_000_000, 102_000_000}, 101_000_000), 1e-3)
	assert.Zero(t, CrossValidationScore(MethodAdaptiveRobust, []uint64{10_000_000, 20_000_000, 30_000_000, 40_000_000}, 25_000_000))
}

func TestScoreConfidence(t *testing.T) {
	set := PriceSet{Prices: clusterPrices, Sources: []int{0, 1, 2, 3, 4, 5}}
	st := ComputeStatistics(set.Prices)
	winner := scoreCandidate(MethodHodgesLehmann, 28_551_500, set.Prices)

	score := scoreConfidence(winner, set, st, DefaultBootstrapResamples)
	assert.Equal(t, 100, score.Percentage)
	assert.Equal(t, uint64(28_551_500-5_189), score.IntervalLow)
	assert.Equal(t, uint64(28_551_500+5_189), score.IntervalHigh)
	assert.Greater(t, score.BootstrapVariance, 0.0)
	assert.GreaterOrEqual(t, score.TemporalConsistency, 0.0)
	assert.LessOrEqual(t, score.TemporalConsistency, 100.0)
	assert.Greater(t, score.CrossValidationScore, 99.0)
}

func TestScoreConfidenceIntervalSaturates(t *testing.T) {
	winner := Candidate{Method: MethodMedian, Price: 5, BaseConfidence: 85}
	score := scoreConfidence(winner, PriceSet{Prices: []uint64{5}}, Statistics{RobustStdDev: 10}, 0)
	assert.Zero(t, score.IntervalLow)
	assert.Equal(t, uint64(15), score.IntervalHigh)
}
