package tally

// Consensus thresholds: large retained samples must agree more.
const (
	largeSampleSize      = 10
	largeSampleThreshold = 70.0
	smallSampleThreshold = 60.0
)

// RequiredConsensus returns the agreement percentage a result over n retained
// points must reach to be marked valid.
func RequiredConsensus(n int) float64 {
	if n >= largeSampleSize {
		return largeSampleThreshold
	}
	return smallSampleThreshold
}

// SelectCandidate returns the highest-scoring candidate. Equal scores go to
// the more robust method (HodgesLehmann, AdaptiveRobust, Median, TrimmedMean,
// TimeWeightedAverage, WeightedConsensus, VolatilityAdjusted).
func SelectCandidate(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.CombinedScore > best.CombinedScore ||
			(c.CombinedScore == best.CombinedScore && c.Method.robustnessRank() < best.Method.robustnessRank()) {
			best = c
		}
	}
	return best, true
}
