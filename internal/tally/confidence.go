package tally

import (
	"math"
)

// A point agrees with a candidate when within price/20 (5%) of it.
const consensusToleranceDivisor = 20

// SampleBonus returns the confidence bonus for a retained sample of size n.
func SampleBonus(n int) int {
	switch {
	case n <= 2:
		return 0
	case n <= 5:
		return 5
	case n <= 10:
		return 10
	default:
		return 15
	}
}

// ConsensusPercent is the share of prices within 5% of price, in [0, 100].
func ConsensusPercent(prices []uint64, price uint64) float64 {
	if len(prices) == 0 {
		return 0
	}
	tolerance := price / consensusToleranceDivisor
	within := 0
	for _, p := range prices {
		if absDiff(p, price) <= tolerance {
			within++
		}
	}
	return float64(within) * 100 / float64(len(prices))
}

// CombinedScore weighs confidence 70% and consensus 30%.
func CombinedScore(confidence int, consensusPercent float64) float64 {
	return float64(float64(confidence)*0.7) + float64(consensusPercent*0.3)
}

func scoreCandidate(m Method, price uint64, prices []uint64) Candidate {
	c := Candidate{
		Method:           m,
		Price:            price,
		BaseConfidence:   m.BaseConfidence(),
		SampleBonus:      SampleBonus(len(prices)),
		ConsensusPercent: ConsensusPercent(prices, price),
	}
	c.CombinedScore = CombinedScore(c.Confidence(), c.ConsensusPercent)
	return c
}

// scoreConfidence fills the auxiliary uncertainty metrics for the winner.
func scoreConfidence(winner Candidate, retained PriceSet, st Statistics, resamples int) ConfidenceScore {
	return ConfidenceScore{
		Percentage:           winner.Confidence(),
		IntervalLow:          satSub(winner.Price, st.RobustStdDev),
		IntervalHigh:         winner.Price + st.RobustStdDev,
		BootstrapVariance:    BootstrapVariance(winner.Method, retained.Prices, resamples),
		TemporalConsistency:  TemporalConsistency(retained.Prices, winner.Price),
		CrossValidationScore: CrossValidationScore(winner.Method, retained.Prices, winner.Price),
	}
}

// estimateOrMedian falls back to the median when the method cannot handle
// the reduced sample.
func estimateOrMedian(m Method, prices []uint64) uint64 {
	if price, ok := m.Estimate(prices); ok {
		return price
	}
	price, _ := MethodMedian.Estimate(prices)
	return price
}

// TemporalConsistency scores how smoothly prices move in submission order.
// With s the mean absolute step between consecutive prices relative to
// price, the score is 100 * (1 - 10s) clamped to [0, 100]; a 10% average
// step scores zero. Fewer than two points score 100.
func TemporalConsistency(prices []uint64, price uint64) float64 {
	if len(prices) < 2 || price == 0 {
		return 100
	}
	var steps float64
	for i := 1; i < len(prices); i++ {
		steps += float64(absDiff(prices[i], prices[i-1]))
	}
	relative := steps / float64(len(prices)-1) / float64(price)
	return clampPercent(100 - float64(relative*1000))
}

// CrossValidationScore is the leave-one-out agreement of method with price.
// Each point is dropped once and the method re-estimated (median when the
// reduced sample is too small); closeness is 1 - 20*|est-price|/price floored
// at zero, so a 5% miss scores nothing. The score is 100 * mean closeness.
func CrossValidationScore(m Method, prices []uint64, price uint64) float64 {
	n := len(prices)
	if n < 2 || price == 0 {
		return 100
	}
	var total float64
	held := make([]uint64, 0, n-1)
	for i := range prices {
		held = append(held[:0], prices[:i]...)
		held = append(held, prices[i+1:]...)
		est := estimateOrMedian(m, held)
		relative := float64(absDiff(est, price)) / float64(price)
		total += math.Max(0, 1-float64(relative*20))
	}
	return clampPercent(total * 100 / float64(n))
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(v, 100))
}
