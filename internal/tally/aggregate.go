package tally

import (
	"math"
	"math/big"
	"slices"
)

// MinPoints is the smallest sample the method can estimate from.
func (m Method) MinPoints() int {
	switch m {
	case MethodMedian:
		return 1
	case MethodHodgesLehmann, MethodTimeWeightedAverage:
		return 2
	case MethodTrimmedMean, MethodWeightedConsensus, MethodVolatilityAdjusted, MethodAdaptiveRobust:
		return 3
	default:
		return math.MaxInt
	}
}

// Estimate computes the method's consensus price over prices given in
// submission order. ok is false when the sample is too small.
func (m Method) Estimate(prices []uint64) (price uint64, ok bool) {
	if len(prices) < m.MinPoints() {
		return 0, false
	}
	sorted := sortedCopy(prices)

	switch m {
	case MethodMedian:
		return medianSorted(sorted), true
	case MethodTrimmedMean:
		return trimmedMean(sorted)
	case MethodHodgesLehmann:
		return hodgesLehmann(sorted), true
	case MethodWeightedConsensus:
		return weightedMean(sorted, consensusWeights(sorted)), true
	case MethodTimeWeightedAverage:
		return weightedMean(prices, recencyWeights(len(prices))), true
	case MethodVolatilityAdjusted:
		return weightedMean(sorted, volatilityWeights(sorted)), true
	case MethodAdaptiveRobust:
		return adaptiveRobust(sorted), true
	default:
		return 0, false
	}
}

// trimmedMean drops floor(10%) from each end and averages the rest, which
// must hold at least three points.
func trimmedMean(sorted []uint64) (uint64, bool) {
	trim := len(sorted) / 10
	kept := sorted[trim : len(sorted)-trim]
	if len(kept) < 3 {
		return 0, false
	}
	return roundedMean(kept), true
}

// hodgesLehmann is the median of the Walsh averages (xi+xj)/2, i<=j. Sums are
// kept doubled so only the final division rounds.
func hodgesLehmann(sorted []uint64) uint64 {
	n := len(sorted)
	sums := make([]uint64, 0, n*(n+1)/2)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sums = append(sums, sorted[i]+sorted[j])
		}
	}
	slices.Sort(sums)

	mid := len(sums) / 2
	if len(sums)%2 == 1 {
		return sums[mid] / 2
	}
	return (sums[mid-1] + sums[mid]) / 4
}

// consensusWeights favour points near the median:
// (maxDistanceFromMedian - distance) + 1.
func consensusWeights(sorted []uint64) []uint64 {
	median := medianSorted(sorted)
	var maxDistance uint64
	for _, p := range sorted {
		maxDistance = max(maxDistance, absDiff(p, median))
	}
	weights := make([]uint64, len(sorted))
	for i, p := range sorted {
		weights[i] = maxDistance - absDiff(p, median) + 1
	}
	return weights
}

// recencyWeights weigh later reveals more: index + 1.
func recencyWeights(n int) []uint64 {
	weights := make([]uint64, n)
	for i := range weights {
		weights[i] = uint64(i + 1)
	}
	return weights
}

// volatilityWeights favour points near the mean:
// floor((1 - min(distance/mean, 0.9)) * 100) + 1.
func volatilityWeights(sorted []uint64) []uint64 {
	mean := roundedMean(sorted)
	weights := make([]uint64, len(sorted))
	for i, p := range sorted {
		ratio := float64(absDiff(p, mean)) / float64(mean)
		weights[i] = uint64((1-math.Min(ratio, 0.9))*100) + 1
	}
	return weights
}

// weightedMean is sum(p*w)/sum(w) rounded half-up, computed exactly.
func weightedMean(prices, weights []uint64) uint64 {
	sum := new(big.Int)
	total := new(big.Int)
	term := new(big.Int)
	w := new(big.Int)
	for i, p := range prices {
		w.SetUint64(weights[i])
		term.SetUint64(p)
		sum.Add(sum, term.Mul(term, w))
		total.Add(total, w)
	}
	half := new(big.Int).Rsh(total, 1)
	sum.Add(sum, half)
	return sum.Quo(sum, total).Uint64()
}

// adaptiveRobust picks an estimator by coefficient of variation: the mean
// below 5%, the 10% trimmed mean up to 15%, the median above.
func adaptiveRobust(sorted []uint64) uint64 {
	cv := ComputeStatistics(sorted).CoefficientOfVariation
	switch {
	case cv < 5:
		return roundedMean(sorted)
	case cv < 15:
		if tm, ok := trimmedMean(sorted); ok {
			return tm
		}
		return medianSorted(sorted)
	default:
		return medianSorted(sorted)
	}
}

// buildCandidates evaluates every eligible method over the retained set.
func buildCandidates(retained PriceSet) []Candidate {
	candidates := make([]Candidate, 0, len(Methods))
	for _, m := range Methods {
		price, ok := m.Estimate(retained.Prices)
		if !ok {
			continue
		}
		candidates = append(candidates, scoreCandidate(m, price, retained.Prices))
	}
	return candidates
}
