package tally

import (
	"math"
)

// Detector identifies one outlier-detection method.
type Detector int

const (
	DetectorEnhancedIQR Detector = iota
	DetectorModifiedZScore
	DetectorGrubbs
	DetectorDixonQ
	DetectorDensityIsolation
	DetectorEnhancedMAD
	DetectorAdaptiveTukey
	DetectorSourceReliability

	// DetectorCount is the number of voting detectors.
	DetectorCount = 8
)

// String returns the string representation of the detector
func (d Detector) String() string {
	switch d {
	case DetectorEnhancedIQR:
		return "Enhanced-IQR"
	case DetectorModifiedZScore:
		return "Modified-Z-Score"
	case DetectorGrubbs:
		return "Grubbs-Test"
	case DetectorDixonQ:
		return "Dixon-Q-Test"
	case DetectorDensityIsolation:
		return "Density-Isolation"
	case DetectorEnhancedMAD:
		return "Enhanced-MAD"
	case DetectorAdaptiveTukey:
		return "Adaptive-Tukey"
	case DetectorSourceReliability:
		return "Source-Reliability"
	default:
		return "unknown"
	}
}

// bracket maps sample sizes up to MaxN (inclusive) to a critical value.
type bracket struct {
	MaxN  int
	Value float64
}

// Critical-value tables, sorted by MaxN.
var (
	grubbsCritical = []bracket{
		{MaxN: 10, Value: 2.2},
		{MaxN: 20, Value: 2.7},
		{MaxN: 50, Value: 3.1},
		{MaxN: math.MaxInt, Value: 3.5},
	}
	dixonCritical = []bracket{
		{MaxN: 7, Value: 0.70},
		{MaxN: 10, Value: 0.54},
		{MaxN: 13, Value: 0.48},
		{MaxN: 30, Value: 0.43},
		{MaxN: math.MaxInt, Value: 0.35},
	}
)

func lookupCritical(table []bracket, n int) float64 {
	for _, b := range table {
		if n <= b.MaxN {
			return b.Value
		}
	}
	return table[len(table)-1].Value
}

// OutlierVerdict records per-point detector votes and the retain decision.
// Slices are indexed by position in the valid price set (submission order).
type OutlierVerdict struct {
	Votes       [][DetectorCount]bool `json:"votes"`
	VoteCounts  []int                 `json:"vote_counts"`
	Retained    []bool                `json:"retained"`
	Reliability []float64             `json:"reliability"`
	BaseQuorum  int                   `json:"base_quorum"`
	Quorum      int                   `json:"quorum"`
	Floor       int                   `json:"floor"`
}

// RetainedCount returns how many points survived
func (v OutlierVerdict) RetainedCount() int {
	count := 0
	for _, r := range v.Retained {
		if r {
			count++
		}
	}
	return count
}

// Relaxed reports whether the quorum had to be raised to keep enough points.
func (v OutlierVerdict) Relaxed() bool {
	return v.Quorum != v.BaseQuorum
}

// DetectorRetained counts, per detector, the points it did not flag.
func (v OutlierVerdict) DetectorRetained() [DetectorCount]int {
	var out [DetectorCount]int
	for _, votes := range v.Votes {
		for d, flagged := range votes {
			if !flagged {
				out[d]++
			}
		}
	}
	return out
}

// DetectOutliers runs all detectors over set and applies the exclusion quorum.
// A point is excluded when at least Quorum detectors flag it. When that would
// leave fewer than Floor points, the quorum is raised one vote at a time (a
// quorum above DetectorCount excludes nothing), so data is never eliminated.
func DetectOutliers(set PriceSet, st Statistics) OutlierVerdict {
	n := set.Len()
	verdict := OutlierVerdict{
		Votes:      make([][DetectorCount]bool, n),
		VoteCounts: make([]int, n),
		Retained:   make([]bool, n),
	}
	if n == 0 {
		return verdict
	}

	reliability := sourceReliability(set)
	flags := [DetectorCount][]bool{
		DetectorEnhancedIQR:       enhancedIQR(set.Prices, st),
		DetectorModifiedZScore:    modifiedZScore(set.Prices, st),
		DetectorGrubbs:            grubbs(set.Prices, st),
		DetectorDixonQ:            dixonQ(set.Prices),
		DetectorDensityIsolation:  densityIsolation(set.Prices, st),
		DetectorEnhancedMAD:       enhancedMAD(set.Prices, st),
		DetectorAdaptiveTukey:     adaptiveTukey(set.Prices, st),
		DetectorSourceReliability: reliabilityFlags(reliability),
	}
	for d := 0; d < DetectorCount; d++ {
		for i, flagged := range flags[d] {
			verdict.Votes[i][d] = flagged
			if flagged {
				verdict.VoteCounts[i]++
			}
		}
	}
	verdict.Reliability = reliability

	verdict.BaseQuorum = baseQuorum(n, st.CoefficientOfVariation)
	verdict.Floor = max(1, n/2)
	verdict.Quorum = exclusionQuorum(verdict.VoteCounts, verdict.BaseQuorum, verdict.Floor)
	for i, votes := range verdict.VoteCounts {
		verdict.Retained[i] = votes < verdict.Quorum
	}
	return verdict
}

func baseQuorum(n int, cv float64) int {
	switch {
	case n <= 3:
		return 4
	case cv > 20:
		return 5
	default:
		return 6
	}
}

// exclusionQuorum raises base until at least floor points stay. DetectorCount+1
// cannot be reached by any point.
func exclusionQuorum(counts []int, base, floor int) int {
	q := base
	for q <= DetectorCount && retainedWithQuorum(counts, q) < floor {
		q++
	}
	return q
}

func retainedWithQuorum(counts []int, quorum int) int {
	kept := 0
	for _, c := range counts {
		if c < quorum {
			kept++
		}
	}
	return kept
}

// fenceFlags flags prices outside [q1 - k*iqr, q3 + k*iqr].
func fenceFlags(prices []uint64, st Statistics, k float64) []bool {
	margin := uint64(float64(st.IQR) * k)
	lower := satSub(st.Q1, margin)
	upper := st.Q3 + margin
	flags := make([]bool, len(prices))
	for i, p := range prices {
		flags[i] = p < lower || p > upper
	}
	return flags
}

// enhancedIQR widens the 1.5 multiplier for small samples and for skewed or
// heavy-tailed data.
func enhancedIQR(prices []uint64, st Statistics) []bool {
	k := 1.5
	if len(prices) < 10 {
		k = 2.5
	}
	k += math.Min(math.Abs(st.Skewness)*0.2, 0.5)
	k += math.Min(math.Abs(st.Kurtosis)*0.1, 0.3)
	return fenceFlags(prices, st, k)
}

// adaptiveTukey scales the fence multiplier with volatility.
func adaptiveTukey(prices []uint64, st Statistics) []bool {
	k := math.Min(1.5+st.CoefficientOfVariation/100, 2.5)
	return fenceFlags(prices, st, k)
}

// madScoreFlags flags |factor*(x-median)/MAD| > threshold. Without spread
// nothing is flagged.
func madScoreFlags(prices []uint64, st Statistics, factor, threshold float64) []bool {
	flags := make([]bool, len(prices))
	if st.MAD == 0 {
		return flags
	}
	for i, p := range prices {
		score := float64(factor*float64(absDiff(p, st.Median))) / float64(st.MAD)
		flags[i] = score > threshold
	}
	return flags
}

func modifiedZScore(prices []uint64, st Statistics) []bool {
	return madScoreFlags(prices, st, 0.6745, 3.5)
}

func enhancedMAD(prices []uint64, st Statistics) []bool {
	return madScoreFlags(prices, st, 1.4826, 3.0)
}

// grubbs tests the maximum and the minimum independently against the
// size-keyed critical value. Every point sharing a flagged extreme value is flagged.
func grubbs(prices []uint64, st Statistics) []bool {
	flags := make([]bool, len(prices))
	if len(prices) < 3 || st.StdDev == 0 {
		return flags
	}
	critical := lookupCritical(grubbsCritical, len(prices))
	sd := float64(st.StdDev)

	flagHigh := st.Max > st.Mean && float64(st.Max-st.Mean)/sd > critical
	flagLow := st.Min < st.Mean && float64(st.Mean-st.Min)/sd > critical
	for i, p := range prices {
		flags[i] = (flagHigh && p == st.Max) || (flagLow && p == st.Min)
	}
	return flags
}

// dixonQ compares the gap between each extreme and its nearest neighbour to
// the full range.
func dixonQ(prices []uint64) []bool {
	flags := make([]bool, len(prices))
	n := len(prices)
	if n < 3 {
		return flags
	}
	sorted := sortedCopy(prices)
	rng := sorted[n-1] - sorted[0]
	if rng == 0 {
		return flags
	}
	critical := lookupCritical(dixonCritical, n)

	qLow := float64(sorted[1]-sorted[0]) / float64(rng)
	qHigh := float64(sorted[n-1]-sorted[n-2]) / float64(rng)
	for i, p := range prices {
		flags[i] = (qLow > critical && p == sorted[0]) || (qHigh > critical && p == sorted[n-1])
	}
	return flags
}

// densityIsolation scores distance from the median (in MADs) against the share
// of points within MAD/2 of each point.
func densityIsolation(prices []uint64, st Statistics) []bool {
	n := len(prices)
	flags := make([]bool, n)
	if st.MAD == 0 {
		return flags
	}
	threshold := 2.0
	if n < 10 {
		threshold = 3.0
	}
	tolerance := st.MAD / 2
	for i, p := range prices {
		nearby := 0
		for _, q := range prices {
			if absDiff(p, q) <= tolerance {
				nearby++
			}
		}
		distance := float64(absDiff(p, st.Median)) / float64(st.MAD)
		density := float64(nearby) / float64(n)
		flags[i] = distance/(density+0.1) > threshold
	}
	return flags
}

// sourceReliability scores each point in [0.1, 1.0]: late submissions lose up
// to 0.3, points far from the running median of earlier points are halved
// (>10%) or cut by a fifth (>5%), and round-number prices lose a tenth.
func sourceReliability(set PriceSet) []float64 {
	scores := make([]float64, set.Len())
	for i, p := range set.Prices {
		r := 1.0 - math.Min(float64(set.Sources[i])*0.05, 0.3)

		if i > 0 {
			running := medianSorted(sortedCopy(set.Prices[:i]))
			deviation := float64(absDiff(p, running)) / float64(running)
			switch {
			case deviation > 0.10:
				r *= 0.5
			case deviation > 0.05:
				r *= 0.8
			}
		}
		if hasRoundNumberBias(p) {
			r *= 0.9
		}
		scores[i] = math.Max(0.1, math.Min(r, 1.0))
	}
	return scores
}

// reliabilityFlags flags scores below max(0.7 * average, 0.3).
func reliabilityFlags(scores []float64) []bool {
	flags := make([]bool, len(scores))
	if len(scores) == 0 {
		return flags
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	threshold := math.Max(sum/float64(len(scores))*0.7, 0.3)
	for i, s := range scores {
		flags[i] = s < threshold
	}
	return flags
}
