package tally

import (
	"math"
	"math/big"
	"slices"
)

// Robust standard deviation scale for MAD, as a rational 14826/10000.
const (
	madScaleNum = 14826
	madScaleDen = 10000
)

// ComputeStatistics derives descriptive and robust statistics from prices.
// Every integer statistic is exact or floored; float statistics are evaluated
// in sorted order with explicit float64 conversions on each product so the
// compiler cannot fuse multiply-adds and results match on every platform.
func ComputeStatistics(prices []uint64) Statistics {
	n := len(prices)
	if n == 0 {
		return Statistics{}
	}
	sorted := sortedCopy(prices)

	st := Statistics{
		Count:  n,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Median: medianSorted(sorted),
		Mean:   roundedMean(sorted),
		Q1:     quartile(sorted, 1),
		Q3:     quartile(sorted, 3),
	}
	st.Range = st.Max - st.Min
	st.IQR = st.Q3 - st.Q1
	st.StdDev = populationStdDev(sorted, st.Mean)
	st.MAD = medianAbsoluteDeviation(sorted, st.Median)
	st.RobustStdDev = st.MAD * madScaleNum / madScaleDen

	if st.Mean > 0 {
		st.CoefficientOfVariation = float64(st.StdDev) / float64(st.Mean) * 100
	}
	st.Skewness, st.Kurtosis = standardizedMoments(sorted)
	return st
}

func sortedCopy(prices []uint64) []uint64 {
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	return sorted
}

// medianSorted averages the two middle values for even counts, flooring.
func medianSorted(sorted []uint64) uint64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return midpoint(sorted[mid-1], sorted[mid])
	}
	return sorted[mid]
}

// midpoint floors (a+b)/2 without overflowing.
func midpoint(a, b uint64) uint64 {
	return a/2 + b/2 + (a%2+b%2)/2
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// roundedMean is sum/n rounded half-up. Params caps prices at 1e12, so the sum
// of any realistic reveal set fits in 64 bits.
func roundedMean(prices []uint64) uint64 {
	var sum uint64
	for _, p := range prices {
		sum += p
	}
	n := uint64(len(prices))
	return (sum + n/2) / n
}

// quartile interpolates linearly between order statistics at position
// (n-1)*k/4, flooring the fractional part. k is 1 for Q1 and 3 for Q3.
func quartile(sorted []uint64, k int) uint64 {
	n := len(sorted)
	pos := (n - 1) * k
	lo, rem := pos/4, pos%4
	if rem == 0 || lo+1 >= n {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*uint64(rem)/4
}

// populationStdDev is floor(sqrt(sum((x-mean)^2)/n)) computed exactly.
func populationStdDev(prices []uint64, mean uint64) uint64 {
	sum := new(big.Int)
	d := new(big.Int)
	for _, p := range prices {
		d.SetUint64(absDiff(p, mean))
		sum.Add(sum, d.Mul(d, d))
	}
	sum.Quo(sum, big.NewInt(int64(len(prices))))
	return new(big.Int).Sqrt(sum).Uint64()
}

func medianAbsoluteDeviation(sorted []uint64, median uint64) uint64 {
	deviations := make([]uint64, len(sorted))
	for i, p := range sorted {
		deviations[i] = absDiff(p, median)
	}
	slices.Sort(deviations)
	return medianSorted(deviations)
}

// standardizedMoments returns skewness and excess kurtosis. Both are zero for
// sets without spread.
func standardizedMoments(sorted []uint64) (skewness, kurtosis float64) {
	n := float64(len(sorted))
	var sum float64
	for _, p := range sorted {
		sum += float64(p)
	}
	mean := sum / n

	var m2, m3, m4 float64
	for _, p := range sorted {
		d := float64(p) - mean
		d2 := float64(d * d)
		m2 += d2
		m3 += float64(d2 * d)
		m4 += float64(d2 * d2)
	}
	m2 /= n
	m3 /= n
	m4 /= n
	if m2 == 0 {
		return 0, 0
	}

	sd := math.Sqrt(m2)
	skewness = m3 / float64(m2*sd)
	kurtosis = m4/float64(m2*m2) - 3
	return skewness, kurtosis
}
