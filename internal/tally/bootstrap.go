package tally

import (
	"encoding/binary"
	"math/bits"
	"math/rand/v2"

	"golang.org/x/crypto/blake2b"
)

// BootstrapSeed hashes the sorted prices (8-byte little-endian each) with
// BLAKE2b-256. Identical inputs give identical seeds on every node.
func BootstrapSeed(prices []uint64) [32]byte {
	sorted := sortedCopy(prices)
	buf := make([]byte, 8*len(sorted))
	for i, p := range sorted {
		binary.LittleEndian.PutUint64(buf[8*i:], p)
	}
	return blake2b.Sum256(buf)
}

// BootstrapVariance resamples prices with replacement, re-estimates method on
// each resample (median when ineligible), and returns the population variance
// of the estimates in squared dollars. Draws come from ChaCha8 seeded by
// BootstrapSeed and are reduced to an index without modulo bias.
func BootstrapVariance(m Method, prices []uint64, resamples int) float64 {
	n := len(prices)
	if n < 2 || resamples <= 0 {
		return 0
	}
	src := rand.NewChaCha8(BootstrapSeed(prices))

	estimates := make([]float64, resamples)
	sample := make([]uint64, n)
	for b := range estimates {
		for j := range sample {
			sample[j] = prices[uniformIndex(src, uint64(n))]
		}
		estimates[b] = float64(estimateOrMedian(m, sample)) / MicrosPerDollar
	}

	var sum float64
	for _, e := range estimates {
		sum += e
	}
	mean := sum / float64(resamples)
	var ss float64
	for _, e := range estimates {
		d := e - mean
		ss += float64(d * d)
	}
	return ss / float64(resamples)
}

// uniformIndex draws from [0, n) using Lemire's multiply-and-reject method.
func uniformIndex(src *rand.ChaCha8, n uint64) uint64 {
	hi, lo := bits.Mul64(src.Uint64(), n)
	if lo < n {
		threshold := -n % n
		for lo < threshold {
			hi, lo = bits.Mul64(src.Uint64(), n)
		}
	}
	return hi
}
