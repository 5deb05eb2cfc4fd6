package tally

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBootstrapSeed(t *testing.T) {
	a := BootstrapSeed([]uint64{3, 1, 2})
	b := BootstrapSeed([]uint64{1, 2, 3})
	c := BootstrapSeed([]uint64{1, 2, 4})

	assert.Equal(t, a, b, "seed ignores reveal order")
	assert.NotEqual(t, a, c)
}

func TestBootstrapVariance(t *testing.T) {
	t.Run("identical prices", func(t *testing.T) {
		prices := []uint64{150_250_000, 150_250_000, 150_250_000, 150_250_000}
		assert.Zero(t, BootstrapVariance(MethodHodgesLehmann, prices, DefaultBootstrapResamples))
	})

	t.Run("reproducible", func(t *testing.T) {
		first := BootstrapVariance(MethodTrimmedMean, clusterPrices, DefaultBootstrapResamples)
		second := BootstrapVariance(MethodTrimmedMean, clusterPrices, DefaultBootstrapResamples)
		assert.Equal(t, first, second)
		assert.Greater(t, first, 0.0)
		// estimates stay within the $0.015 range of the data
		assert.Less(t, first, 0.015*0.015)
	})

	t.Run("disabled", func(t *testing.T) {
		assert.Zero(t, BootstrapVariance(MethodMedian, clusterPrices, 0))
		assert.Zero(t, BootstrapVariance(MethodMedian, []uint64{150_250_000}, DefaultBootstrapResamples))
	})
}

func TestUniformIndex(t *testing.T) {
	src := rand.NewChaCha8([32]byte{1})
	var seen [7]int
	for i := 0; i < 7_000; i++ {
		idx := uniformIndex(src, 7)
		if !assert.Less(t, idx, uint64(7)) {
			return
		}
		seen[idx]++
	}
	for i, count := range seen {
		assert.Greater(t, count, 700, "index %d drawn %d times", i, count)
	}
}
