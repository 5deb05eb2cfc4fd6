package tally

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"oracletally/pkg/contracts/domain"
)

// BenchmarkTally measures a full tally for typical committee sizes
func BenchmarkTally(b *testing.B) {
	for _, size := range []int{7, 21, 64, 256} {
		b.Run(fmt.Sprintf("reveals_%d", size), func(b *testing.B) {
			records := generateBenchmarkReveals(size)
			engine := New(DefaultParams(), slog.New(slog.NewTextHandler(io.Discard, nil)))

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				engine.Tally(records)
			}
		})
	}
}

func BenchmarkDetectOutliers(b *testing.B) {
	records := generateBenchmarkReveals(64)
	reveals, _ := ParseReveals(records, DefaultParams())
	set := validPriceSet(reveals)
	st := ComputeStatistics(set.Prices)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		DetectOutliers(set, st)
	}
}

func generateBenchmarkReveals(n int) []domain.RevealRecord {
	rng := rand.New(rand.NewPCG(42, uint64(n)))
	records := make([]domain.RevealRecord, n)
	for i := range records {
		price := 150_000_000 + rng.Uint64N(2_000_000)
		if rng.IntN(10) == 0 {
			price *= 3
		}
		records[i] = binaryReveal(price)
	}
	return records
}
