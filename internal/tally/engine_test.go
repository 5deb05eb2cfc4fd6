package tally

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "oracletally/internal/errors"
	"oracletally/pkg/contracts/domain"
)

func newTestEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(DefaultParams(), logger), &buf
}

// TestTallyScenarios tests end-to-end results for representative reveal sets
func TestTallyScenarios(t *testing.T) {
	tests := []struct {
		name       string
		prices     []uint64
		price      uint64
		method     Method
		confidence int
		used       int
		valid      bool
		threshold  float64
	}{
		{
			name:       "identical reveals",
			prices:     []uint64{150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000},
			price:      150_250_000,
			method:     MethodHodgesLehmann,
			confidence: 100,
			used:       7,
			valid:      true,
			threshold:  60,
		},
		{
			name:       "one tenfold outlier",
			prices:     outlierSet().Prices,
			price:      28_551_500,
			method:     MethodHodgesLehmann,
			confidence: 100,
			used:       6,
			valid:      true,
			threshold:  60,
		},
		{
			name:       "single reveal",
			prices:     []uint64{150_250_000},
			price:      150_250_000,
			method:     MethodMedian,
			confidence: 85,
			used:       1,
			valid:      true,
			threshold:  60,
		},
		{
			name:       "two reveals",
			prices:     []uint64{100_000_000, 102_000_000},
			price:      101_000_000,
			method:     MethodHodgesLehmann,
			confidence: 90,
			used:       2,
			valid:      true,
			threshold:  60,
		},
		{
			name:       "steady drift",
			prices:     []uint64{100_000_000, 101_000_000, 102_000_000, 103_000_000, 104_000_000},
			price:      102_000_000,
			method:     MethodAdaptiveRobust,
			confidence: 100,
			used:       5,
			valid:      true,
			threshold:  60,
		},
		{
			name:       "no agreement",
			prices:     []uint64{10_000_000, 20_000_000, 30_000_000, 40_000_000},
			price:      25_000_000,
			method:     MethodAdaptiveRobust,
			confidence: 100,
			used:       4,
			valid:      false,
			threshold:  60,
		},
		{
			name: "large sample",
			prices: []uint64{
				45_123_456, 45_234_567, 45_100_000, 45_300_000, 44_900_000, 45_050_000,
				45_200_000, 45_150_000, 45_080_000, 45_250_000, 45_175_000, 45_020_000,
			},
			price:      45_137_114,
			method:     MethodHodgesLehmann,
			confidence: 100,
			used:       12,
			valid:      true,
			threshold:  70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			report := engine.Tally(binaryReveals(tt.prices...))
			result := report.Result

			assert.False(t, report.Fallback)
			assert.Equal(t, tt.price, result.Price)
			assert.Equal(t, tt.method, result.MethodUsed)
			assert.Equal(t, tt.confidence, result.Confidence.Percentage)
			assert.Equal(t, tt.used, result.DataPointsUsed)
			assert.Equal(t, len(tt.prices), result.DataPointsTotal)
			assert.Equal(t, tt.valid, result.ConsensusValid)
			assert.Equal(t, tt.threshold, result.ConsensusThresholdUsed)
			assert.Equal(t, EncodePrice(tt.price), report.Output)

			assert.LessOrEqual(t, report.RetainedStatistics.Min, result.Price)
			assert.GreaterOrEqual(t, report.RetainedStatistics.Max, result.Price)
			assert.GreaterOrEqual(t, result.DataPointsUsed, max(1, len(tt.prices)/2))

			if tt.valid {
				assert.Empty(t, report.Diagnostics)
			} else {
				require.Len(t, report.Diagnostics, 1)
				assert.ErrorIs(t, report.Diagnostics[0], apperrors.ErrConsensusNotMet)
			}
		})
	}
}

func TestTallyIdenticalConfidence(t *testing.T) {
	engine, _ := newTestEngine(t)
	prices := []uint64{150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000, 150_250_000}
	conf := engine.Tally(binaryReveals(prices...)).Result.Confidence

	assert.Equal(t, ConfidenceScore{
		Percentage:           100,
		IntervalLow:          150_250_000,
		IntervalHigh:         150_250_000,
		BootstrapVariance:    0,
		TemporalConsistency:  100,
		CrossValidationScore: 100,
	}, conf)
}

func TestTallyOutlierMetadata(t *testing.T) {
	engine, _ := newTestEngine(t)
	report := engine.Tally(binaryReveals(outlierSet().Prices...))
	md := report.Metadata

	assert.Equal(t, 1, md.OutliersRemoved)
	assert.Equal(t, 5, md.BaseQuorum)
	assert.Equal(t, 5, md.ExclusionQuorum)
	assert.False(t, md.QuorumRelaxed)
	assert.Equal(t, len(Methods), md.MethodsEvaluated)
	assert.Equal(t, 5, md.RevealSpan)
	assert.InDelta(t, 1.3778, md.VolatilityScore, 1e-3)
	assert.Equal(t, [DetectorCount]int{6, 6, 6, 6, 3, 6, 6, 6}, md.DetectorRetained)
	assert.Equal(t, []bool{true, true, true, true, true, true, false}, report.Outliers.Retained)
	assert.Equal(t, uint64(285_500_000), report.Statistics.Max)
	assert.Equal(t, uint64(28_560_000), report.RetainedStatistics.Max)
}

func TestTallyFallback(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.RevealRecord
		diags   int
	}{
		{name: "no reveals", records: nil, diags: 1},
		{
			name: "all excluded by host",
			records: []domain.RevealRecord{
				{ExitCode: 1, InConsensus: true, Result: []byte("150.25")},
				{ExitCode: 0, InConsensus: false, Result: []byte("150.25")},
			},
			diags: 1,
		},
		{
			name:    "all malformed",
			records: []domain.RevealRecord{textReveal("n/a"), textReveal(""), binaryReveal(0)},
			diags:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, logs := newTestEngine(t)
			report := engine.Tally(tt.records)

			assert.True(t, report.Fallback)
			assert.Equal(t, DefaultFallbackPrice, report.Result.Price)
			assert.Equal(t, MethodNone, report.Result.MethodUsed)
			assert.Zero(t, report.Result.Confidence.Percentage)
			assert.False(t, report.Result.ConsensusValid)
			assert.Zero(t, report.Result.DataPointsUsed)
			assert.Equal(t, len(tt.records), report.Result.DataPointsTotal)
			assert.Equal(t, [OutputSize]byte{}, report.Output)

			require.Len(t, report.Diagnostics, tt.diags)
			last := report.Diagnostics[len(report.Diagnostics)-1]
			assert.ErrorIs(t, last, apperrors.ErrInsufficientData)
			assert.Contains(t, logs.String(), "emitting fallback")
		})
	}
}

func TestTallyCustomFallbackPrice(t *testing.T) {
	params := DefaultParams()
	params.FallbackPrice = 1_000_000
	report := Evaluate(nil, params)

	assert.True(t, report.Fallback)
	assert.Equal(t, uint64(1_000_000), report.Result.Price)
	assert.Equal(t, EncodePrice(1_000_000), report.Output)
}

func TestTallyMixedReveals(t *testing.T) {
	engine, _ := newTestEngine(t)
	records := []domain.RevealRecord{
		binaryReveal(28_550_000),
		textReveal("28.545"),
		{ExitCode: 1, Result: []byte("28.55")},
		textReveal("twenty eight"),
		binaryReveal(28_560_000),
		textReveal("0.00"),
		textReveal("28.552"),
	}
	report := engine.Tally(records)

	assert.Equal(t, 4, report.Result.DataPointsUsed)
	assert.Equal(t, 7, report.Result.DataPointsTotal)
	assert.Equal(t, 1, report.Metadata.HostExcluded)
	assert.Equal(t, 1, report.Metadata.ParseFailures)
	assert.Equal(t, 1, report.Metadata.ValidationFails)
	assert.Equal(t, 6, report.Metadata.RevealSpan)
	assert.True(t, report.Result.ConsensusValid)
	assert.Len(t, report.Diagnostics, 2)
}

func TestTallyDeterministic(t *testing.T) {
	records := binaryReveals(outlierSet().Prices...)
	first := Evaluate(records, DefaultParams())

	engine, _ := newTestEngine(t)
	for i := 0; i < 5; i++ {
		again := engine.TallyContext(context.Background(), records)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("run %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestTallyLogs(t *testing.T) {
	engine, logs := newTestEngine(t)
	engine.Tally(binaryReveals(outlierSet().Prices...))

	out := logs.String()
	assert.Contains(t, out, `"msg":"tally completed"`)
	assert.Contains(t, out, `"price":"28.551500"`)
	assert.Contains(t, out, `"method":"HodgesLehmann"`)
	assert.Contains(t, out, `"msg":"outliers removed"`)
}

func TestReportJSON(t *testing.T) {
	report := Evaluate(binaryReveals(150_250_000, 150_260_000, 150_255_000), DefaultParams())

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	result := decoded["result"].(map[string]any)
	assert.Equal(t, "AdaptiveRobust", result["method_used"])
	assert.NotContains(t, decoded, "Output")
}

func winnerScore(t *testing.T, report *Report) float64 {
	t.Helper()
	for _, c := range report.Candidates {
		if c.Method == report.Result.MethodUsed {
			return c.CombinedScore
		}
	}
	t.Fatalf("winner %s missing from candidates", report.Result.MethodUsed)
	return 0
}

// TestTallyAgreeingRevealKeepsScore tests that, for reveal sets spread within
// 2%, one more reveal half a percent above the consensus never lowers the
// winning combined score. Wider sets can lose a point at the edge of the 5%
// agreement window when the estimate moves, so they are not covered.
func TestTallyAgreeingRevealKeepsScore(t *testing.T) {
	params := DefaultParams()
	rng := rand.New(rand.NewPCG(2024, 5))

	checked := 0
	for trial := 0; trial < 300; trial++ {
		n := 5 + rng.IntN(16)
		base := 1_000_000 + rng.Uint64N(999_000_000)
		prices := make([]uint64, 0, n)
		for len(prices) < n {
			p := base + rng.Uint64N(base/50+1)
			if ValidatePrice(p, params) == nil {
				prices = append(prices, p)
			}
		}

		before := Evaluate(binaryReveals(prices...), params)
		require.False(t, before.Fallback)
		agreeing := before.Result.Price + before.Result.Price/200
		if ValidatePrice(agreeing, params) != nil {
			continue
		}
		after := Evaluate(binaryReveals(append(prices, agreeing)...), params)

		assert.GreaterOrEqual(t, winnerScore(t, after), winnerScore(t, before),
			"trial %d: %d reveals, added %d", trial, n, agreeing)
		checked++
	}
	assert.Greater(t, checked, 250)
}

func TestParamsIsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   bool
	}{
		{"defaults", func(*Params) {}, true},
		{"zero min price", func(p *Params) { p.MinPrice = 0 }, false},
		{"inverted bounds", func(p *Params) { p.MinPrice, p.MaxPrice = 20, 10 }, false},
		{"max price at cap", func(p *Params) { p.MaxPrice = MaxPrice }, true},
		{"max price above cap", func(p *Params) { p.MaxPrice = MaxPrice + 1 }, false},
		{"max price near uint64 limit", func(p *Params) { p.MaxPrice = 18_000_000_000_000_000_000 }, false},
		{"negative resamples", func(p *Params) { p.BootstrapResamples = -1 }, false},
		{"too many resamples", func(p *Params) { p.BootstrapResamples = 10_001 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			assert.Equal(t, tt.want, params.IsValid())
		})
	}
}

// TestTallyOversizedMaxPrice tests that a bound large enough to overflow
// price sums is replaced by the defaults, so huge reveals are rejected
// instead of aggregated into a wrapped value.
func TestTallyOversizedMaxPrice(t *testing.T) {
	params := DefaultParams()
	params.MaxPrice = 18_000_000_000_000_000_000
	engine := New(params, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, MaxPrice, engine.Params().MaxPrice)

	huge := []uint64{
		9_000_000_000_000_000_001,
		9_000_000_000_000_000_023,
		9_000_000_000_000_000_045,
		9_000_000_000_000_000_067,
	}
	report := engine.Tally(binaryReveals(huge...))
	assert.True(t, report.Fallback)
	assert.Equal(t, 4, report.Metadata.ValidationFails)
	assert.Equal(t, DefaultFallbackPrice, report.Result.Price)
}

func TestNewInvalidParams(t *testing.T) {
	var logs bytes.Buffer
	engine := New(Params{MinPrice: 10, MaxPrice: 5}, slog.New(slog.NewJSONHandler(&logs, nil)))
	assert.Equal(t, DefaultParams(), engine.Params())
	assert.Contains(t, logs.String(), "invalid tally parameters")

	assert.NotNil(t, New(DefaultParams(), nil).logger)
}
