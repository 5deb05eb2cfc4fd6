package tally

import (
	"fmt"

	apperrors "oracletally/internal/errors"
)

// Price bounds in micro-dollar units ($0.000001 to $1,000,000).
const (
	MinPrice uint64 = 1
	MaxPrice uint64 = 1_000_000_000_000

	// MicrosPerDollar is the fixed-point scale of every price in this package.
	MicrosPerDollar = 1_000_000

	// DefaultBootstrapResamples is the number of resamples drawn for bootstrap variance.
	DefaultBootstrapResamples = 200

	// DefaultFallbackPrice is emitted when no reveal survives parsing. Zero is the
	// error indicator the execution phase also uses.
	DefaultFallbackPrice uint64 = 0
)

// Method identifies a consensus estimator. The zero value is used only by the
// insufficient-data fallback.
type Method int

const (
	MethodNone Method = iota
	MethodMedian
	MethodTrimmedMean
	MethodHodgesLehmann
	MethodWeightedConsensus
	MethodTimeWeightedAverage
	MethodVolatilityAdjusted
	MethodAdaptiveRobust
)

// Methods lists every estimator in evaluation order.
var Methods = []Method{
	MethodMedian,
	MethodTrimmedMean,
	MethodHodgesLehmann,
	MethodWeightedConsensus,
	MethodTimeWeightedAverage,
	MethodVolatilityAdjusted,
	MethodAdaptiveRobust,
}

// String returns the string representation of the method
func (m Method) String() string {
	switch m {
	case MethodMedian:
		return "Median"
	case MethodTrimmedMean:
		return "TrimmedMean"
	case MethodHodgesLehmann:
		return "HodgesLehmann"
	case MethodWeightedConsensus:
		return "WeightedConsensus"
	case MethodTimeWeightedAverage:
		return "TimeWeightedAverage"
	case MethodVolatilityAdjusted:
		return "VolatilityAdjusted"
	case MethodAdaptiveRobust:
		return "AdaptiveRobust"
	default:
		return "None"
	}
}

// MarshalText encodes the method by name
func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a method name
func (m *Method) UnmarshalText(text []byte) error {
	name := string(text)
	for _, candidate := range append([]Method{MethodNone}, Methods...) {
		if candidate.String() == name {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown aggregation method %q", name)
}

// BaseConfidence is the method's starting confidence before the sample bonus.
func (m Method) BaseConfidence() int {
	switch m {
	case MethodAdaptiveRobust:
		return 95
	case MethodHodgesLehmann:
		return 90
	case MethodMedian:
		return 85
	case MethodTrimmedMean, MethodTimeWeightedAverage:
		return 80
	case MethodWeightedConsensus:
		return 75
	case MethodVolatilityAdjusted:
		return 70
	default:
		return 0
	}
}

// robustnessRank orders methods for tie-breaking; lower wins.
func (m Method) robustnessRank() int {
	switch m {
	case MethodHodgesLehmann:
		return 0
	case MethodAdaptiveRobust:
		return 1
	case MethodMedian:
		return 2
	case MethodTrimmedMean:
		return 3
	case MethodTimeWeightedAverage:
		return 4
	case MethodWeightedConsensus:
		return 5
	case MethodVolatilityAdjusted:
		return 6
	default:
		return 7
	}
}

// Reveal is one decoded reveal. Invalid reveals are kept so the report can
// account for every raw input.
type Reveal struct {
	SourceIndex int    `json:"source_index"`
	RawBytes    []byte `json:"-"`
	ParsedPrice uint64 `json:"parsed_price"`
	Valid       bool   `json:"valid"`
	RoundNumber bool   `json:"round_number"`
}

// PriceSet holds valid prices in submission order alongside their source ordinals.
type PriceSet struct {
	Prices  []uint64 `json:"prices"`
	Sources []int    `json:"sources"`
}

// Len returns the number of prices in the set
func (s PriceSet) Len() int {
	return len(s.Prices)
}

// subset returns the points whose keep flag is set, preserving order.
func (s PriceSet) subset(keep []bool) PriceSet {
	out := PriceSet{
		Prices:  make([]uint64, 0, len(s.Prices)),
		Sources: make([]int, 0, len(s.Sources)),
	}
	for i, k := range keep {
		if k {
			out.Prices = append(out.Prices, s.Prices[i])
			out.Sources = append(out.Sources, s.Sources[i])
		}
	}
	return out
}

// Statistics are descriptive and robust statistics over a price set.
// Integer fields are micro-dollars.
type Statistics struct {
	Count                  int     `json:"count"`
	Min                    uint64  `json:"min"`
	Max                    uint64  `json:"max"`
	Mean                   uint64  `json:"mean"`
	Median                 uint64  `json:"median"`
	StdDev                 uint64  `json:"std_dev"`
	RobustStdDev           uint64  `json:"robust_std_dev"`
	Q1                     uint64  `json:"q1"`
	Q3                     uint64  `json:"q3"`
	IQR                    uint64  `json:"iqr"`
	MAD                    uint64  `json:"mad"`
	Range                  uint64  `json:"range"`
	Skewness               float64 `json:"skewness"`
	Kurtosis               float64 `json:"kurtosis"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
}

// Candidate is one estimator's proposed consensus price and its score.
type Candidate struct {
	Method           Method  `json:"method"`
	Price            uint64  `json:"price"`
	BaseConfidence   int     `json:"base_confidence"`
	SampleBonus      int     `json:"sample_bonus"`
	ConsensusPercent float64 `json:"consensus_percent"`
	CombinedScore    float64 `json:"combined_score"`
}

// Confidence returns base confidence plus sample bonus, capped at 100.
func (c Candidate) Confidence() int {
	return capPercent(c.BaseConfidence + c.SampleBonus)
}

// ConfidenceScore is the multi-dimensional confidence of the selected price.
type ConfidenceScore struct {
	Percentage           int     `json:"percentage"`
	IntervalLow          uint64  `json:"interval_low"`
	IntervalHigh         uint64  `json:"interval_high"`
	BootstrapVariance    float64 `json:"bootstrap_variance"`
	TemporalConsistency  float64 `json:"temporal_consistency"`
	CrossValidationScore float64 `json:"cross_validation_score"`
}

// FinalResult is the outcome handed to the host.
type FinalResult struct {
	Price                  uint64          `json:"price"`
	MethodUsed             Method          `json:"method_used"`
	Confidence             ConfidenceScore `json:"confidence"`
	DataPointsUsed         int             `json:"data_points_used"`
	DataPointsTotal        int             `json:"data_points_total"`
	ConsensusValid         bool            `json:"consensus_valid"`
	ConsensusThresholdUsed float64         `json:"consensus_threshold_used"`
}

// Metadata describes how the result was reached.
type Metadata struct {
	HostExcluded     int                `json:"host_excluded"`
	ParseFailures    int                `json:"parse_failures"`
	ValidationFails  int                `json:"validation_failures"`
	RoundNumbers     int                `json:"round_numbers"`
	OutliersRemoved  int                `json:"outliers_removed"`
	BaseQuorum       int                `json:"base_quorum"`
	ExclusionQuorum  int                `json:"exclusion_quorum"`
	QuorumRelaxed    bool               `json:"quorum_relaxed"`
	DetectorRetained [DetectorCount]int `json:"detector_retained"`
	VolatilityScore  float64            `json:"volatility_score"`
	RevealSpan       int                `json:"reveal_span"`
	MethodsEvaluated int                `json:"methods_evaluated"`
}

// Report is the full outcome of one tally invocation.
type Report struct {
	Result             FinalResult           `json:"result"`
	Output             [OutputSize]byte      `json:"-"`
	Reveals            []Reveal              `json:"reveals"`
	Statistics         Statistics            `json:"statistics"`
	RetainedStatistics Statistics            `json:"retained_statistics"`
	Outliers           OutlierVerdict        `json:"outliers"`
	Candidates         []Candidate           `json:"candidates"`
	Metadata           Metadata              `json:"metadata"`
	Diagnostics        []*apperrors.AppError `json:"diagnostics,omitempty"`
	Fallback           bool                  `json:"fallback"`
}

// Params tunes the engine. Every node evaluating the same request must use the
// same Params, so they are fixed per deployment.
type Params struct {
	MinPrice           uint64 `json:"min_price"`
	MaxPrice           uint64 `json:"max_price"`
	FallbackPrice      uint64 `json:"fallback_price"`
	BootstrapResamples int    `json:"bootstrap_resamples"`
}

// DefaultParams returns the production parameters
func DefaultParams() Params {
	return Params{
		MinPrice:           MinPrice,
		MaxPrice:           MaxPrice,
		FallbackPrice:      DefaultFallbackPrice,
		BootstrapResamples: DefaultBootstrapResamples,
	}
}

// IsValid checks if the parameters are usable. MaxPrice may not exceed the
// package MaxPrice: sums of prices and Walsh pairs rely on it to fit 64 bits.
func (p Params) IsValid() bool {
	return p.MinPrice >= 1 && p.MaxPrice >= p.MinPrice && p.MaxPrice <= MaxPrice &&
		p.BootstrapResamples >= 0 && p.BootstrapResamples <= 10_000
}

func capPercent(v int) int {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
