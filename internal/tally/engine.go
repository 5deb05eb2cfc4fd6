package tally

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	apperrors "oracletally/internal/errors"
	"oracletally/pkg/contracts/domain"
)

// Engine runs the tally pipeline. It holds only immutable parameters and a
// logger, so one Engine may serve any number of independent invocations.
type Engine struct {
	params Params
	logger *slog.Logger
}

// New creates an engine. Invalid parameters are replaced by DefaultParams.
func New(params Params, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if !params.IsValid() {
		logger.Warn("invalid tally parameters, using defaults",
			"min_price", params.MinPrice,
			"max_price", params.MaxPrice,
			"bootstrap_resamples", params.BootstrapResamples,
		)
		params = DefaultParams()
	}
	return &Engine{params: params, logger: logger}
}

// Evaluate runs one tally with no logging.
func Evaluate(records []domain.RevealRecord, params Params) *Report {
	return New(params, slog.New(slog.NewTextHandler(io.Discard, nil))).Tally(records)
}

// Params returns the parameters in effect
func (e *Engine) Params() Params {
	return e.params
}

// Tally aggregates records into a consensus price.
func (e *Engine) Tally(records []domain.RevealRecord) *Report {
	return e.TallyContext(context.Background(), records)
}

// TallyContext is Tally with a context for log correlation. The computation
// itself never blocks and never fails: bad reveals become diagnostics and an
// empty price set yields the fallback price.
func (e *Engine) TallyContext(ctx context.Context, records []domain.RevealRecord) *Report {
	report := &Report{}
	report.Reveals, report.Diagnostics = ParseReveals(records, e.params)
	e.countInputs(records, report)

	set := validPriceSet(report.Reveals)
	e.logger.DebugContext(ctx, "parsed reveals",
		"total", len(records),
		"valid", set.Len(),
		"host_excluded", report.Metadata.HostExcluded,
		"parse_failures", report.Metadata.ParseFailures,
		"validation_failures", report.Metadata.ValidationFails,
	)
	for _, d := range report.Diagnostics {
		e.logger.WarnContext(ctx, "reveal dropped", "error", d.Error())
	}

	if set.Len() == 0 {
		return e.fallback(ctx, report, len(records))
	}

	report.Statistics = ComputeStatistics(set.Prices)
	e.logStatistics(ctx, report.Statistics)

	report.Outliers = DetectOutliers(set, report.Statistics)
	retained := set.subset(report.Outliers.Retained)
	report.RetainedStatistics = ComputeStatistics(retained.Prices)

	md := &report.Metadata
	md.OutliersRemoved = set.Len() - retained.Len()
	md.BaseQuorum = report.Outliers.BaseQuorum
	md.ExclusionQuorum = report.Outliers.Quorum
	md.QuorumRelaxed = report.Outliers.Relaxed()
	md.DetectorRetained = report.Outliers.DetectorRetained()
	md.VolatilityScore = report.Statistics.CoefficientOfVariation / 100
	md.RevealSpan = retained.Sources[retained.Len()-1] - retained.Sources[0]

	for d, kept := range md.DetectorRetained {
		e.logger.DebugContext(ctx, "outlier detector",
			"detector", Detector(d).String(),
			"retained", kept,
			"total", set.Len(),
		)
	}
	if md.OutliersRemoved > 0 {
		e.logger.InfoContext(ctx, "outliers removed",
			"removed", md.OutliersRemoved,
			"retained", retained.Len(),
			"quorum", md.ExclusionQuorum,
			"quorum_relaxed", md.QuorumRelaxed,
		)
	}

	report.Candidates = buildCandidates(retained)
	md.MethodsEvaluated = len(report.Candidates)
	for _, c := range report.Candidates {
		e.logger.DebugContext(ctx, "aggregation candidate",
			"method", c.Method.String(),
			"price", FormatMicros(c.Price),
			"confidence", c.Confidence(),
			"consensus_percent", c.ConsensusPercent,
			"combined_score", c.CombinedScore,
		)
	}

	// Median needs a single point and the floor keeps at least one, so a winner exists.
	winner, _ := SelectCandidate(report.Candidates)
	required := RequiredConsensus(retained.Len())
	report.Result = FinalResult{
		Price:                  winner.Price,
		MethodUsed:             winner.Method,
		Confidence:             scoreConfidence(winner, retained, report.RetainedStatistics, e.params.BootstrapResamples),
		DataPointsUsed:         retained.Len(),
		DataPointsTotal:        len(records),
		ConsensusValid:         winner.ConsensusPercent >= required,
		ConsensusThresholdUsed: required,
	}
	if !report.Result.ConsensusValid {
		report.Diagnostics = append(report.Diagnostics, apperrors.NewConsensusNotMetError(
			fmt.Sprintf("%.1f%% agreement below required %.0f%%", winner.ConsensusPercent, required)).
			WithContext("method", winner.Method.String()))
	}
	report.Output = EncodePrice(report.Result.Price)

	e.logger.InfoContext(ctx, "tally completed",
		"price", FormatMicros(report.Result.Price),
		"method", winner.Method.String(),
		"confidence", report.Result.Confidence.Percentage,
		"consensus_percent", winner.ConsensusPercent,
		"consensus_valid", report.Result.ConsensusValid,
		"data_points", fmt.Sprintf("%d/%d", report.Result.DataPointsUsed, report.Result.DataPointsTotal),
	)
	return report
}

// fallback fills the insufficient-data result: fallback price, zero confidence,
// consensus not valid. It is still a successful outcome for the host.
func (e *Engine) fallback(ctx context.Context, report *Report, total int) *Report {
	report.Fallback = true
	report.Result = FinalResult{
		Price:                  e.params.FallbackPrice,
		MethodUsed:             MethodNone,
		DataPointsTotal:        total,
		ConsensusThresholdUsed: RequiredConsensus(0),
	}
	report.Diagnostics = append(report.Diagnostics,
		apperrors.NewInsufficientDataError("no valid price reveals").WithContext("total", total))
	report.Output = EncodePrice(report.Result.Price)

	e.logger.WarnContext(ctx, "no valid price reveals, emitting fallback",
		"fallback_price", report.Result.Price,
		"total", total,
	)
	return report
}

func (e *Engine) countInputs(records []domain.RevealRecord, report *Report) {
	md := &report.Metadata
	for _, rec := range records {
		if !rec.Decodable() {
			md.HostExcluded++
		}
	}
	for _, r := range report.Reveals {
		if r.RoundNumber {
			md.RoundNumbers++
		}
	}
	counts := apperrors.CountByType(report.Diagnostics)
	md.ParseFailures = counts[apperrors.ErrTypeParsing]
	md.ValidationFails = counts[apperrors.ErrTypeValidation]
}

func (e *Engine) logStatistics(ctx context.Context, st Statistics) {
	e.logger.DebugContext(ctx, "price statistics",
		"count", st.Count,
		"min", FormatMicros(st.Min),
		"max", FormatMicros(st.Max),
		"median", FormatMicros(st.Median),
		"mean", FormatMicros(st.Mean),
		"std_dev", FormatMicros(st.StdDev),
		"robust_std_dev", FormatMicros(st.RobustStdDev),
		"q1", FormatMicros(st.Q1),
		"q3", FormatMicros(st.Q3),
		"mad", FormatMicros(st.MAD),
		"cv", st.CoefficientOfVariation,
		"skewness", st.Skewness,
		"kurtosis", st.Kurtosis,
	)
}
