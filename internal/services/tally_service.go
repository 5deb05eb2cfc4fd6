package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"oracletally/internal/infrastructure"
	"oracletally/internal/tally"
	"oracletally/pkg/contracts/domain"
)

// Tallier runs the tally pipeline over one batch of reveals.
// *tally.Engine implements it.
type Tallier interface {
	TallyContext(ctx context.Context, records []domain.RevealRecord) *tally.Report
}

// TallyService wraps the tally engine with request ids, tracing, metrics
// and contract validation.
type TallyService struct {
	engine   Tallier
	tracer   trace.Tracer
	metrics  *infrastructure.TallyMetrics
	validate *validator.Validate
	logger   *slog.Logger
}

// Option configures a TallyService
type Option func(*TallyService)

// WithTracer sets the tracer used for tally spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *TallyService) {
		s.tracer = tracer
	}
}

// WithMetrics sets the instruments updated after every run
func WithMetrics(metrics *infrastructure.TallyMetrics) Option {
	return func(s *TallyService) {
		s.metrics = metrics
	}
}

// NewTallyService creates a new tally service
func NewTallyService(engine Tallier, logger *slog.Logger, opts ...Option) *TallyService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TallyService{
		engine:   engine,
		tracer:   noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   infrastructure.WithComponent(logger, "tally_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run tallies one batch. Only a batch that violates its contract, or a
// cancelled context, produces an error; the engine itself never fails.
func (s *TallyService) Run(ctx context.Context, batch domain.RevealBatch) (*domain.TallyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	requestID := batch.RequestID
	if requestID == "" {
		requestID = infrastructure.GenerateTraceID()
	}
	ctx = infrastructure.WithTraceID(ctx, requestID)

	ctx, span := s.tracer.Start(ctx, "tally.run", trace.WithAttributes(
		attribute.String("tally.request_id", requestID),
		attribute.String("tally.symbol", batch.Symbol),
		attribute.Int("tally.reveals", batch.Len()),
	))
	defer span.End()

	start := time.Now()
	report := s.engine.TallyContext(ctx, batch.Reveals)
	elapsed := time.Since(start)

	result := report.Result
	span.SetAttributes(
		attribute.String("tally.method", result.MethodUsed.String()),
		attribute.Int64("tally.price", int64(result.Price)),
		attribute.Int("tally.confidence", result.Confidence.Percentage),
		attribute.Bool("tally.consensus_valid", result.ConsensusValid),
		attribute.Int("tally.outliers_removed", report.Metadata.OutliersRemoved),
	)
	for _, d := range report.Diagnostics {
		span.AddEvent("diagnostic", trace.WithAttributes(
			attribute.String("type", string(d.Type)),
			attribute.String("message", d.Message),
		))
	}

	s.metrics.RecordTally(ctx, infrastructure.TallyObservation{
		Method:          result.MethodUsed.String(),
		ConsensusValid:  result.ConsensusValid,
		Fallback:        report.Fallback,
		Confidence:      result.Confidence.Percentage,
		OutliersRemoved: report.Metadata.OutliersRemoved,
		Valid:           report.Statistics.Count,
		HostExcluded:    report.Metadata.HostExcluded,
		ParseFailures:   report.Metadata.ParseFailures,
		ValidationFails: report.Metadata.ValidationFails,
		Duration:        elapsed,
	})

	s.logger.InfoContext(ctx, "batch tallied",
		"request_id", requestID,
		"symbol", batch.Symbol,
		"price", tally.FormatMicros(result.Price),
		"method", result.MethodUsed.String(),
		"consensus_valid", result.ConsensusValid,
		"duration_ms", elapsed.Milliseconds(),
	)

	return NewTallyReport(requestID, batch.Symbol, report), nil
}

// Replay tallies many batches with at most concurrency running at once and
// returns reports in input order. Each engine invocation stays single
// threaded. The first contract violation cancels the remaining batches.
func (s *TallyService) Replay(ctx context.Context, batches []domain.RevealBatch, concurrency int) ([]*domain.TallyReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	ctx, span := s.tracer.Start(ctx, "tally.replay", trace.WithAttributes(
		attribute.Int("tally.batches", len(batches)),
		attribute.Int("tally.concurrency", concurrency),
	))
	defer span.End()

	reports := make([]*domain.TallyReport, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range batches {
		g.Go(func() error {
			report, err := s.Run(gctx, batches[i])
			s.metrics.RecordReplayBatch(gctx, err == nil)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "replay completed",
		"replay_id", infrastructure.GetTraceID(ctx),
		"batches", len(batches),
		"concurrency", concurrency,
	)
	return reports, nil
}

// NewTallyReport converts an engine report into the external contract
func NewTallyReport(requestID, symbol string, r *tally.Report) *domain.TallyReport {
	result := r.Result
	out := &domain.TallyReport{
		RequestID: requestID,
		Symbol:    symbol,
		Price:     result.Price,
		PriceUSD:  tally.FormatMicros(result.Price),
		Method:    result.MethodUsed.String(),
		Confidence: domain.ConfidenceView{
			Percentage:           result.Confidence.Percentage,
			IntervalLow:          result.Confidence.IntervalLow,
			IntervalHigh:         result.Confidence.IntervalHigh,
			BootstrapVariance:    result.Confidence.BootstrapVariance,
			TemporalConsistency:  result.Confidence.TemporalConsistency,
			CrossValidationScore: result.Confidence.CrossValidationScore,
		},
		DataPointsUsed:         result.DataPointsUsed,
		DataPointsTotal:        result.DataPointsTotal,
		ConsensusValid:         result.ConsensusValid,
		ConsensusThresholdUsed: result.ConsensusThresholdUsed,
		OutputHex:              hex.EncodeToString(r.Output[:]),
		HostExcluded:           r.Metadata.HostExcluded,
		ParseFailures:          r.Metadata.ParseFailures,
		ValidationFailures:     r.Metadata.ValidationFails,
		OutliersRemoved:        r.Metadata.OutliersRemoved,
		ExclusionQuorum:        r.Metadata.ExclusionQuorum,
		VolatilityScore:        r.Metadata.VolatilityScore,
		Candidates:             make([]domain.CandidateView, 0, len(r.Candidates)),
		Fallback:               r.Fallback,
	}

	for _, c := range r.Candidates {
		out.Candidates = append(out.Candidates, domain.CandidateView{
			Method:           c.Method.String(),
			Price:            c.Price,
			BaseConfidence:   c.BaseConfidence,
			SampleBonus:      c.SampleBonus,
			ConsensusPercent: c.ConsensusPercent,
			CombinedScore:    c.CombinedScore,
			Selected:         !r.Fallback && c.Method == result.MethodUsed,
		})
	}
	for _, d := range r.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, d.Error())
	}
	return out
}

// IsContractError reports whether err came from batch validation
func IsContractError(err error) bool {
	return errors.Is(err, ErrInvalidBatch)
}
