package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TallyMetrics holds the tally instruments
type TallyMetrics struct {
	Runs            metric.Int64Counter
	Reveals         metric.Int64Counter
	OutliersRemoved metric.Int64Counter
	Confidence      metric.Int64Histogram
	Duration        metric.Float64Histogram
	ReplayBatches   metric.Int64Counter
}

// TallyObservation is what one tally run contributes to the metrics
type TallyObservation struct {
	Method          string
	ConsensusValid  bool
	Fallback        bool
	Confidence      int
	OutliersRemoved int
	Valid           int
	HostExcluded    int
	ParseFailures   int
	ValidationFails int
	Duration        time.Duration
}

// CreateTallyMetrics creates the tally instruments on meter
func CreateTallyMetrics(meter metric.Meter) (*TallyMetrics, error) {
	runs, err := meter.Int64Counter(
		"tally_runs",
		metric.WithDescription("Total number of tally invocations"),
	)
	if err != nil {
		return nil, err
	}

	reveals, err := meter.Int64Counter(
		"tally_reveals",
		metric.WithDescription("Reveals seen by the tally, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	outliers, err := meter.Int64Counter(
		"tally_outliers_removed",
		metric.WithDescription("Valid reveals excluded by outlier voting"),
	)
	if err != nil {
		return nil, err
	}

	confidence, err := meter.Int64Histogram(
		"tally_confidence_percent",
		metric.WithDescription("Confidence of the selected price"),
		metric.WithExplicitBucketBoundaries(0, 50, 70, 80, 85, 90, 95, 100),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"tally_duration",
		metric.WithDescription("Tally execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	batches, err := meter.Int64Counter(
		"tally_replay_batches",
		metric.WithDescription("Reveal batches processed by replay, by status"),
	)
	if err != nil {
		return nil, err
	}

	return &TallyMetrics{
		Runs:            runs,
		Reveals:         reveals,
		OutliersRemoved: outliers,
		Confidence:      confidence,
		Duration:        duration,
		ReplayBatches:   batches,
	}, nil
}

// RecordTally records one tally run
func (m *TallyMetrics) RecordTally(ctx context.Context, obs TallyObservation) {
	if m == nil {
		return
	}
	runAttrs := metric.WithAttributes(
		attribute.String("method", obs.Method),
		attribute.Bool("consensus_valid", obs.ConsensusValid),
		attribute.Bool("fallback", obs.Fallback),
	)
	m.Runs.Add(ctx, 1, runAttrs)
	m.Duration.Record(ctx, obs.Duration.Seconds(), runAttrs)
	if !obs.Fallback {
		m.Confidence.Record(ctx, int64(obs.Confidence), runAttrs)
	}
	m.OutliersRemoved.Add(ctx, int64(obs.OutliersRemoved))

	for outcome, n := range map[string]int{
		"valid":              obs.Valid,
		"host_excluded":      obs.HostExcluded,
		"parse_failure":      obs.ParseFailures,
		"validation_failure": obs.ValidationFails,
	} {
		if n > 0 {
			m.Reveals.Add(ctx, int64(n), metric.WithAttributes(attribute.String("outcome", outcome)))
		}
	}
}

// RecordReplayBatch counts one replayed batch
func (m *TallyMetrics) RecordReplayBatch(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.ReplayBatches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
