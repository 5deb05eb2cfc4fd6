// Package services is the application layer around the tally engine.
//
// TallyService turns a domain.RevealBatch into a domain.TallyReport. On the
// way it validates the batch contract, assigns a request id, opens a
// "tally.run" span and records run metrics. The engine stays a pure
// function of its input; everything observable lives here.
//
// # Replay
//
// Replay runs many independent batches through the same service using an
// errgroup bounded by the configured concurrency. Each engine invocation is
// single threaded and reports come back in input order, so a replay of
// recorded reveals is byte-for-byte comparable with what the nodes produced.
//
// # Errors
//
// The engine never fails: degenerate input yields a fallback report. Only
// contract violations (ErrInvalidBatch) and context cancellation surface as
// errors from this package.
//
//	svc := services.NewTallyService(engine, logger,
//	    services.WithTracer(providers.Tracer),
//	    services.WithMetrics(metrics),
//	)
//	report, err := svc.Run(ctx, batch)
//	if services.IsContractError(err) {
//	    // reject the batch
//	}
package services
