// Package tally implements the deterministic consensus-price tally for oracle
// data requests.
//
// A tally receives the ordered reveals of one request, each a price reported
// by an independent executor, and reduces them to a single price that every
// node evaluating the same reveals reproduces bit for bit.
//
// # Pipeline
//
//  1. Parsing: host-excluded reveals are skipped, payloads decoded (16-byte
//     little-endian integer or ASCII decimal dollars) and validated against
//     bounds and fabricated digit patterns
//  2. Statistics: descriptive and robust statistics over valid prices
//  3. Outlier voting: eight detectors vote per point; a point is excluded when
//     the exclusion quorum is reached, relaxed so at least half the points stay
//  4. Aggregation: seven estimators propose candidates, each scored 70% on
//     confidence and 30% on agreement with the retained points
//  5. Selection: the best combined score wins, ties going to the more robust method
//
// # Architecture
//
//   - types.go: prices, methods, statistics, results and parameters
//   - parser.go, money.go, encoder.go: reveal decoding and output encoding
//   - statistics.go: exact integer statistics and floating-point moments
//   - outliers.go: detectors and quorum voting
//   - aggregate.go: estimators
//   - confidence.go, bootstrap.go: scoring and uncertainty metrics
//   - selector.go: winner selection and consensus thresholds
//   - engine.go: orchestration, diagnostics and logging
//
// # Determinism
//
// Prices are integer micro-dollars (1 USD = 1_000_000). Means, medians,
// quartiles and weighted averages are computed in integers with math/big where
// sums could overflow. Floating-point values are evaluated in a fixed order
// with explicit conversions on every product so no fused multiply-add is
// emitted. The bootstrap draws from ChaCha8 seeded by a BLAKE2b hash of the
// sorted prices, so it is reproducible and independent of reveal order.
//
// # Usage Example
//
//	engine := tally.New(tally.DefaultParams(), slog.Default())
//	report := engine.Tally(records)
//	if report.Fallback {
//	    // no valid reveals; report.Output encodes the fallback price
//	}
//	fmt.Println(tally.FormatMicros(report.Result.Price), report.Result.MethodUsed)
//
// The engine never returns an error. Malformed reveals are recorded as
// diagnostics on the report and a request without valid reveals yields the
// fallback price with zero confidence.
package tally
