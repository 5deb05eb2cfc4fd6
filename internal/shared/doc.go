// Package shared holds helpers used across the tally packages.
//
// The testutil subpackage provides:
//
//	- BufferedSlogHandler for asserting on structured log output
//	- Reveal fixtures in the binary and text wire formats
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    svc := services.NewTallyService(tally.New(tally.DefaultParams(), logger), logger)
//	    report, err := svc.Run(ctx, testutil.Batch("BTC", testutil.OutlierPrices...))
//	    require.NoError(t, err)
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "tally completed")
//	}
package shared
