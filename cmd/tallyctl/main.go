// Command tallyctl runs the price tally over recorded reveal batches.
//
// Usage:
//
//	tallyctl run batch.yaml            # tally one batch, print the report
//	tallyctl replay fixtures/ -j 8     # tally a directory, export an audit
//	tallyctl encode 150.25             # dollars to the 16-byte result buffer
//	tallyctl decode 0x10a2f408...      # result buffer back to a price
//	tallyctl version
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
