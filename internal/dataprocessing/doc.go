// Package dataprocessing loads recorded reveal batches from fixture files.
//
// Fixtures are JSON, YAML or XLSX. In JSON and YAML a batch looks like:
//
//	symbol: BTC
//	request_id: 3f0c7a4e-2b8d-4c51-9e6a-0d1f2b3c4d5e
//	reveals:
//	  - result: "0x80de8002000000000000000000000000"
//	  - result: "42.01"
//	  - exit_code: 1
//	    result: "0x"
//
// A result starting with "0x" is hex; any other result is the raw payload
// text. in_consensus defaults to true when omitted.
//
// XLSX fixtures hold the same fields as columns on a "Reveals" sheet, with
// an optional "Batch" sheet of key/value rows for symbol and request_id.
//
// # Usage
//
//	loader := dataprocessing.NewLoader(logger)
//	fixtures, err := loader.LoadDir("testdata/replay")
//	if err != nil {
//	    return err
//	}
//	reports, err := svc.Replay(ctx, dataprocessing.Batches(fixtures), 4)
package dataprocessing
