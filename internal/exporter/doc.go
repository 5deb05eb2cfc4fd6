// Package exporter writes audit exports of replayed tallies.
//
// Every replayed batch becomes one row of the results table and one row
// per aggregation method in the candidates table, so a reviewer can see
// which estimator won and by how much.
//
// CSVWriter: CSV writing with headers, streaming and a UTF-8 BOM for
// spreadsheet compatibility.
//
// AuditExporter: writes results and candidates as CSV (tally_results.csv and
// tally_results_candidates.csv), as an XLSX workbook with Results and
// Candidates sheets, or both.
//
// Example usage:
//
//	audit := exporter.NewAuditExporter(paths, logger)
//	files, err := audit.Export(entries, cfg.Replay.ExportFormat)
package exporter
