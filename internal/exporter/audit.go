package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"oracletally/internal/config"
	"oracletally/pkg/contracts/domain"
)

// AuditEntry is one tallied batch and the fixture it was replayed from
type AuditEntry struct {
	Source string
	Report *domain.TallyReport
}

// ResultHeaders are the columns of the results table in both CSV and XLSX
var ResultHeaders = []string{
	"source", "request_id", "symbol", "price", "price_usd", "method",
	"confidence", "interval_low", "interval_high", "consensus_valid",
	"consensus_threshold", "points_used", "points_total", "host_excluded",
	"parse_failures", "validation_failures", "outliers_removed",
	"exclusion_quorum", "volatility_score", "fallback", "output_hex",
	"diagnostics",
}

// CandidateHeaders are the columns of the per-method candidate table
var CandidateHeaders = []string{
	"source", "request_id", "method", "price", "price_usd",
	"base_confidence", "sample_bonus", "consensus_percent",
	"combined_score", "selected",
}

// ResultRow flattens a report into the results table
func ResultRow(e AuditEntry) []string {
	r := e.Report
	return []string{
		e.Source,
		r.RequestID,
		r.Symbol,
		formatUint(r.Price),
		r.PriceUSD,
		r.Method,
		formatInt(r.Confidence.Percentage),
		formatPrice(r.Confidence.IntervalLow),
		formatPrice(r.Confidence.IntervalHigh),
		formatBool(r.ConsensusValid),
		formatFloat(r.ConsensusThresholdUsed, 0),
		formatInt(r.DataPointsUsed),
		formatInt(r.DataPointsTotal),
		formatInt(r.HostExcluded),
		formatInt(r.ParseFailures),
		formatInt(r.ValidationFailures),
		formatInt(r.OutliersRemoved),
		formatInt(r.ExclusionQuorum),
		formatFloat(r.VolatilityScore, 4),
		formatBool(r.Fallback),
		r.OutputHex,
		strings.Join(r.Diagnostics, "; "),
	}
}

// CandidateRows flattens the candidates of a report, one row per method
func CandidateRows(e AuditEntry) [][]string {
	rows := make([][]string, 0, len(e.Report.Candidates))
	for _, c := range e.Report.Candidates {
		rows = append(rows, []string{
			e.Source,
			e.Report.RequestID,
			c.Method,
			formatUint(c.Price),
			formatPrice(c.Price),
			formatInt(c.BaseConfidence),
			formatInt(c.SampleBonus),
			formatFloat(c.ConsensusPercent, 2),
			formatFloat(c.CombinedScore, 2),
			formatBool(c.Selected),
		})
	}
	return rows
}

// AuditExporter writes replay results in the configured formats
type AuditExporter struct {
	csv    *CSVWriter
	paths  *config.Paths
	logger *slog.Logger
}

// NewAuditExporter creates an exporter writing into paths.OutputDir
func NewAuditExporter(paths *config.Paths, logger *slog.Logger) *AuditExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit_exporter")
	return &AuditExporter{
		csv:    NewCSVWriter(paths.OutputDir, logger),
		paths:  paths,
		logger: logger,
	}
}

// Export writes entries as "csv", "xlsx", "both" or nothing for "none" and
// returns the files written.
func (a *AuditExporter) Export(entries []AuditEntry, format string) ([]string, error) {
	switch format {
	case "csv", "xlsx", "both", "none":
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	var written []string
	if format == "csv" || format == "both" {
		if err := a.WriteCSV(a.paths.ResultsCSV, entries); err != nil {
			return written, err
		}
		written = append(written, a.paths.ResultsCSV, a.candidatesCSVPath())
	}
	if format == "xlsx" || format == "both" {
		if err := WriteAuditWorkbook(a.paths.ResultsXLSX, entries); err != nil {
			return written, err
		}
		written = append(written, a.paths.ResultsXLSX)
	}

	a.logger.Info("audit exported",
		"format", format,
		"entries", len(entries),
		"files", len(written),
	)
	return written, nil
}

// WriteCSV streams the results table to path and the candidates table to a
// sibling file with a "_candidates" suffix.
func (a *AuditExporter) WriteCSV(path string, entries []AuditEntry) error {
	results, err := a.csv.CreateStreamWriter(path, ResultHeaders)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := results.WriteRecord(ResultRow(e)); err != nil {
			results.Close()
			return fmt.Errorf("failed to write result for %s: %w", e.Source, err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	var candidates [][]string
	for _, e := range entries {
		candidates = append(candidates, CandidateRows(e)...)
	}
	return a.csv.WriteSimpleCSV(candidatesPath(path), CandidateHeaders, candidates)
}

func (a *AuditExporter) candidatesCSVPath() string {
	return candidatesPath(a.paths.ResultsCSV)
}

func candidatesPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_candidates" + ext
}
