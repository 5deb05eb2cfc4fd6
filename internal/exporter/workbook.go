package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the audit workbook
const (
	ResultsSheet    = "Results"
	CandidatesSheet = "Candidates"
)

// numericResultColumns are written as numbers so spreadsheets can sort them
var numericResultColumns = map[string]bool{
	"price":               true,
	"confidence":          true,
	"consensus_threshold": true,
	"points_used":         true,
	"points_total":        true,
	"host_excluded":       true,
	"outliers_removed":    true,
	"exclusion_quorum":    true,
	"volatility_score":    true,
}

var numericCandidateColumns = map[string]bool{
	"price":             true,
	"base_confidence":   true,
	"sample_bonus":      true,
	"consensus_percent": true,
	"combined_score":    true,
}

// WriteAuditWorkbook writes a Results and a Candidates sheet to path
func WriteAuditWorkbook(path string, entries []AuditEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(CandidatesSheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	var results, candidates [][]string
	for _, e := range entries {
		results = append(results, ResultRow(e))
		candidates = append(candidates, CandidateRows(e)...)
	}

	if err := writeSheet(f, ResultsSheet, ResultHeaders, results, numericResultColumns, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, CandidatesSheet, CandidateHeaders, candidates, numericCandidateColumns, headerStyle); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string, numeric map[string]bool, headerStyle int) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, row := range rows {
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
			if numeric[headers[j]] {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					values[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
