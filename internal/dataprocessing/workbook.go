package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "oracletally/internal/errors"
	"oracletally/pkg/contracts/domain"
)

// Workbook fixtures keep reveals on a "Reveals" sheet with a header row
// naming at least a result column, and optionally batch fields on a "Batch"
// sheet as key/value rows.
const (
	RevealsSheet = "Reveals"
	BatchSheet   = "Batch"
)

// ReadWorkbook loads a reveal batch from an XLSX fixture
func ReadWorkbook(path string) (domain.RevealBatch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.RevealBatch{}, apperrors.NewStorageError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	rows, err := f.GetRows(RevealsSheet)
	if err != nil {
		return domain.RevealBatch{}, apperrors.NewParsingError("workbook has no Reveals sheet", err).
			WithContext("path", path)
	}

	batch, err := parseRevealRows(rows)
	if err != nil {
		return domain.RevealBatch{}, fmt.Errorf("%s: %w", path, err)
	}

	// The Batch sheet is optional
	if meta, err := f.GetRows(BatchSheet); err == nil {
		for _, row := range meta {
			if len(row) < 2 {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(row[0])) {
			case "symbol":
				batch.Symbol = strings.TrimSpace(row[1])
			case "request_id":
				batch.RequestID = strings.TrimSpace(row[1])
			}
		}
	}
	return batch, nil
}

func parseRevealRows(rows [][]string) (domain.RevealBatch, error) {
	headerRow := -1
	columnMap := make(map[string]int)

	for i, row := range rows {
		for j, header := range row {
			switch strings.ToLower(strings.TrimSpace(header)) {
			case "result":
				columnMap["result"] = j
			case "exit_code", "exit code":
				columnMap["exit_code"] = j
			case "gas_used", "gas used":
				columnMap["gas_used"] = j
			case "in_consensus", "in consensus":
				columnMap["in_consensus"] = j
			}
		}
		if _, ok := columnMap["result"]; ok {
			headerRow = i
			break
		}
		clear(columnMap)
	}

	if headerRow == -1 {
		return domain.RevealBatch{}, apperrors.NewParsingError("could not find header row with a result column", nil)
	}

	var batch domain.RevealBatch
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}

		var fx revealFixture
		var err error
		fx.Result = cell(row, columnMap, "result")
		if v := cell(row, columnMap, "exit_code"); v != "" {
			if fx.ExitCode, err = strconv.Atoi(v); err != nil {
				return domain.RevealBatch{}, rowError(i, "exit_code", err)
			}
		}
		if v := cell(row, columnMap, "gas_used"); v != "" {
			if fx.GasUsed, err = strconv.ParseUint(v, 10, 64); err != nil {
				return domain.RevealBatch{}, rowError(i, "gas_used", err)
			}
		}
		if v := cell(row, columnMap, "in_consensus"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return domain.RevealBatch{}, rowError(i, "in_consensus", err)
			}
			fx.InConsensus = &b
		}

		rec, err := fx.record()
		if err != nil {
			return domain.RevealBatch{}, rowError(i, "result", err)
		}
		batch.Reveals = append(batch.Reveals, rec)
	}
	return batch, nil
}

// WriteWorkbook stores a batch as an XLSX fixture readable by ReadWorkbook
func WriteWorkbook(path string, batch domain.RevealBatch) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), RevealsSheet); err != nil {
		return err
	}
	header := []any{"exit_code", "gas_used", "in_consensus", "result"}
	if err := f.SetSheetRow(RevealsSheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range batch.Reveals {
		row := []any{r.ExitCode, r.GasUsed, strconv.FormatBool(r.InConsensus), EncodePayload(r.Result)}
		if err := f.SetSheetRow(RevealsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}

	if batch.Symbol != "" || batch.RequestID != "" {
		if _, err := f.NewSheet(BatchSheet); err != nil {
			return err
		}
		_ = f.SetSheetRow(BatchSheet, "A1", &[]any{"symbol", batch.Symbol})
		_ = f.SetSheetRow(BatchSheet, "A2", &[]any{"request_id", batch.RequestID})
	}

	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}
	return nil
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func rowError(row int, column string, err error) error {
	return apperrors.NewParsingError(fmt.Sprintf("row %d column %s", row+1, column), err)
}
