// Package export renders computation results as downloadable files. Pivot
// tables and raw grids go out with their column order preserved; analytics
// reports get one worksheet or CSV section per pass.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// PivotXLSX renders a pivot result as a single-sheet workbook with the
// aggregate columns in the result's field order.
func PivotXLSX(result pivot.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Pivot"); err != nil {
		return nil, err
	}
	if err := writeRows(f, "Pivot", pivotGrid(result)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// PivotCSV renders a pivot result as CSV, header first, columns in the
// result's field order. Pivot columns depend on the configuration, so rows
// are written positionally rather than through struct tags.
func PivotCSV(result pivot.Result) ([]byte, error) {
	return writeCSV(pivotGrid(result))
}

// GridXLSX dumps the cell collection as a dense worksheet, preserving row
// and column positions.
func GridXLSX(cells sheet.CellCollection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Data"); err != nil {
		return nil, err
	}
	if err := writeRows(f, "Data", cells.Table()); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// GridCSV dumps the cell collection as dense CSV.
func GridCSV(cells sheet.CellCollection) ([]byte, error) {
	return writeCSV(cells.Table())
}

// pivotGrid flattens the result into header + data rows in field order.
func pivotGrid(result pivot.Result) [][]any {
	rows := make([][]any, 0, len(result.Rows)+1)

	header := make([]any, len(result.Fields))
	for i, field := range result.Fields {
		header[i] = field
	}
	rows = append(rows, header)

	for _, r := range result.Rows {
		row := make([]any, len(result.Fields))
		for i, field := range result.Fields {
			row[i] = r[field]
		}
		rows = append(rows, row)
	}
	return rows
}

// writeRows fills a worksheet row by row starting at A1.
func writeRows(f *excelize.File, sheetName string, rows [][]any) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(rows [][]any) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	record := make([]string, 0, 8)
	for _, row := range rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, valueString(v))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// valueString renders a cell value for CSV the same way pivot dimensions
// are displayed, so both formats show identical text.
func valueString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return s.Format("2006-01-02")
	case sheet.ErrorValue:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}
