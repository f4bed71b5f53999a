// Package reporting renders tabular exports (CSV, XLSX) and one-page PDF
// summaries.
package reporting

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx". Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Table is a header plus string rows.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Encode renders the table in the given format.
func (t Table) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return t.XLSX()
	case FormatCSV, "":
		return t.CSV()
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

func (t Table) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSX renders the table into a single-sheet workbook with a bold header row.
func (t Table) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	if err := writeRow(f, sheet, 1, t.Header); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if len(t.Header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Header))
		if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
