// Package parser reads uploaded spreadsheets into raw tables.
package parser

import (
	"errors"
	"strings"
)

// ErrEmptyWorksheet is returned when the first sheet has no rows.
var ErrEmptyWorksheet = errors.New("worksheet is empty")

// Table is an untyped grid: one header row plus data rows.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
	// SkippedRows counts the blank sheet rows above the header.
	SkippedRows int
}

// Index returns the first column whose trimmed header equals header, or -1.
// Matching is case sensitive.
func (t *Table) Index(header string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == header {
			return i
		}
	}
	return -1
}

// SheetRow returns the 1-based sheet row number of data row i.
func (t *Table) SheetRow(i int) int {
	return t.SkippedRows + i + 2
}

// Cell returns the trimmed value at row/col, or "" when out of range.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][col])
}

// newTable splits rows into header and data. Leading empty rows are skipped
// and short rows are padded to the header width.
func newTable(sheet string, rows [][]string) (*Table, error) {
	start := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyWorksheet
	}

	header := append([]string(nil), rows[start]...)
	data := make([][]string, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if len(row) < len(header) {
			padded := make([]string, len(header))
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}

	return &Table{Sheet: sheet, Header: header, Rows: data, SkippedRows: start}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
