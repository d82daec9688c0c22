// Package testutil builds spreadsheet fixtures for tests.
package testutil

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// InventoryHeader is the full column set of the inventory template.
var InventoryHeader = []string{
	"NOMBRE", "CURP", "RFC", "AREA O DEPARTAMENTO", "EDIFICIO", "QR",
	"No. SEP", "NUMERO DE INVVENTARIO", "DESCRIPCION", "VALOR", "OBSERVACIONES", "CT", "PISO",
}

// SampleRows matches the example rows shipped with the inventory template.
var SampleRows = [][]any{
	{"JUAN PEREZ LOPEZ", "PELJ800101HDFRPN01", "PELJ800101ABC", "RECURSOS HUMANOS", "EDIFICIO A",
		"12345|67890|ESCRITORIO OFICINA|1500.00", "12345", "67890", "ESCRITORIO OFICINA", 1500.00, "BUEN ESTADO", "OFICINAS CENTRALES", 2},
	{"MARIA GARCIA HERNANDEZ", "GAHM750512MDFRRR02", "GAHM750512DEF", "CONTABILIDAD", "EDIFICIO B",
		"54321|09876|SILLA EJECUTIVA|2500.50", "54321", "09876", "SILLA EJECUTIVA", 2500.50, "NUEVO", "OFICINAS CENTRALES", 3},
}

// BuildWorkbook writes header and rows to the first sheet of a new xlsx
// workbook and returns its bytes.
func BuildWorkbook(t testing.TB, header []string, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// SampleWorkbook returns the template workbook with its two example rows.
func SampleWorkbook(t testing.TB) []byte {
	return BuildWorkbook(t, InventoryHeader, SampleRows)
}
