package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/activofijo/vales-resguardo/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FindReader(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		fileName string
		want     string
		wantErr  bool
	}{
		{"inventario.xlsx", "xlsx", false},
		{"INVENTARIO.XLSX", "xlsx", false},
		{"macros.xlsm", "xlsx", false},
		{"legacy.xls", "xls", false},
		{"export.csv", "csv", false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			rd, err := r.FindReader(tt.fileName)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnsupportedFile))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rd.Name())
		})
	}
}

func TestRegistry_ReadUnsupported(t *testing.T) {
	_, err := GetGlobalRegistry().Read("inventario.ods", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestXLSXReader_Read(t *testing.T) {
	data := testutil.SampleWorkbook(t)

	table, err := NewRegistry().Read("inventario.xlsx", bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, testutil.InventoryHeader, table.Header)
	require.Len(t, table.Rows, 2)

	valueCol := table.Index("VALOR")
	require.GreaterOrEqual(t, valueCol, 0)
	assert.Equal(t, "1500", table.Cell(0, valueCol))
	assert.Equal(t, "2500.5", table.Cell(1, valueCol))
	assert.Equal(t, "MARIA GARCIA HERNANDEZ", table.Cell(1, table.Index("NOMBRE")))
}

func TestXLSXReader_InvalidData(t *testing.T) {
	_, err := NewXLSXReader().Read(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}

func TestCSVReader_Read(t *testing.T) {
	content := "\ufeff NOMBRE ,DESCRIPCION,VALOR\n" +
		"\n" +
		"ANA,SILLA,100\n" +
		"BETO,\"MESA, GRANDE\"\n"

	table, err := NewCSVReader().Read(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []string{" NOMBRE ", "DESCRIPCION", "VALOR"}, table.Header)
	require.Len(t, table.Rows, 2, "blank lines are skipped")
	assert.Equal(t, "ANA", table.Cell(0, 0))
	assert.Equal(t, "MESA, GRANDE", table.Cell(1, 1))
	assert.Equal(t, "", table.Cell(1, 2), "short rows are padded")
	assert.Equal(t, "", table.Cell(9, 9))
}

func TestNewTable_Empty(t *testing.T) {
	_, err := newTable("Sheet1", [][]string{{"", " "}, {}})
	assert.ErrorIs(t, err, ErrEmptyWorksheet)

	_, err = NewCSVReader().Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyWorksheet)
}

func TestTable_LeadingBlankRows(t *testing.T) {
	table, err := newTable("Sheet1", [][]string{{""}, {}, {" NOMBRE ", "VALOR"}, {"ANA", "5"}})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Index("NOMBRE"))
	assert.Equal(t, -1, table.Index("nombre"))
	assert.Equal(t, "5", table.Cell(0, 1))
	assert.Equal(t, 2, table.SkippedRows)
	assert.Equal(t, 4, table.SheetRow(0))
}

func TestXLSXReader_LeadingBlankRows(t *testing.T) {
	data := testutil.BuildWorkbook(t, []string{"", ""}, [][]any{
		{},
		{"NOMBRE", "DESCRIPCION", "VALOR"},
		{"ANA", "SILLA", 100},
	})

	table, err := NewXLSXReader().Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"NOMBRE", "DESCRIPCION", "VALOR"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 4, table.SheetRow(0))
}
