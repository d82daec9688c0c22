package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads Office Open XML workbooks.
type XLSXReader struct{}

func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (p *XLSXReader) Name() string {
	return "xlsx"
}

func (p *XLSXReader) CanRead(fileName string) bool {
	return hasExt(fileName, ".xlsx", ".xlsm")
}

// Read returns the first sheet. Cells are read raw so that numbers keep
// their stored value instead of the display format ("1,500.00").
func (p *XLSXReader) Read(r io.Reader) (*Table, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}

	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	return newTable(sheetName, rows)
}
