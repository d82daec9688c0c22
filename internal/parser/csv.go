package parser

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVReader handles comma separated exports of the inventory sheet.
type CSVReader struct{}

func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (p *CSVReader) Name() string {
	return "csv"
}

func (p *CSVReader) CanRead(fileName string) bool {
	return hasExt(fileName, ".csv")
}

// Read strips a UTF-8 byte order mark, which spreadsheet exports often add.
func (p *CSVReader) Read(r io.Reader) (*Table, error) {
	bomless := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	cr := csv.NewReader(bomless)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return newTable("csv", rows)
}
