// Package inventory turns raw spreadsheet tables into validated datasets of
// inventory records, expanding QR strings into their sub-fields.
package inventory

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/activofijo/vales-resguardo/internal/models"
	"github.com/activofijo/vales-resguardo/internal/parser"
)

// ErrEmptyFile is returned when the uploaded sheet has a header but no rows.
var ErrEmptyFile = errors.New("the file has no data rows")

// qrAbsent are QR cell values that mean "no QR", as exported by pandas-based tools.
var qrAbsent = map[string]struct{}{"": {}, "nan": {}, "None": {}}

// Normalizer validates tables and builds datasets.
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer wires a normalizer. A nil logger discards output.
func NewNormalizer(logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{logger: logger}
}

// Normalize trims the headers, checks the required columns, drops rows
// without an employee name, coerces values and runs the QR pass when the
// sheet has a QR column.
func (n *Normalizer) Normalize(table *parser.Table) (*models.Dataset, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, ErrEmptyFile
	}

	columns := make([]string, 0, len(table.Header))
	index := make(map[string]int, len(table.Header))
	for _, h := range table.Header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if _, dup := index[h]; dup {
			continue
		}
		index[h] = table.Index(h)
		columns = append(columns, h)
	}

	for _, col := range models.RequiredColumns {
		if _, ok := index[col]; !ok {
			return nil, &MissingColumnError{Column: col}
		}
	}

	cell := func(row int, col string) string {
		i, ok := index[col]
		if !ok {
			return ""
		}
		return table.Cell(row, i)
	}

	ds := &models.Dataset{
		Columns: columns,
		Records: make([]models.InventoryRecord, 0, len(table.Rows)),
	}

	dropped := 0
	for i := range table.Rows {
		name := cell(i, models.ColumnName)
		if name == "" {
			dropped++
			continue
		}
		sheetRow := table.SheetRow(i)

		rawValue := cell(i, models.ColumnValue)
		value, ok := coerceValue(rawValue)
		if !ok {
			n.logger.Debug("value coerced to zero",
				zap.Int("row", sheetRow), zap.String("value", rawValue))
			ds.Warnings = append(ds.Warnings, models.Warning{
				Row:     sheetRow,
				Column:  models.ColumnValue,
				Value:   rawValue,
				Message: "value is not a non-negative number, using 0",
			})
		}

		ds.Records = append(ds.Records, models.InventoryRecord{
			Row:             sheetRow,
			EmployeeName:    name,
			CURP:            cell(i, models.ColumnCURP),
			RFC:             cell(i, models.ColumnRFC),
			Department:      cell(i, models.ColumnDepartment),
			Building:        cell(i, models.ColumnBuilding),
			Floor:           cell(i, models.ColumnFloor),
			Workstation:     cell(i, models.ColumnWorkstation),
			QR:              cell(i, models.ColumnQR),
			RegistryNumber:  cell(i, models.ColumnRegistryNumber),
			InventoryNumber: cell(i, models.ColumnInventoryNumber),
			Description:     cell(i, models.ColumnDescription),
			Value:           value,
			Observation:     cell(i, models.ColumnObservation),
		})
	}

	if ds.HasColumn(models.ColumnQR) {
		n.ApplyQR(ds)
	}

	n.logger.Info("dataset normalized",
		zap.Int("records", len(ds.Records)),
		zap.Int("dropped", dropped),
		zap.Int("warnings", len(ds.Warnings)))

	return ds, nil
}

// ApplyQR fills blank registry, inventory, description and value fields from
// each record's QR string. Rows that already carry a registry or inventory
// number are left alone, so running the pass again changes nothing.
// It returns the number of records updated.
func (n *Normalizer) ApplyQR(ds *models.Dataset) int {
	if ds == nil {
		return 0
	}

	updated := 0
	for i := range ds.Records {
		r := &ds.Records[i]
		if _, absent := qrAbsent[strings.TrimSpace(r.QR)]; absent {
			continue
		}
		if r.RegistryNumber != "" || r.InventoryNumber != "" {
			continue
		}

		fields, err := DecodeQR(r.QR)
		if err != nil {
			n.logger.Error("failed to decode qr", zap.Int("row", r.Row), zap.Error(err))
			addWarning(ds, models.Warning{
				Row:     r.Row,
				Column:  models.ColumnQR,
				Value:   r.QR,
				Message: "qr value could not be decoded",
			})
			fields = QRFields{}
		}
		if fields.IsZero() {
			continue
		}

		changed := false
		if fields.RegistryNumber != "" {
			r.RegistryNumber = fields.RegistryNumber
			changed = true
		}
		if fields.InventoryNumber != "" {
			r.InventoryNumber = fields.InventoryNumber
			changed = true
		}
		if fields.Description != "" && r.Description == "" {
			r.Description = fields.Description
			changed = true
		}
		if fields.Value.IsPositive() && r.Value.IsZero() {
			r.Value = fields.Value
			changed = true
		}
		if changed {
			updated++
		}
	}

	if updated > 0 {
		n.logger.Debug("qr pass applied", zap.Int("updated", updated))
	}
	return updated
}

// coerceValue parses a value cell. Blank cells are zero without complaint;
// anything unparsable or negative is zero and reported as not ok.
func coerceValue(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, true
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

func addWarning(ds *models.Dataset, w models.Warning) {
	for _, existing := range ds.Warnings {
		if existing == w {
			return
		}
	}
	ds.Warnings = append(ds.Warnings, w)
}
