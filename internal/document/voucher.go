package document

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/activofijo/vales-resguardo/internal/models"
)

// Voucher is the fully resolved content of one custody voucher, ready to be
// drawn. Building it needs no PDF backend.
type Voucher struct {
	ResponsibleName string
	Date            string
	Panel           []PanelLine
	Rows            []Row
	Items           int
	Total           decimal.Decimal
	TotalText       string
	Signature       string // responsible name as printed under the signature line
}

// PanelLine is a resolved panel field. Values may span one or two lines.
type PanelLine struct {
	Field PanelField
	Lines []string
}

// Row is one table row, with one cell per layout column.
type Row struct {
	Cells  []Cell
	Shaded bool
}

type Cell struct {
	Text  string
	Small bool
}

// Build resolves the voucher content of employeeName from its records. The
// employee details come from the first record.
func (l *Layout) Build(employeeName string, records []models.InventoryRecord, now time.Time) *Voucher {
	v := &Voucher{
		ResponsibleName: employeeName,
		Date:            now.Format(l.Page.DateFormat),
		Items:           len(records),
		Total:           decimal.Zero,
	}

	var first models.InventoryRecord
	if len(records) > 0 {
		first = records[0]
	}

	for _, f := range l.Panel.Fields {
		value := l.panelValue(f.Source, employeeName, first, v)
		if strings.TrimSpace(value) == "" && f.Default != "" {
			value = f.Default
		}
		value, _ = f.TextRule.Apply(value)
		v.Panel = append(v.Panel, PanelLine{Field: f, Lines: wrapLines(value, f.WrapOver)})
	}

	for i, r := range records {
		row := Row{Shaded: (i+1)%2 == 0}
		for _, c := range l.Table.Columns {
			text, small := c.TextRule.Apply(l.cellValue(c.Source, i, r))
			row.Cells = append(row.Cells, Cell{Text: text, Small: small})
		}
		v.Rows = append(v.Rows, row)
		v.Total = v.Total.Add(r.Value)
	}
	v.TotalText = models.FormatCurrency(v.Total)
	v.Signature, _ = l.Signatures.Responsible.TextRule.Apply(employeeName)

	return v
}

func (l *Layout) panelValue(source, name string, r models.InventoryRecord, v *Voucher) string {
	switch source {
	case SourceName:
		return name
	case SourceCURP:
		return blankNaN(r.CURP)
	case SourceRFC:
		return blankNaN(r.RFC)
	case SourceDepartment:
		return blankNaN(r.Department)
	case SourceBuilding:
		return blankNaN(r.Building)
	case SourceWorkstation:
		return blankNaN(r.Workstation)
	case SourceFloor:
		return blankNaN(r.Floor)
	case SourceDate:
		return v.Date
	case SourceItemCount:
		return strconv.Itoa(v.Items)
	}
	return ""
}

func (l *Layout) cellValue(source string, i int, r models.InventoryRecord) string {
	registry := blankNaN(r.RegistryNumber)
	inventory := blankNaN(r.InventoryNumber)

	switch source {
	case SourceIndex:
		return strconv.Itoa(i + 1)
	case SourceRegistry:
		return registry
	case SourceInventory:
		return inventory
	case SourceDescription:
		return blankNaN(r.Description)
	case SourceValue:
		return models.FormatCurrency(r.Value)
	case SourceObservation:
		if registry == "" && inventory == "" && r.Value.IsZero() {
			return l.Table.PendingObservation
		}
		return blankNaN(r.Observation)
	}
	return ""
}
