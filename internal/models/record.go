// Package models contains domain types for the custody voucher service.
package models

import "github.com/shopspring/decimal"

// InventoryRecord is one spreadsheet row: one physical asset assigned to one employee.
type InventoryRecord struct {
	Row             int             `json:"row"` // 1-based row in the source sheet
	EmployeeName    string          `json:"employeeName"`
	CURP            string          `json:"curp,omitempty"`
	RFC             string          `json:"rfc,omitempty"`
	Department      string          `json:"department,omitempty"`
	Building        string          `json:"building,omitempty"`
	Floor           string          `json:"floor,omitempty"`
	Workstation     string          `json:"workstation,omitempty"`
	QR              string          `json:"qr,omitempty"`
	RegistryNumber  string          `json:"registryNumber,omitempty"`
	InventoryNumber string          `json:"inventoryNumber,omitempty"`
	Description     string          `json:"description"`
	Value           decimal.Decimal `json:"value"`
	Observation     string          `json:"observation,omitempty"`
}

// PendingRegistration reports whether the asset has not been registered yet:
// no registry number, no inventory number and no value.
func (r InventoryRecord) PendingRegistration() bool {
	return r.RegistryNumber == "" && r.InventoryNumber == "" && r.Value.IsZero()
}

// Warning is a non-fatal problem found while loading a dataset.
type Warning struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// RecordView is the flattened preview of a record sent to clients.
type RecordView struct {
	Index           int     `json:"index" msgpack:"index"`
	QR              string  `json:"qr,omitempty" msgpack:"qr,omitempty"`
	Description     string  `json:"description" msgpack:"description"`
	InventoryNumber string  `json:"inventoryNumber" msgpack:"inventoryNumber"`
	RegistryNumber  string  `json:"registryNumber" msgpack:"registryNumber"`
	Value           float64 `json:"value" msgpack:"value"`
	ValueText       string  `json:"valueText" msgpack:"valueText"`
	Observation     string  `json:"observation" msgpack:"observation"`
}

// NewRecordViews flattens records for preview, numbering them from 1.
func NewRecordViews(records []InventoryRecord) []RecordView {
	views := make([]RecordView, 0, len(records))
	for i, r := range records {
		views = append(views, RecordView{
			Index:           i + 1,
			QR:              r.QR,
			Description:     r.Description,
			InventoryNumber: r.InventoryNumber,
			RegistryNumber:  r.RegistryNumber,
			Value:           r.Value.InexactFloat64(),
			ValueText:       FormatCurrency(r.Value),
			Observation:     r.Observation,
		})
	}
	return views
}

// FormatCurrency renders a value the way vouchers print it: "$1500.00".
func FormatCurrency(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}
