package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Dataset is the ordered collection of records loaded from one uploaded file.
type Dataset struct {
	Columns  []string          `json:"columns"`
	Records  []InventoryRecord `json:"records"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// EmployeeGroup is the record set of one employee.
type EmployeeGroup struct {
	Name    string
	Records []InventoryRecord
}

// DatasetStats summarizes a dataset for display.
type DatasetStats struct {
	Employees    int             `json:"employees"`
	Items        int             `json:"items"`
	TotalValue   decimal.Decimal `json:"totalValue"`
	AverageValue decimal.Decimal `json:"averageValue"`
}

// IsEmpty reports whether the dataset is nil or holds no records.
func (d *Dataset) IsEmpty() bool {
	return d == nil || len(d.Records) == 0
}

// HasColumn reports whether the source file carried the given (trimmed) column.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// EmployeeNames returns distinct employee names in order of first appearance.
func (d *Dataset) EmployeeNames() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range d.Records {
		if _, ok := seen[r.EmployeeName]; ok {
			continue
		}
		seen[r.EmployeeName] = struct{}{}
		names = append(names, r.EmployeeName)
	}
	return names
}

// SortedEmployeeNames returns distinct employee names in lexical order.
func (d *Dataset) SortedEmployeeNames() []string {
	names := d.EmployeeNames()
	sort.Strings(names)
	return names
}

// HasEmployee reports whether any record belongs to name.
func (d *Dataset) HasEmployee(name string) bool {
	if d == nil {
		return false
	}
	for _, r := range d.Records {
		if r.EmployeeName == name {
			return true
		}
	}
	return false
}

// RecordsFor returns the records of one employee, matched by exact name.
func (d *Dataset) RecordsFor(name string) []InventoryRecord {
	if d == nil {
		return nil
	}
	var out []InventoryRecord
	for _, r := range d.Records {
		if r.EmployeeName == name {
			out = append(out, r)
		}
	}
	return out
}

// Groups returns the record set of every employee in discovery order.
func (d *Dataset) Groups() []EmployeeGroup {
	if d == nil {
		return nil
	}
	index := make(map[string]int)
	var groups []EmployeeGroup
	for _, r := range d.Records {
		i, ok := index[r.EmployeeName]
		if !ok {
			i = len(groups)
			index[r.EmployeeName] = i
			groups = append(groups, EmployeeGroup{Name: r.EmployeeName})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// Stats computes employee/item counts and value totals.
func (d *Dataset) Stats() DatasetStats {
	stats := DatasetStats{
		TotalValue:   decimal.Zero,
		AverageValue: decimal.Zero,
	}
	if d.IsEmpty() {
		return stats
	}
	stats.Employees = len(d.EmployeeNames())
	stats.Items = len(d.Records)
	stats.TotalValue = SumValues(d.Records)
	stats.AverageValue = stats.TotalValue.Div(decimal.NewFromInt(int64(stats.Items))).Round(2)
	return stats
}

// SumValues adds up the value of every record.
func SumValues(records []InventoryRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Value)
	}
	return total
}
