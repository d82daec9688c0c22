package document

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activofijo/vales-resguardo/internal/models"
)

var fixedNow = time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)

func sampleRecords() []models.InventoryRecord {
	return []models.InventoryRecord{
		{
			Row: 2, EmployeeName: "JUAN PEREZ LOPEZ", CURP: "PELJ800101HDFRPN01", RFC: "PELJ800101ABC",
			Department: "RECURSOS HUMANOS Y MATERIALES", Building: "EDIFICIO A", Floor: "2",
			RegistryNumber: "12345", InventoryNumber: "67890", Description: "ESCRITORIO OFICINA",
			Value: decimal.RequireFromString("1500.00"), Observation: "BUEN ESTADO",
		},
		{
			Row: 3, EmployeeName: "JUAN PEREZ LOPEZ",
			Description: "SILLA", Observation: "nan",
		},
		{
			Row: 4, EmployeeName: "JUAN PEREZ LOPEZ", RegistryNumber: "nan", InventoryNumber: "INV-2024-000000000000000001",
			Description: "ARCHIVERO METALICO DE CUATRO GAVETAS CON CHAPA", Value: decimal.RequireFromString("899.5"),
			Observation: "nan",
		},
	}
}

func panelValue(t *testing.T, v *Voucher, source string) []string {
	t.Helper()
	for _, p := range v.Panel {
		if p.Field.Source == source {
			return p.Lines
		}
	}
	t.Fatalf("panel has no %s field", source)
	return nil
}

func TestBuild_Panel(t *testing.T) {
	l := DefaultLayout()
	v := l.Build("JUAN PEREZ LOPEZ", sampleRecords(), fixedNow)

	assert.Equal(t, []string{"JUAN PEREZ LOPEZ"}, panelValue(t, v, SourceName))
	assert.Equal(t, []string{"PELJ800101HDFRPN01"}, panelValue(t, v, SourceCURP))
	assert.Equal(t, []string{"RECURSOS", "HUMANOS Y MATERIALES"}, panelValue(t, v, SourceDepartment))
	assert.Equal(t, []string{"COMISIONADO"}, panelValue(t, v, SourceWorkstation))
	assert.Equal(t, []string{"07/03/2025"}, panelValue(t, v, SourceDate))
	assert.Equal(t, []string{"3"}, panelValue(t, v, SourceItemCount))
	assert.Equal(t, "07/03/2025", v.Date)
}

func TestBuild_LongNameTruncated(t *testing.T) {
	l := DefaultLayout()
	name := "MARIA DE LOS ANGELES GUADALUPE HERNANDEZ"
	records := []models.InventoryRecord{{EmployeeName: name, Description: "MESA"}}

	v := l.Build(name, records, fixedNow)
	assert.Equal(t, []string{"MARIA DE LOS ANGELES GUADALUPE H..."}, panelValue(t, v, SourceName))
	assert.Equal(t, "MARIA DE LOS ANGELES GUADALUPE H...", v.Signature)
	assert.Equal(t, name, v.ResponsibleName)
}

func TestBuild_DepartmentWrapBoundary(t *testing.T) {
	tests := []struct {
		name string
		dept string
		want []string
	}{
		{"20 chars", "ABCDEFGHIJ KLMNOPQRS", []string{"ABCDEFGHIJ KLMNOPQRS"}},
		{"21 chars with space", "ABCDEFGHIJ KLMNOPQRST", []string{"ABCDEFGHIJ", "KLMNOPQRST"}},
		{"21 chars without space", "ABCDEFGHIJKLMNOPQRSTU", []string{"ABCDEFGHIJ", "KLMNOPQRSTU"}},
	}

	l := DefaultLayout()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []models.InventoryRecord{{EmployeeName: "ANA", Department: tt.dept, Description: "MESA"}}
			v := l.Build("ANA", records, fixedNow)
			assert.Equal(t, tt.want, panelValue(t, v, SourceDepartment))
		})
	}
}

func TestBuild_DescriptionTruncationBoundary(t *testing.T) {
	desc32 := strings.Repeat("X", 32)
	desc33 := strings.Repeat("X", 33)
	records := []models.InventoryRecord{
		{EmployeeName: "ANA", Description: desc32},
		{EmployeeName: "ANA", Description: desc33},
	}

	v := DefaultLayout().Build("ANA", records, fixedNow)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, desc32, v.Rows[0].Cells[3].Text)
	assert.Equal(t, desc32+"...", v.Rows[1].Cells[3].Text)
}

func TestBuild_Rows(t *testing.T) {
	l := DefaultLayout()
	v := l.Build("JUAN PEREZ LOPEZ", sampleRecords(), fixedNow)
	require.Len(t, v.Rows, 3)

	first := v.Rows[0]
	require.Len(t, first.Cells, len(l.Table.Columns))
	assert.Equal(t, "1", first.Cells[0].Text)
	assert.Equal(t, "12345", first.Cells[1].Text)
	assert.Equal(t, "67890", first.Cells[2].Text)
	assert.Equal(t, "ESCRITORIO OFICINA", first.Cells[3].Text)
	assert.Equal(t, "$1500.00", first.Cells[4].Text)
	assert.Equal(t, "BUEN ESTADO", first.Cells[5].Text)
	assert.False(t, first.Shaded)

	pending := v.Rows[1]
	assert.Equal(t, "EN PROCESO DE ALTA", pending.Cells[5].Text)
	assert.Equal(t, "$0.00", pending.Cells[4].Text)
	assert.True(t, pending.Shaded)

	long := v.Rows[2]
	assert.Equal(t, "", long.Cells[1].Text, "nan registry is blanked")
	assert.Equal(t, "INV-2024-0000000000000000", long.Cells[2].Text)
	assert.True(t, long.Cells[2].Small)
	assert.Equal(t, "ARCHIVERO METALICO DE CUATRO GAV...", long.Cells[3].Text)
	assert.Equal(t, "", long.Cells[5].Text, "nan observation is blanked")
	assert.False(t, long.Shaded)
}

func TestBuild_Total(t *testing.T) {
	v := DefaultLayout().Build("JUAN PEREZ LOPEZ", sampleRecords(), fixedNow)

	assert.True(t, decimal.RequireFromString("2399.5").Equal(v.Total))
	assert.Equal(t, "$2399.50", v.TotalText)
	assert.Equal(t, 3, v.Items)
}

func TestBuild_DoesNotMutateRecords(t *testing.T) {
	records := sampleRecords()
	before := sampleRecords()

	DefaultLayout().Build("JUAN PEREZ LOPEZ", records, fixedNow)
	assert.Equal(t, before, records)
}
