package models

// Spreadsheet column headers, matched exactly after trimming.
const (
	ColumnName            = "NOMBRE"
	ColumnCURP            = "CURP"
	ColumnRFC             = "RFC"
	ColumnDepartment      = "AREA O DEPARTAMENTO"
	ColumnBuilding        = "EDIFICIO"
	ColumnFloor           = "PISO"
	ColumnWorkstation     = "CT"
	ColumnQR              = "QR"
	ColumnRegistryNumber  = "No. SEP"
	ColumnInventoryNumber = "NUMERO DE INVVENTARIO" // sic, as in the source spreadsheets
	ColumnDescription     = "DESCRIPCION"
	ColumnValue           = "VALOR"
	ColumnObservation     = "OBSERVACIONES"
)

// RequiredColumns must all be present for a file to load.
var RequiredColumns = []string{ColumnName, ColumnDescription, ColumnValue}
