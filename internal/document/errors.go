package document

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInventory  = errors.New("no inventory data to generate a voucher")
	ErrEmptyDataset    = errors.New("dataset has no records")
	ErrMissingEmployee = errors.New("employee not found")
)

// MissingEmployeeError names the employee that has no records.
type MissingEmployeeError struct {
	Name string
}

func (e *MissingEmployeeError) Error() string {
	return fmt.Sprintf("no records for employee %q", e.Name)
}

func (e *MissingEmployeeError) Is(target error) bool {
	return target == ErrMissingEmployee
}
