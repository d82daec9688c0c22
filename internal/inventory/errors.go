package inventory

import (
	"errors"
	"fmt"
)

// ErrMissingColumn matches any *MissingColumnError.
var ErrMissingColumn = errors.New("missing required column")

// MissingColumnError reports a required column absent from the header row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("the file must contain the column %q", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// QRDecodeError reports a QR string whose value part could not be parsed.
// It never leaves the normalizer.
type QRDecodeError struct {
	Raw string
	Err error
}

func (e *QRDecodeError) Error() string {
	return fmt.Sprintf("decode qr %q: %v", e.Raw, e.Err)
}

func (e *QRDecodeError) Unwrap() error {
	return e.Err
}
