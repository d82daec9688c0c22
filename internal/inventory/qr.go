package inventory

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// qrDelimiters are tried in order; the first one present wins.
var qrDelimiters = []string{"|", ";", ","}

var nonNumeric = regexp.MustCompile(`[^\d.]`)

const qrDescriptionLimit = 50

// QRFields are the sub-values carried by a QR string.
type QRFields struct {
	RegistryNumber  string
	InventoryNumber string
	Description     string
	Value           decimal.Decimal
}

// IsZero reports whether nothing was decoded.
func (f QRFields) IsZero() bool {
	return f.RegistryNumber == "" && f.InventoryNumber == "" && f.Description == "" && f.Value.IsZero()
}

// DecodeQR splits a QR string of the form
// "registry|inventory|description|value" (or with ";" or ","). A string
// without any delimiter becomes a description of at most 50 characters.
// On error the returned fields are zero.
func DecodeQR(raw string) (QRFields, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return QRFields{}, nil
	}

	for _, delim := range qrDelimiters {
		if !strings.Contains(raw, delim) {
			continue
		}
		parts := strings.Split(raw, delim)
		if len(parts) < 4 {
			return QRFields{}, nil
		}
		value, err := parseQRValue(parts[3])
		if err != nil {
			return QRFields{}, &QRDecodeError{Raw: raw, Err: err}
		}
		return QRFields{
			RegistryNumber:  strings.TrimSpace(parts[0]),
			InventoryNumber: strings.TrimSpace(parts[1]),
			Description:     strings.TrimSpace(parts[2]),
			Value:           value,
		}, nil
	}

	return QRFields{Description: truncateRunes(raw, qrDescriptionLimit)}, nil
}

// parseQRValue keeps only digits and dots, so "$1,500.00 MXN" reads 1500.00.
func parseQRValue(s string) (decimal.Decimal, error) {
	digits := nonNumeric.ReplaceAllString(s, "")
	if digits == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(digits)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
