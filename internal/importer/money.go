package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount is returned when a monetary string cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount format")

// ParseAmountMinor converts a monetary string to integer minor units
// (cents). Currency symbols and thousands separators are stripped; the
// result is rounded to the nearest cent. Negative values parse successfully
// and are rejected by the row validator, not here.
func ParseAmountMinor(raw string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, ErrInvalidAmount
	}

	// Thousands separator only; decimal point is the period.
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Converting an out-of-range float to int64 is implementation-defined.
	if math.Abs(value) > math.MaxInt64/100 {
		return 0, ErrInvalidAmount
	}
	return int64(math.Round(value * 100)), nil
}
