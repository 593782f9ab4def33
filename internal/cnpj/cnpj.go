// Package cnpj validates and formats Brazilian business tax-registry
// identifiers (CNPJ).
package cnpj

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Length is the number of digits in a valid CNPJ.
const Length = 14

// ErrInvalid is returned when an input does not normalize to 14 digits.
// It is a validation failure: fatal to the single lookup, never retried.
var ErrInvalid = eris.New("cnpj: identifier must contain exactly 14 digits")

// Normalize strips all non-digit characters and validates the result.
// "02.558.157/0001-62" normalizes to "02558157000162". Inputs that strip
// to any other length fail; they are never truncated or padded.
func Normalize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != Length {
		return "", eris.Wrapf(ErrInvalid, "got %d digits from %q", len(digits), raw)
	}
	return digits, nil
}

// Format renders a normalized identifier in the conventional
// XX.XXX.XXX/XXXX-XX display form. Inputs that are not 14 digits are
// returned unchanged.
func Format(digits string) string {
	if len(digits) != Length {
		return digits
	}
	return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
}
