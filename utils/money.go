package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCentavos renders an amount in centavos the Brazilian way,
// e.g. 123456 becomes "R$ 1.234,56".
func FormatCentavos(value int64) string {
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}

	s := decimal.New(value, -2).StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "R$ " + b.String() + "," + fracPart
}

// MaskCardNumber keeps only the last four digits.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "XXXX"
	}
	return "XXXX XXXX XXXX " + number[len(number)-4:]
}
