package schedule

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount with two decimals, a comma separator and
// spaces between thousands: 100000 -> "100 000,00".
func Format(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "," + frac
}

// FormatPercent renders a percentage rounded to two decimals without
// trailing zeros: 50 -> "50", 16.666... -> "16,67".
func FormatPercent(d decimal.Decimal) string {
	s := d.Round(2).String()
	return strings.Replace(s, ".", ",", 1)
}
