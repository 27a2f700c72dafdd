package utils

import (
	"fmt"
	"strings"
)

// FormatRupiah renders an amount as rupiah with dot thousands separators,
// e.g. "Rp 4.250.000".
func FormatRupiah(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
