package validation

import "strings"

// NormalizeTaxID strips everything but digits from a free-form CNPJ string.
// "12.345.678/0001-90" becomes "12345678000190". Returns "" when nothing
// remains.
func NormalizeTaxID(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
