package validator

import "strings"

// Checksum weights of the Russian taxpayer number (INN).
var (
	innWeights10 = []int{2, 4, 10, 3, 5, 9, 4, 6, 8}
	innWeights11 = []int{7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
	innWeights12 = []int{3, 7, 2, 4, 10, 3, 5, 9, 4, 6, 8}
)

// NormalizeTaxID strips spaces and dashes.
func NormalizeTaxID(value string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
}

// IsValidTaxID reports whether value is a 10-digit (organisation) or
// 12-digit (individual) INN with correct control digits.
func IsValidTaxID(value string) bool {
	id := NormalizeTaxID(value)
	digits := make([]int, len(id))
	for i, r := range id {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
	}

	switch len(digits) {
	case 10:
		return innControl(digits, innWeights10) == digits[9]
	case 12:
		return innControl(digits, innWeights11) == digits[10] &&
			innControl(digits, innWeights12) == digits[11]
	default:
		return false
	}
}

func innControl(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	return sum % 11 % 10
}

// ValidTaxID validates an INN, see IsValidTaxID.
func ValidTaxID(field, value string) Rule {
	return rule(func() bool { return IsValidTaxID(value) },
		field, "tax_id", "invalid tax identification number")
}
