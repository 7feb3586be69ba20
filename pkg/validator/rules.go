package validator

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

func rule(ok func() bool, field, code, msg string) Rule {
	return Rule{Check: ok, Error: ValidationError{Field: field, Code: code, Message: msg}}
}

// RequiredString fails on empty or whitespace-only values.
func RequiredString(field, value string) Rule {
	return rule(func() bool { return strings.TrimSpace(value) != "" },
		field, "required", "field is required")
}

func MaxLenString(field, value string, max int) Rule {
	return rule(func() bool { return len(value) <= max },
		field, "max_length", fmt.Sprintf("must be at most %d characters long", max))
}

func InList[T comparable](field string, value T, allowed []T) Rule {
	return rule(func() bool { return slices.Contains(allowed, value) },
		field, "in_list", fmt.Sprintf("must be one of: %v", allowed))
}

func MinNum[T Numeric](field string, value, min T) Rule {
	return rule(func() bool { return value >= min },
		field, "min", fmt.Sprintf("must be at least %v", min))
}

func MaxNum[T Numeric](field string, value, max T) Rule {
	return rule(func() bool { return value <= max },
		field, "max", fmt.Sprintf("must be at most %v", max))
}

// ValidCurrencyCode checks an upper-case ISO 4217 alphabetic code such as RUB.
func ValidCurrencyCode(field, value string) Rule {
	return rule(func() bool { return currencyCodeRegex.MatchString(value) },
		field, "currency_code", "must be a 3-letter currency code")
}
